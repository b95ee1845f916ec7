package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestGetPipelineLoggerCarriesStageFields(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	logger := GetPipelineLogger("doc-1", "classification")
	logger.Info().Msg("stage done")

	out := buf.String()
	assert.Contains(t, out, `"document_id":"doc-1"`)
	assert.Contains(t, out, `"stage":"classification"`)
	assert.Contains(t, out, `"message":"stage done"`)
}

func TestGetLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	logger := GetLogger("coordinator")
	logger.Warn().Msg("slow branch")

	assert.Contains(t, buf.String(), `"component":"coordinator"`)
}
