package invoice

import "fmt"

// InvalidDocumentError represents a malformed or empty PDF. It is terminal
// for the document and never retried.
type InvalidDocumentError struct {
	Message string
}

func (e *InvalidDocumentError) Error() string {
	return e.Message
}

// ExtractionTimeoutError means one extraction branch exceeded its time
// budget. It is local to that branch, not fatal to the pipeline.
type ExtractionTimeoutError struct {
	Method  string
	Timeout string
}

func (e *ExtractionTimeoutError) Error() string {
	return fmt.Sprintf("extraction method %s timed out after %s", e.Method, e.Timeout)
}

// ExtractionMethodError is a library-level failure inside one extractor. The
// coordinator treats the branch as having returned zero confidence.
type ExtractionMethodError struct {
	Method  string
	Message string
}

func (e *ExtractionMethodError) Error() string {
	return fmt.Sprintf("extraction method %s failed: %s", e.Method, e.Message)
}

// ProcessingError is an unexpected failure anywhere in the pipeline, caught
// at the top level and converted into a terminal status.
type ProcessingError struct {
	Stage   string
	Message string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed during %s: %s", e.Stage, e.Message)
}
