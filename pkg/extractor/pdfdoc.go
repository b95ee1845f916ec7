package extractor

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// openPDF parses PDF bytes with a panic fence: the pdf library panics on some
// malformed cross-reference tables, and a bad document must never take down
// an extraction branch.
func openPDF(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = &invoice.InvalidDocumentError{Message: "PDF parser panic: unreadable structure"}
		}
	}()

	if len(content) < 4 || !bytes.HasPrefix(content, []byte("%PDF")) {
		return nil, &invoice.InvalidDocumentError{Message: "missing %PDF header"}
	}
	r, err = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &invoice.InvalidDocumentError{Message: "unparseable PDF: " + err.Error()}
	}
	if r.NumPage() == 0 {
		return nil, &invoice.InvalidDocumentError{Message: "PDF has zero pages"}
	}
	return r, nil
}

// docInfoStrings pulls the document-info metadata fields used for the
// confidence metadata boost. Missing or non-string entries come back empty.
func docInfoStrings(r *pdf.Reader) (fields []string) {
	defer func() {
		if rec := recover(); rec != nil {
			fields = nil
		}
	}()

	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}
	for _, key := range []string{"Creator", "Producer", "Title"} {
		v := info.Key(key)
		if v.Kind() == pdf.String {
			fields = append(fields, v.RawString())
		}
	}
	return fields
}
