package document

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MaxSizeMB     = 20
	MaxPages      = 200
	MinTextChars  = 100
	textSamplePgs = 3
)

// ValidationError is a rejection the caller should show to the uploader as is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

const maxUploadBytes = MaxSizeMB << 20

func sizeExceeded(n int64) error {
	return invalid("File size (%.1fMB) exceeds limit of %dMB", float64(n)/(1024*1024), MaxSizeMB)
}

// ReadUpload reads an uploaded file without buffering more than one byte past
// the size limit. declared is the client-reported size, or -1 when unknown.
func ReadUpload(r io.Reader, declared int64) ([]byte, error) {
	if declared > maxUploadBytes {
		return nil, sizeExceeded(declared)
	}
	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxUploadBytes {
		n := declared
		if n < int64(len(data)) {
			n = int64(len(data))
		}
		return nil, sizeExceeded(n)
	}
	return data, nil
}

// Extractor opens a PDF and returns its page count and the plain text of its
// first maxPages pages.
type Extractor interface {
	Inspect(data []byte, maxPages int) (pages int, text string, err error)
}

type Validator struct {
	extractor Extractor
}

// NewValidator returns a Validator; a nil extractor means ledongthuc/pdf.
func NewValidator(extractor Extractor) *Validator {
	if extractor == nil {
		extractor = PDFExtractor{}
	}
	return &Validator{extractor: extractor}
}

// Validate checks, in order: content type, size, parseability, page count and
// whether the first pages carry enough text to be indexed.
func (v *Validator) Validate(data []byte) error {
	if !mimetype.Detect(data).Is("application/pdf") {
		return invalid("Only PDF files are allowed")
	}

	if int64(len(data)) > maxUploadBytes {
		return sizeExceeded(int64(len(data)))
	}

	pages, text, err := v.extractor.Inspect(data, textSamplePgs)
	if err != nil {
		return invalid("Invalid PDF file: %v", err)
	}
	if pages > MaxPages {
		return invalid("Page count (%d) exceeds limit of %d pages", pages, MaxPages)
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextChars {
		return invalid("PDF appears to be image-based or has no extractable text")
	}
	return nil
}

type PDFExtractor struct{}

func (PDFExtractor) Inspect(data []byte, maxPages int) (pages int, text string, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages, text, err = 0, "", fmt.Errorf("%v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, "", err
	}

	pages = r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages && i <= maxPages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		t, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(t)
	}
	return pages, b.String(), nil
}
