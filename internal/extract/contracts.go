package extract

import (
	"context"
	"errors"
	"time"
)

// TextExtractor is the single entry point the batch processor and the HTTP
// front-end depend on: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result summarizes one extraction.
type Result struct {
	Text           string
	Pages          int
	Format         string // constants.PDF | constants.DOC | ...
	Method         string // "pdf-text" | "pdf-native" | "pdf-ocr" | "image-ocr" | "doc-antiword" | "docx" | "html" | "plaintext"
	Language       string // detected, ISO code; empty when detection is off
	LangConfidence float64
	Confidence     float32 // OCR decode confidence, 0 for parser methods
	Duration       time.Duration
	Warnings       []string
}

var (
	// ErrUnsupported means the file extension maps to no known format.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrNoText means extraction ran but produced no usable text.
	ErrNoText = errors.New("no text extractable from the specified file")
)
