// Package gosseract provides an in-process OCR engine backed by the libtesseract
// binding. It avoids one subprocess per page at the cost of a cgo dependency;
// select it with OCR_USE_GOSSERACT=true.
package gosseract

import (
	"context"
	"strings"

	gosseract "github.com/otiai10/gosseract/v2"

	"github.com/easytextract/easytextract/internal/ocr"
)

// Engine implements ocr.Engine using the gosseract client.
type Engine struct {
	languages     []string
	tessdataDir   string
	clientFactory func() *gosseract.Client
}

// New constructs a gosseract-backed OCR engine. languages are tesseract
// trained-data codes ("eng", "fra"); nil falls back to the client default.
func New(languages []string, tessdataDir string) *Engine {
	return &Engine{
		languages:     languages,
		tessdataDir:   tessdataDir,
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "gosseract" }

// RecognizeFile runs recognition on a single image file. A fresh client per
// call keeps the engine safe for concurrent use.
func (e *Engine) RecognizeFile(ctx context.Context, path string) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.tessdataDir != "" {
		if err := c.SetTessdataPrefix(e.tessdataDir); err != nil {
			return ocr.Result{}, err
		}
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return ocr.Result{}, err
		}
	}
	if err := c.SetImage(path); err != nil {
		return ocr.Result{}, err
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, err
	}
	text = strings.TrimSpace(text)

	conf := wordConfidence(c)
	return ocr.Result{
		Text:       text,
		Language:   strings.Join(e.languages, "+"),
		Confidence: ocr.BlendConfidence(conf, ocr.HeuristicConfidence(text)),
	}, nil
}

// wordConfidence averages per-word confidences reported by the binding.
func wordConfidence(c *gosseract.Client) float32 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return float32(sum / float64(len(boxes)))
}
