package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/easytextract/easytextract/constants"
	"github.com/easytextract/easytextract/internal/ocr"
	"github.com/easytextract/easytextract/internal/textproc"
)

// Config holds the dispatcher's knobs: binary paths, OCR policy and the
// language gate used to detect gibberish output from encrypted or image-only
// PDFs.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Antiword  string // if empty, probed at the conventional install locations

	DPI      int // rasterization DPI for scanned PDFs, default 300
	MaxPages int // 0 = no limit

	// ForceOCR skips the text parsers and goes straight to OCR. Only
	// meaningful for PDF and image inputs.
	ForceOCR bool
	// DisableOCR turns off the OCR fallback entirely.
	DisableOCR bool

	// Lang rejects parser output whose detected language is outside the
	// allowlist, treating it as gibberish worth an OCR retry.
	Lang textproc.LangFilter
}

// Extractor picks a strategy per file extension.
type Extractor struct {
	cfg    Config
	runner ocr.Runner
	engine ocr.Engine
	logger *slog.Logger
}

// New builds an Extractor. A nil runner uses os/exec; engine may be nil when
// cfg.DisableOCR is set.
func New(cfg Config, runner ocr.Runner, engine ocr.Engine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: runner, engine: engine, logger: logger}
}

// Extract dispatches on the file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("starting extraction", "path", path, "ext", ext, "format", format)
	if format == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	var res Result
	var err error
	switch format {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.DOC:
		res, err = e.extractDoc(ctx, path)
	case constants.DOCX:
		res, err = e.extractDOCX(path)
	case constants.HTML:
		res, err = e.extractHTML(path)
	case constants.TEXT:
		res, err = e.extractPlaintext(path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Debug("extraction failed", "path", path, "format", format, "error", err)
		return res, err
	}
	e.logger.Debug("extraction ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"language", res.Language,
	)
	return res, nil
}

// usable normalizes parser output and runs the language gate. Empty or
// out-of-language text is what an encoded PDF typically produces.
func (e *Extractor) usable(text string) (lang string, conf float64, ok bool) {
	t := textproc.Normalize(text)
	if t == "" {
		return "", 0, false
	}
	return e.cfg.Lang.Check(t)
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	if e.engine == nil || e.cfg.DisableOCR {
		return Result{}, fmt.Errorf("image input needs OCR: %w", ErrNoText)
	}
	r, err := e.engine.RecognizeFile(ctx, path)
	if err != nil {
		return Result{Warnings: r.Warnings}, err
	}
	res := Result{
		Text:       r.Text,
		Pages:      1,
		Method:     "image-ocr",
		Language:   r.Language,
		Confidence: r.Confidence,
		Warnings:   r.Warnings,
	}
	if textproc.Normalize(r.Text) == "" {
		return res, ErrNoText
	}
	if r.Confidence > 0 && r.Confidence < ocr.ImageConfidenceThreshold {
		e.logger.Warn("image ocr confidence low", "path", path, "confidence", r.Confidence)
		res.Warnings = append(res.Warnings, fmt.Sprintf("low OCR confidence: %.2f", r.Confidence))
	}
	return res, nil
}
