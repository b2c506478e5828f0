package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF tries the cheapest strategy first: pdftotext, then the native
// parser, then rasterize-and-OCR for scanned documents. A parser that
// succeeds but yields empty or gibberish text triggers the next step.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	if !e.cfg.ForceOCR {
		if res, err := e.pdfToText(ctx, path); err == nil {
			if lang, conf, ok := e.usable(res.Text); ok {
				res.Language = lang
				res.LangConfidence = conf
				return res, nil
			}
			e.logger.Debug("pdftotext output unusable, trying next strategy", "path", path)
		} else {
			e.logger.Debug("pdftotext failed", "path", path, "error", err)
		}

		if res, err := e.nativePDFText(path); err == nil {
			if lang, conf, ok := e.usable(res.Text); ok {
				res.Language = lang
				res.LangConfidence = conf
				return res, nil
			}
			e.logger.Debug("native pdf output unusable, trying next strategy", "path", path)
		} else {
			e.logger.Debug("native pdf parse failed", "path", path, "error", err)
		}
	}

	if e.cfg.DisableOCR || e.engine == nil {
		return Result{}, fmt.Errorf("pdf has no usable text layer and OCR is disabled: %w", ErrNoText)
	}
	res, err := e.pdfToOCR(ctx, path)
	if err != nil {
		return res, err
	}
	if lang, conf, ok := e.usable(res.Text); ok {
		res.Language = lang
		res.LangConfidence = conf
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, ErrNoText
	}
	return res, nil
}

// pdfToText shells out to poppler's pdftotext and reads the text from stdout.
func (e *Extractor) pdfToText(ctx context.Context, path string) (Result, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-"}
	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return Result{}, fmt.Errorf("pdftotext: %w (stderr: %s)", err, strings.TrimSpace(string(stderr)))
	}
	text := string(stdout)
	// pdftotext separates pages with form feeds.
	pages := 1 + strings.Count(text, "\f")
	return Result{Text: text, Pages: pages, Method: "pdf-text"}, nil
}

// nativePDFText parses the PDF in-process. The parser panics on some
// malformed files, so the whole call is recover-wrapped.
func (e *Extractor) nativePDFText(path string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native pdf parser panicked: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	max := total
	if e.cfg.MaxPages > 0 && e.cfg.MaxPages < max {
		max = e.cfg.MaxPages
	}

	var sb strings.Builder
	for i := 1; i <= max; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, perr := p.GetPlainText(nil)
		if perr != nil {
			e.logger.Debug("native pdf page unreadable", "path", path, "page", i, "error", perr)
			continue
		}
		if i > 1 {
			sb.WriteString("\n\f\n")
		}
		sb.WriteString(txt)
	}
	return Result{Text: sb.String(), Pages: max, Method: "pdf-native"}, nil
}

// pdfToOCR rasterizes each page with pdftoppm and runs the OCR engine over
// the resulting images. Pages are joined with form feeds to mirror pdftotext.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "et-pp-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix}
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return Result{}, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, strings.TrimSpace(string(stderr)))
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("glob rendered pages: %w", err)
	}
	if len(images) == 0 {
		// Single-page PDFs render without a page suffix on some poppler
		// versions.
		images, _ = filepath.Glob(prefix + "*.png")
	}
	if len(images) == 0 {
		return Result{}, fmt.Errorf("pdftoppm produced no pages: %w", ErrNoText)
	}
	sort.Strings(images)
	if e.cfg.MaxPages > 0 && len(images) > e.cfg.MaxPages {
		images = images[:e.cfg.MaxPages]
	}

	var (
		parts    []string
		warnings []string
		confSum  float32
		confN    int
	)
	for _, img := range images {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		r, rerr := e.engine.RecognizeFile(ctx, img)
		if rerr != nil {
			e.logger.Warn("ocr failed on page", "path", path, "page", filepath.Base(img), "error", rerr)
			warnings = append(warnings, fmt.Sprintf("%s: %v", filepath.Base(img), rerr))
			continue
		}
		parts = append(parts, r.Text)
		warnings = append(warnings, r.Warnings...)
		if r.Confidence > 0 {
			confSum += r.Confidence
			confN++
		}
	}
	if len(parts) == 0 {
		return Result{Warnings: warnings}, fmt.Errorf("ocr produced no text on any page: %w", ErrNoText)
	}

	res := Result{
		Text:     strings.Join(parts, "\n\f\n"),
		Pages:    len(images),
		Method:   "pdf-ocr",
		Warnings: warnings,
	}
	if confN > 0 {
		res.Confidence = confSum / float32(confN)
	}
	return res, nil
}
