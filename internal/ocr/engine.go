package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Engine recognizes text in a single image file.
type Engine interface {
	Name() string
	RecognizeFile(ctx context.Context, path string) (Result, error)
}

// Result is the outcome of recognizing one image.
type Result struct {
	Text       string
	Language   string
	Confidence float32 // 0..1, 0 when unknown
	Warnings   []string
}

// Config holds knobs for the subprocess tesseract engine.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language    string // default "eng"
	TessdataDir string

	PSM int // e.g., 6 is good for a uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	EnableTSVConfidence bool
}

// TesseractEngine shells out to the tesseract binary.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractEngine(cfg Config, runner Runner, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &TesseractEngine{cfg: cfg, runner: runner, logger: logger}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// RecognizeFile runs tesseract on an image file and blends the TSV word
// confidence (when enabled) with a text heuristic.
func (e *TesseractEngine) RecognizeFile(ctx context.Context, path string) (Result, error) {
	// tesseract needs absolute paths
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, err
	}

	txt, warns, err := e.recognizeText(ctx, abs)
	if err != nil {
		return Result{Warnings: warns}, err
	}

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		c, w, err2 := e.tsvConfidence(ctx, abs)
		if err2 == nil {
			ocrConf = c
			warns = append(warns, w...)
		} else {
			warns = append(warns, err2.Error())
		}
	}
	conf := BlendConfidence(ocrConf, HeuristicConfidence(txt))

	return Result{
		Text:       txt,
		Language:   e.cfg.Language,
		Confidence: conf,
		Warnings:   warns,
	}, nil
}

func (e *TesseractEngine) recognizeText(ctx context.Context, path string) (string, []string, error) {
	args := e.baseArgs(path)

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// tsvConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *TesseractEngine) tsvConfidence(ctx context.Context, path string) (float32, []string, error) {
	args := append(e.baseArgs(path), "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}
	lines := strings.Split(string(out), "\n")
	// conf is the second-to-last column; the word text is last
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-2]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil, nil
	}
	mean := sum / n // 0..100
	return float32(mean / 100.0), nil, nil
}

func (e *TesseractEngine) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}
