package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// antiwordPath returns the configured antiword binary, falling back to the
// conventional install locations before trusting PATH.
func (e *Extractor) antiwordPath() string {
	if e.cfg.Antiword != "" {
		return e.cfg.Antiword
	}
	if runtime.GOOS == "windows" {
		return `C:/antiword/antiword.exe`
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, "antiword", "antiword")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "antiword"
}

// extractDoc wraps antiword for legacy .doc files.
func (e *Extractor) extractDoc(ctx context.Context, path string) (Result, error) {
	bin := e.antiwordPath()
	stdout, stderr, err := e.runner.Run(ctx, bin, path)
	if err != nil {
		return Result{}, fmt.Errorf("antiword: %w (stderr: %s)", err, strings.TrimSpace(string(stderr)))
	}
	text := string(stdout)
	if strings.TrimSpace(text) == "" {
		return Result{Method: "doc-antiword"}, ErrNoText
	}
	res := Result{Text: text, Pages: 1, Method: "doc-antiword"}
	if lang, conf, ok := e.usable(text); ok {
		res.Language = lang
		res.LangConfidence = conf
	} else if !e.cfg.Lang.Empty() {
		return res, fmt.Errorf("doc text failed language check: %w", ErrNoText)
	}
	return res, nil
}
