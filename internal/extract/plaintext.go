package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlaintext reads .txt/.md files as-is. Non-UTF-8 content is rejected
// rather than passed through mangled.
func (e *Extractor) extractPlaintext(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return Result{}, fmt.Errorf("file is not valid UTF-8: %w", ErrNoText)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return Result{Method: "plaintext"}, ErrNoText
	}
	res := Result{Text: text, Pages: 1, Method: "plaintext"}
	if lang, conf, ok := e.usable(text); ok {
		res.Language = lang
		res.LangConfidence = conf
	}
	return res, nil
}
