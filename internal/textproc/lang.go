package textproc

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// DefaultLangMinConfidence rejects low-confidence detections: gibberish from a
// mis-decoded PDF rarely classifies cleanly.
const DefaultLangMinConfidence = 0.9

// LangFilter gates extracted text on its detected language. An empty Allow
// list disables the gate.
type LangFilter struct {
	Allow         []string // ISO codes, 2- or 3-letter ("en", "eng")
	MinConfidence float64
}

// Empty reports whether the filter has no allowlist and therefore passes
// everything.
func (f LangFilter) Empty() bool { return len(f.Allow) == 0 }

// ParseLangList splits a ";"-separated language list ("en;fr;nl").
func ParseLangList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(s, ";") {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Check detects the dominant language of text and reports whether it passes
// the filter. With no allowlist every non-empty text passes and the detected
// language is still reported.
func (f LangFilter) Check(text string) (lang string, confidence float64, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", 0, false
	}
	info := whatlanggo.Detect(text)
	lang = info.Lang.Iso6391()
	if lang == "" {
		lang = whatlanggo.LangToString(info.Lang)
	}
	confidence = info.Confidence
	if len(f.Allow) == 0 {
		return lang, confidence, true
	}
	min := f.MinConfidence
	if min <= 0 {
		min = DefaultLangMinConfidence
	}
	if confidence < min {
		return lang, confidence, false
	}
	iso3 := whatlanggo.LangToString(info.Lang)
	for _, allowed := range f.Allow {
		if allowed == lang || allowed == iso3 {
			return lang, confidence, true
		}
	}
	return lang, confidence, false
}
