package textproc

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
)

// Options controls the cleanup applied to extracted text.
type Options struct {
	RemoveAccents bool
	Lowercase     bool
}

// Normalize collapses noisy whitespace. Conservative: keeps line breaks;
// collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}

// Clean runs the full cleanup pipeline: whitespace normalization, then the
// optional accent fold and lowercasing.
func Clean(s string, opts Options) string {
	s = Normalize(s)
	if s == "" {
		return s
	}
	if opts.RemoveAccents {
		s = RemoveAccents(s)
	}
	if opts.Lowercase {
		s = strings.ToLower(s)
	}
	return s
}
