package constants

import "strings"

// Source formats recognized by the extraction dispatcher.
const (
	PDF   = "PDF"
	DOC   = "DOC"
	DOCX  = "DOCX"
	HTML  = "HTML"
	TEXT  = "TEXT"
	IMAGE = "IMAGE"
)

// DefaultExtensions holds the default extension filter for batch runs
// (lowercased, without the dot).
var DefaultExtensions = map[string]bool{
	"pdf":  true,
	"doc":  true,
	"docx": true,
}

// AllExtensions maps every supported extension to its format.
var AllExtensions = map[string]string{
	"pdf":  PDF,
	"doc":  DOC,
	"docx": DOCX,
	"html": HTML,
	"htm":  HTML,
	"txt":  TEXT,
	"md":   TEXT,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"tif":  IMAGE,
	"tiff": IMAGE,
	"bmp":  IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for a normalized extension,
// or "" when the extension is not supported.
func MapExtToFormat(ext string) string {
	return AllExtensions[NormalizeExt(ext)]
}

// IsImageExt reports whether the extension belongs to a raster image type.
func IsImageExt(ext string) bool {
	return MapExtToFormat(ext) == IMAGE
}

// SupportedExtensions returns the set of every extension the dispatcher
// knows about.
func SupportedExtensions() map[string]bool {
	out := make(map[string]bool, len(AllExtensions))
	for e := range AllExtensions {
		out[e] = true
	}
	return out
}

// ParseExtList splits a ";"-separated extension list ("pdf;docx;doc") into a
// normalized set. An empty input returns nil, which callers treat as "no
// filter" or "defaults" depending on context.
func ParseExtList(s string) map[string]bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	out := map[string]bool{}
	for _, e := range strings.Split(s, ";") {
		e = NormalizeExt(strings.TrimSpace(e))
		if e != "" {
			out[e] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
