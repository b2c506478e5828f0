package extract

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

var htmlBlockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "blockquote": true,
	"br": true, "tr": true, "table": true,
}

var htmlSkipTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
	"nav": true, "noscript": true, "iframe": true,
}

// extractHTML strips markup and keeps block structure as newlines.
func (e *Extractor) extractHTML(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && htmlSkipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && htmlBlockTags[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return Result{Method: "html"}, ErrNoText
	}
	res := Result{Text: text, Pages: 1, Method: "html"}
	if lang, conf, ok := e.usable(text); ok {
		res.Language = lang
		res.LangConfidence = conf
	}
	return res, nil
}
