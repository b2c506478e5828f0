package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDOCX reads word/document.xml out of the OOXML container and walks
// the token stream. Only text runs, paragraph boundaries, tabs and breaks are
// kept; everything else (styling, tables markup, footnotes refs) is dropped.
func (e *Extractor) extractDOCX(path string) (Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return Result{}, fmt.Errorf("open docx container: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return Result{}, errors.New("docx is missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return Result{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	text, err := docxTokens(rc)
	if err != nil {
		return Result{}, fmt.Errorf("parse document.xml: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Result{Method: "docx"}, ErrNoText
	}
	res := Result{Text: text, Pages: 1, Method: "docx"}
	if lang, conf, ok := e.usable(text); ok {
		res.Language = lang
		res.LangConfidence = conf
	} else if !e.cfg.Lang.Empty() {
		return res, fmt.Errorf("docx text failed language check: %w", ErrNoText)
	}
	return res, nil
}

func docxTokens(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
