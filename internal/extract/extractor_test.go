package extract

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easytextract/easytextract/internal/ocr"
	"github.com/easytextract/easytextract/internal/textproc"
)

const englishText = "The quick brown fox jumps over the lazy dog. " +
	"This sentence exists so that language detection has enough material to work with."

// fakeRunner routes commands by binary name and can run a side effect, which
// the rasterizer tests use to drop fake page images on disk.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	onRun   func(name string, args []string)
	calls   [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.onRun != nil {
		r.onRun(name, args)
	}
	if err, ok := r.errs[name]; ok && err != nil {
		return nil, []byte("boom"), err
	}
	return []byte(r.outputs[name]), nil, nil
}

type fakeEngine struct {
	text string
	conf float32
	err  error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) RecognizeFile(_ context.Context, _ string) (ocr.Result, error) {
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	return ocr.Result{Text: f.text, Confidence: f.conf}, nil
}

func TestExtractUnsupportedExtension(t *testing.T) {
	ex := New(Config{}, &fakeRunner{}, nil, nil)
	_, err := ex.Extract(context.Background(), "archive.tar.gz")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("want ErrUnsupported, got %v", err)
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"pdftotext": englishText + "\f" + englishText,
	}}
	ex := New(Config{Lang: textproc.LangFilter{Allow: []string{"en"}}}, runner, nil, nil)

	res, err := ex.Extract(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "pdf-text" {
		t.Errorf("method = %q, want pdf-text", res.Method)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	if res.Language != "en" {
		t.Errorf("language = %q, want en", res.Language)
	}
	want := []string{"pdftotext", "-layout", "-enc", "UTF-8", "-eol", "unix", "report.pdf", "-"}
	if len(runner.calls) != 1 || strings.Join(runner.calls[0], " ") != strings.Join(want, " ") {
		t.Errorf("pdftotext args = %v, want %v", runner.calls, want)
	}
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "scan.pdf")
	// Not a real PDF: the native parser must fail so the chain reaches OCR.
	if err := os.WriteFile(pdfPath, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{
		outputs: map[string]string{"pdftotext": ""}, // empty text layer
		onRun: func(name string, args []string) {
			if name != "pdftoppm" {
				return
			}
			prefix := args[len(args)-1]
			for i := 1; i <= 2; i++ {
				path := fmt.Sprintf("%s-%d.png", prefix, i)
				if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
					t.Fatal(err)
				}
			}
		},
	}
	engine := &fakeEngine{text: englishText, conf: 0.8}
	ex := New(Config{Lang: textproc.LangFilter{Allow: []string{"en"}}}, runner, engine, nil)

	res, err := ex.Extract(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "pdf-ocr" {
		t.Errorf("method = %q, want pdf-ocr", res.Method)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	if !strings.Contains(res.Text, "\f") {
		t.Error("ocr pages should be joined with a form feed")
	}
	if res.Confidence < 0.79 || res.Confidence > 0.81 {
		t.Errorf("confidence = %v, want ~0.8", res.Confidence)
	}
}

func TestExtractPDFNoTextOCRDisabled(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{outputs: map[string]string{"pdftotext": ""}}
	ex := New(Config{DisableOCR: true}, runner, nil, nil)

	_, err := ex.Extract(context.Background(), pdfPath)
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("want ErrNoText, got %v", err)
	}
}

func TestExtractForceOCRSkipsTextLayer(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "scan.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := &fakeRunner{
		outputs: map[string]string{"pdftotext": englishText},
		onRun: func(name string, args []string) {
			if name != "pdftoppm" {
				return
			}
			prefix := args[len(args)-1]
			if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o644); err != nil {
				t.Fatal(err)
			}
		},
	}
	engine := &fakeEngine{text: englishText, conf: 0.9}
	ex := New(Config{ForceOCR: true}, runner, engine, nil)

	res, err := ex.Extract(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "pdf-ocr" {
		t.Errorf("method = %q, want pdf-ocr", res.Method)
	}
	for _, call := range runner.calls {
		if call[0] == "pdftotext" {
			t.Error("pdftotext must not run when OCR is forced")
		}
	}
}

func TestExtractDocAntiword(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"/usr/bin/antiword": englishText}}
	ex := New(Config{Antiword: "/usr/bin/antiword"}, runner, nil, nil)

	res, err := ex.Extract(context.Background(), "memo.doc")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "doc-antiword" {
		t.Errorf("method = %q, want doc-antiword", res.Method)
	}
	if res.Text != englishText {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractDocAntiwordFailure(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"/usr/bin/antiword": errors.New("exit status 1")}}
	ex := New(Config{Antiword: "/usr/bin/antiword"}, runner, nil, nil)

	_, err := ex.Extract(context.Background(), "memo.doc")
	if err == nil || !strings.Contains(err.Error(), "antiword") {
		t.Fatalf("want antiword error, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letter.docx")

	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Dear reader,</w:t></w:r></w:p>
    <w:p><w:r><w:t>first</w:t><w:tab/><w:t>second</w:t></w:r></w:p>
  </w:body>
</w:document>`

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	ex := New(Config{}, &fakeRunner{}, nil, nil)
	res, err := ex.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "docx" {
		t.Errorf("method = %q, want docx", res.Method)
	}
	if !strings.Contains(res.Text, "Dear reader,\n") {
		t.Errorf("missing paragraph break in %q", res.Text)
	}
	if !strings.Contains(res.Text, "first\tsecond") {
		t.Errorf("missing tab in %q", res.Text)
	}
}

func TestExtractHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	const doc = `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body><p>First paragraph.</p><script>var x = 1;</script><p>Second paragraph.</p></body></html>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := New(Config{}, &fakeRunner{}, nil, nil)
	res, err := ex.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.Contains(res.Text, "ignored") || strings.Contains(res.Text, "var x") {
		t.Errorf("markup leaked into text: %q", res.Text)
	}
	if !strings.Contains(res.Text, "First paragraph.") || !strings.Contains(res.Text, "Second paragraph.") {
		t.Errorf("missing body text: %q", res.Text)
	}
}

func TestExtractPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello world")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	ex := New(Config{}, &fakeRunner{}, nil, nil)
	res, err := ex.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("text = %q, BOM should be stripped", res.Text)
	}
}

func TestExtractPlaintextInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bin.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x41}, 0o644); err != nil {
		t.Fatal(err)
	}

	ex := New(Config{}, &fakeRunner{}, nil, nil)
	_, err := ex.Extract(context.Background(), path)
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("want ErrNoText, got %v", err)
	}
}

func TestExtractImageOCR(t *testing.T) {
	engine := &fakeEngine{text: englishText, conf: 0.9}
	ex := New(Config{}, &fakeRunner{}, engine, nil)

	res, err := ex.Extract(context.Background(), "photo.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "image-ocr" {
		t.Errorf("method = %q, want image-ocr", res.Method)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d, want 1", res.Pages)
	}
}

func TestExtractImageOCRDisabled(t *testing.T) {
	ex := New(Config{DisableOCR: true}, &fakeRunner{}, nil, nil)
	_, err := ex.Extract(context.Background(), "photo.png")
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("want ErrNoText, got %v", err)
	}
}

func TestExtractImageLowConfidenceWarns(t *testing.T) {
	engine := &fakeEngine{text: englishText, conf: 0.3}
	ex := New(Config{}, &fakeRunner{}, engine, nil)

	res, err := ex.Extract(context.Background(), "photo.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "low OCR confidence") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected low-confidence warning, got %v", res.Warnings)
	}
}
