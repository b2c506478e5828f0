package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidManifest(t *testing.T) {
	path := writeManifest(t, `{
		"inputs": ["/data/in"],
		"output_dir": "/data/out",
		"filetypes": ["pdf", "docx"],
		"ocr": "force",
		"languages": ["en", "nl"],
		"workers": 8
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Inputs) != 1 || m.Inputs[0] != "/data/in" {
		t.Errorf("inputs = %v", m.Inputs)
	}
	if m.OCR != "force" {
		t.Errorf("ocr = %q", m.OCR)
	}
	if m.Workers != 8 {
		t.Errorf("workers = %d", m.Workers)
	}
}

func TestLoadDefaultsOCRToAuto(t *testing.T) {
	path := writeManifest(t, `{"inputs": ["/data/in"]}`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.OCR != "auto" {
		t.Errorf("ocr = %q, want auto", m.OCR)
	}
	if m.Lowercase != nil {
		t.Errorf("lowercase should stay unset, got %v", *m.Lowercase)
	}
}

func TestLoadRejectsInvalidManifests(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing inputs", `{"output_dir": "/data/out"}`},
		{"empty inputs", `{"inputs": []}`},
		{"bad ocr mode", `{"inputs": ["/in"], "ocr": "maybe"}`},
		{"unknown field", `{"inputs": ["/in"], "recursive": true}`},
		{"negative workers", `{"inputs": ["/in"], "workers": -1}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeManifest(t, c.content)
			if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "schema") {
				t.Fatalf("want schema error, got %v", err)
			}
		})
	}
}
