package constants

import "testing"

func TestMapExtToFormat(t *testing.T) {
	cases := []struct {
		ext  string
		want string
	}{
		{"pdf", PDF},
		{".PDF", PDF},
		{"doc", DOC},
		{"docx", DOCX},
		{"htm", HTML},
		{"html", HTML},
		{"md", TEXT},
		{"jpeg", IMAGE},
		{".TIFF", IMAGE},
		{"xlsx", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := MapExtToFormat(c.ext); got != c.want {
			t.Errorf("MapExtToFormat(%q) = %q, want %q", c.ext, got, c.want)
		}
	}
}

func TestParseExtList(t *testing.T) {
	got := ParseExtList(" pdf; .DOCX ;doc;")
	if len(got) != 3 {
		t.Fatalf("expected 3 extensions, got %v", got)
	}
	for _, e := range []string{"pdf", "docx", "doc"} {
		if _, ok := got[e]; !ok {
			t.Errorf("missing %q in %v", e, got)
		}
	}
	if ParseExtList("  ") != nil {
		t.Errorf("blank input should return nil")
	}
}
