package textproc

import "testing"

const englishSample = `The quick brown fox jumps over the lazy dog. Text
extraction from scanned documents is only useful when the decoded output is
actual language rather than random symbol soup, so the filter checks both the
detected language and the confidence of the detection before accepting it.`

func TestLangFilterAllows(t *testing.T) {
	f := LangFilter{Allow: []string{"en", "fr", "nl"}}
	lang, conf, ok := f.Check(englishSample)
	if !ok {
		t.Fatalf("expected english sample to pass, got lang=%q conf=%v", lang, conf)
	}
	if lang != "en" && lang != "eng" {
		t.Errorf("unexpected language %q", lang)
	}
}

func TestLangFilterRejectsOtherLanguage(t *testing.T) {
	f := LangFilter{Allow: []string{"de"}}
	if _, _, ok := f.Check(englishSample); ok {
		t.Fatalf("expected english sample to be rejected by de-only filter")
	}
}

func TestLangFilterDisabled(t *testing.T) {
	f := LangFilter{}
	if _, _, ok := f.Check("whatever short text"); !ok {
		t.Fatalf("empty allowlist should pass any non-empty text")
	}
}

func TestLangFilterEmptyText(t *testing.T) {
	f := LangFilter{}
	if _, _, ok := f.Check("   \n "); ok {
		t.Fatalf("blank text should never pass")
	}
}

func TestParseLangList(t *testing.T) {
	got := ParseLangList("en; FR ;nl;")
	if len(got) != 3 || got[0] != "en" || got[1] != "fr" || got[2] != "nl" {
		t.Errorf("ParseLangList = %v", got)
	}
	if ParseLangList("") != nil {
		t.Errorf("empty input should return nil")
	}
}
