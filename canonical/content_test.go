package canonical

import (
	"bytes"
	"testing"

	"creed.space/vcp/vcperr"
)

func TestContentNormalizesLineEndingsAndTrailingWhitespace(t *testing.T) {
	got, err := Content("Line one\r\nLine two  \r\n\r\n\r\n")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	want := []byte("Line one\nLine two\n")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestContentBareCR(t *testing.T) {
	got, err := Content("a\rb\r")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if string(got) != "a\nb\n" {
		t.Fatalf("got %q", got)
	}
}

func TestContentEmptyAndWhitespaceOnly(t *testing.T) {
	for _, in := range []string{"", "\n", "\n\n\n", "   \n\t\n"} {
		got, err := Content(in)
		if err != nil {
			t.Fatalf("Content(%q): %v", in, err)
		}
		if string(got) != "\n" {
			t.Fatalf("Content(%q) = %q, want single newline", in, got)
		}
	}
}

func TestContentIdempotent(t *testing.T) {
	inputs := []string{
		"hello\n",
		"Line one\r\nLine two  \r\n\r\n\r\n",
		"tab\tinside\n",
		"no trailing newline",
		"multi\n\nblank\nlines\n\n",
		"unicode café élève\n",
	}
	for _, in := range inputs {
		once, err := Content(in)
		if err != nil {
			t.Fatalf("Content(%q): %v", in, err)
		}
		twice, err := Content(string(once))
		if err != nil {
			t.Fatalf("Content(Content(%q)): %v", in, err)
		}
		if !bytes.Equal(once, twice) {
			t.Fatalf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestContentNFC(t *testing.T) {
	// e + COMBINING ACUTE ACCENT composes to U+00E9.
	got, err := Content("é\n")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if string(got) != "é\n" {
		t.Fatalf("got %q, want NFC-composed form", got)
	}
}

func TestContentRejectsControlCharacters(t *testing.T) {
	for _, in := range []string{"a\x00b", "bell\x07", "esc\x1b[31m", "\x0bvt"} {
		_, err := Content(in)
		if err == nil {
			t.Fatalf("Content(%q): expected error", in)
		}
		if !vcperr.IsKind(err, vcperr.KindInvalidEncoding) {
			t.Fatalf("Content(%q): kind = %v, want InvalidEncoding", in, err)
		}
	}
}

func TestContentAllowsTab(t *testing.T) {
	if _, err := Content("col1\tcol2\n"); err != nil {
		t.Fatalf("tab should be allowed: %v", err)
	}
}

func TestContentRejectsDirectionControls(t *testing.T) {
	cases := []string{
		"evil\u202etext",
		"iso\u2066late",
		"zero\u200bwidth",
		"joined\u200d",
		"bom\ufeffinside",
	}
	for _, in := range cases {
		_, err := Content(in)
		if err == nil {
			t.Fatalf("Content(%q): expected error", in)
		}
		if !vcperr.IsKind(err, vcperr.KindInvalidEncoding) {
			t.Fatalf("Content(%q): kind = %v, want InvalidEncoding", in, err)
		}
	}
}

func TestContentBytesRejectsInvalidUTF8(t *testing.T) {
	_, err := ContentBytes([]byte{0xff, 0xfe, 0x41})
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	if vcperr.RuleID(err) != "VCP-CANON-001" {
		t.Fatalf("rule = %q, want VCP-CANON-001", vcperr.RuleID(err))
	}
}

func TestContentDeterministic(t *testing.T) {
	in := "Same input\r\nevery time  \n\n"
	first, err := Content(in)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	for i := 0; i < 32; i++ {
		again, err := Content(in)
		if err != nil {
			t.Fatalf("Content: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("nondeterministic output on run %d", i)
		}
	}
}
