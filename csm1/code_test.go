package csm1

import (
	"testing"

	"creed.space/vcp/vcperr"
)

func TestParseCodeExamples(t *testing.T) {
	cases := []struct {
		raw       string
		persona   string
		level     int
		scopes    []string
		namespace string
		version   string
	}{
		{"N5+F+E", "Nanny", 5, []string{"F", "E"}, "", ""},
		{"Z3+P", "Sentinel", 3, []string{"P"}, "", ""},
		{"G4:ELEM", "Godparent", 4, nil, "ELEM", ""},
		{"M2@1.0.0", "Muse", 2, nil, "", "1.0.0"},
		{"Z3+P:SEC", "Sentinel", 3, []string{"P"}, "SEC", ""},
		{"C0", "Custom", 0, nil, "", ""},
		{"n5+f+e", "Nanny", 5, []string{"F", "E"}, "", ""},
	}
	for _, tc := range cases {
		c, err := ParseCode(tc.raw)
		if err != nil {
			t.Fatalf("ParseCode(%s): %v", tc.raw, err)
		}
		if c.Persona.Name != tc.persona || c.Level != tc.level {
			t.Fatalf("ParseCode(%s): %s%d", tc.raw, c.Persona.Name, c.Level)
		}
		if len(c.Scopes) != len(tc.scopes) {
			t.Fatalf("ParseCode(%s): scopes %v", tc.raw, c.Scopes)
		}
		for i, s := range tc.scopes {
			if c.Scopes[i].Code != s {
				t.Fatalf("ParseCode(%s): scope[%d] = %s, want %s", tc.raw, i, c.Scopes[i].Code, s)
			}
		}
		if c.Namespace != tc.namespace || c.Version != tc.version {
			t.Fatalf("ParseCode(%s): ns=%q ver=%q", tc.raw, c.Namespace, c.Version)
		}
	}
}

func TestCodeEncodeRoundTrip(t *testing.T) {
	for _, raw := range []string{"N5+F+E", "Z3+P", "G4:ELEM", "M2@1.0.0", "Z3+P:SEC", "D1+W+L+G@2.10.3"} {
		c, err := ParseCode(raw)
		if err != nil {
			t.Fatalf("ParseCode(%s): %v", raw, err)
		}
		if got := c.Encode(); got != raw {
			t.Fatalf("round trip %s -> %s", raw, got)
		}
	}
}

func TestParseCodeRejects(t *testing.T) {
	cases := []string{
		"",
		"N",
		"N6",
		"X5",
		"N5+Q",
		"N5+",
		"N5:1BAD",
		"N5@1.0",
		"N5@a.b.c",
		"N5F",
	}
	for _, raw := range cases {
		if _, err := ParseCode(raw); err == nil {
			t.Fatalf("ParseCode(%q): expected error", raw)
		}
	}
}

func TestParseCodeRetiredPersona(t *testing.T) {
	_, err := ParseCode("R5+F")
	if !vcperr.IsKind(err, vcperr.KindDeprecatedPersonaCode) {
		t.Fatalf("kind = %v, want DeprecatedPersonaCode", err)
	}
}

func TestCodeAppliesTo(t *testing.T) {
	c, err := ParseCode("N5+F+E")
	if err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	family, _ := ResolveScope("F")
	work, _ := ResolveScope("W")
	if !c.AppliesTo(family) {
		t.Fatal("should apply to Family")
	}
	if c.AppliesTo(work) {
		t.Fatal("should not apply to Work")
	}

	unrestricted, _ := ParseCode("M3")
	if !unrestricted.AppliesTo(work) {
		t.Fatal("empty scope list applies everywhere")
	}
}

func TestCodeWithLevel(t *testing.T) {
	c, _ := ParseCode("M3")
	up, err := c.WithLevel(5)
	if err != nil {
		t.Fatalf("WithLevel: %v", err)
	}
	if up.Level != 5 || c.Level != 3 {
		t.Fatalf("WithLevel must copy: up=%d orig=%d", up.Level, c.Level)
	}
	if _, err := c.WithLevel(6); err == nil {
		t.Fatal("level 6 must be rejected")
	}
	if c.IsActive() != true {
		t.Fatal("level 3 is active")
	}
	zero, _ := c.WithLevel(0)
	if zero.IsActive() {
		t.Fatal("level 0 is disabled")
	}
}
