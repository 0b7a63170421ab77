package csm1

import (
	"testing"

	"creed.space/vcp/vcperr"
)

func TestResolvePersonaCurrentEpoch(t *testing.T) {
	want := map[string]string{
		"N": "Nanny",
		"Z": "Sentinel",
		"G": "Godparent",
		"A": "Ambassador",
		"M": "Muse",
		"D": "Mediator",
		"C": "Custom",
	}
	for code, name := range want {
		p, err := ResolvePersona(code, EpochCurrent)
		if err != nil {
			t.Fatalf("ResolvePersona(%s): %v", code, err)
		}
		if p.Name != name {
			t.Fatalf("ResolvePersona(%s) = %s, want %s", code, p.Name, name)
		}
	}
}

func TestResolvePersonaRetiredCodes(t *testing.T) {
	for _, code := range []string{"R", "H"} {
		_, err := ResolvePersona(code, EpochCurrent)
		if err == nil {
			t.Fatalf("ResolvePersona(%s, current): expected error", code)
		}
		if !vcperr.IsKind(err, vcperr.KindDeprecatedPersonaCode) {
			t.Fatalf("ResolvePersona(%s, current): kind = %v, want DeprecatedPersonaCode", code, err)
		}

		p, err := ResolvePersona(code, EpochLegacy)
		if err != nil {
			t.Fatalf("ResolvePersona(%s, legacy): %v", code, err)
		}
		if p.Name == "" {
			t.Fatalf("ResolvePersona(%s, legacy): empty identity", code)
		}
	}
}

func TestResolvePersonaUnknown(t *testing.T) {
	_, err := ResolvePersona("Q", EpochCurrent)
	if !vcperr.IsKind(err, vcperr.KindTokenGrammar) {
		t.Fatalf("kind = %v, want TokenGrammarError", err)
	}
}

func TestNamespacesAreDisjointLookups(t *testing.T) {
	// H is a retired persona but a valid Healthcare scope; R is a retired
	// persona but a valid Research scope. The same letter must resolve
	// differently per table, never against both at once.
	for code, scopeName := range map[string]string{"H": "Healthcare", "R": "Research"} {
		if _, err := ResolvePersona(code, EpochCurrent); err == nil {
			t.Fatalf("persona table must reject %s under current epoch", code)
		}
		s, err := ResolveScope(code)
		if err != nil {
			t.Fatalf("ResolveScope(%s): %v", code, err)
		}
		if s.Name != scopeName {
			t.Fatalf("ResolveScope(%s) = %s, want %s", code, s.Name, scopeName)
		}
	}
}

func TestResolveScopeTable(t *testing.T) {
	for _, code := range []string{"F", "W", "E", "H", "I", "L", "P", "S", "A", "V", "G", "R"} {
		if _, err := ResolveScope(code); err != nil {
			t.Fatalf("ResolveScope(%s): %v", code, err)
		}
	}
	if _, err := ResolveScope("X"); err == nil {
		t.Fatal("unknown scope must error")
	}
}

func TestPersonaByName(t *testing.T) {
	p, ok := PersonaByName("muse")
	if !ok || p.Code != "M" {
		t.Fatalf("PersonaByName(muse) = %+v, %v", p, ok)
	}
	if _, ok := PersonaByName("anchor"); ok {
		t.Fatal("retired persona must not resolve by name")
	}
}
