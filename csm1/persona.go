package csm1

import (
	"strings"

	"creed.space/vcp/vcperr"
)

// Epoch selects which persona table a code resolves against. The legacy
// epoch predates the persona-set migration that retired Anchor and
// Hot-Rod; their letters were later freed for the scope table.
type Epoch string

const (
	EpochLegacy  Epoch = "legacy"
	EpochCurrent Epoch = "current"
)

// PersonaIdentity is a resolved persona.
type PersonaIdentity struct {
	Code        string
	Name        string
	Description string
}

// ScopeIdentity is a resolved context scope.
type ScopeIdentity struct {
	Code        string
	Name        string
	Description string
}

var currentPersonas = map[string]PersonaIdentity{
	"N": {Code: "N", Name: "Nanny", Description: "Child safety specialist"},
	"Z": {Code: "Z", Name: "Sentinel", Description: "Security and privacy guardian"},
	"G": {Code: "G", Name: "Godparent", Description: "Ethical guidance counselor"},
	"A": {Code: "A", Name: "Ambassador", Description: "Professional conduct advisor"},
	"M": {Code: "M", Name: "Muse", Description: "Creative challenge and provocation"},
	"D": {Code: "D", Name: "Mediator", Description: "Fair resolution and balanced governance"},
	"C": {Code: "C", Name: "Custom", Description: "User-defined persona"},
}

// legacyOnlyPersonas resolve under EpochLegacy and fail with
// DeprecatedPersonaCode under EpochCurrent.
var legacyOnlyPersonas = map[string]PersonaIdentity{
	"R": {Code: "R", Name: "Anchor", Description: "Grounding and stability counsel"},
	"H": {Code: "H", Name: "Hot-Rod", Description: "High-risk acceleration mode"},
}

var scopes = map[string]ScopeIdentity{
	"F": {Code: "F", Name: "Family", Description: "Family and parenting"},
	"W": {Code: "W", Name: "Work", Description: "Professional workplace"},
	"E": {Code: "E", Name: "Education", Description: "Learning and academic"},
	"H": {Code: "H", Name: "Healthcare", Description: "Medical and health"},
	"I": {Code: "I", Name: "Finance", Description: "Financial and investment"},
	"L": {Code: "L", Name: "Legal", Description: "Legal and compliance"},
	"P": {Code: "P", Name: "Privacy", Description: "Privacy and data protection"},
	"S": {Code: "S", Name: "Safety", Description: "Physical safety"},
	"A": {Code: "A", Name: "Accessibility", Description: "Accessibility and inclusion"},
	"V": {Code: "V", Name: "Environment", Description: "Environmental"},
	"G": {Code: "G", Name: "General", Description: "General purpose"},
	"R": {Code: "R", Name: "Research", Description: "Research and experimentation"},
}

// ResolvePersona looks a single-letter code up in the persona table for
// the given epoch. Codes retired by the persona-set migration resolve
// under EpochLegacy but yield DeprecatedPersonaCode under EpochCurrent.
func ResolvePersona(code string, epoch Epoch) (PersonaIdentity, error) {
	if p, ok := currentPersonas[code]; ok {
		return p, nil
	}
	if p, ok := legacyOnlyPersonas[code]; ok {
		if epoch == EpochLegacy {
			return p, nil
		}
		return PersonaIdentity{}, vcperr.New(vcperr.KindDeprecatedPersonaCode, "VCP-PERSONA-001",
			"persona code "+code+" ("+p.Name+") is retired; resolve it as a scope or use the legacy epoch")
	}
	return PersonaIdentity{}, vcperr.New(vcperr.KindTokenGrammar, "VCP-PERSONA-002", "unknown persona code "+code)
}

// ResolveScope looks a single-letter code up in the scope table. The
// scope table is epoch-independent.
func ResolveScope(code string) (ScopeIdentity, error) {
	if s, ok := scopes[code]; ok {
		return s, nil
	}
	return ScopeIdentity{}, vcperr.New(vcperr.KindTokenGrammar, "VCP-SCOPE-001", "unknown scope code "+code)
}

// PersonaByName resolves a lowercase persona name ("muse") to its
// current-epoch identity.
func PersonaByName(name string) (PersonaIdentity, bool) {
	for _, p := range currentPersonas {
		if strings.ToLower(p.Name) == name {
			return p, true
		}
	}
	return PersonaIdentity{}, false
}
