package csm1

import (
	"strconv"
	"strings"

	"creed.space/vcp/vcperr"
)

// Code is a parsed compact constitutional code.
//
// Grammar:
//
//	code      = persona level *("+" scope) [":" namespace] ["@" version]
//	persona   = "N" / "Z" / "G" / "A" / "M" / "D" / "C"
//	level     = "0" / "1" / "2" / "3" / "4" / "5"
//	scope     = "F" / "W" / "E" / "H" / "I" / "L" / "P" / "S" / "A" / "V" / "G" / "R"
//	namespace = UPALPHA *(UPALPHA / DIGIT)
//	version   = 1*DIGIT "." 1*DIGIT "." 1*DIGIT
//
// Examples: "N5+F+E", "Z3+P:SEC", "G4:ELEM", "M2@1.0.0".
type Code struct {
	Persona   PersonaIdentity
	Level     int
	Scopes    []ScopeIdentity
	Namespace string
	Version   string
}

const (
	MinLevel = 0
	MaxLevel = 5
)

// ParseCode parses a compact code string. Input is case-insensitive in
// the persona and scope letters; namespaces are upper-cased.
func ParseCode(raw string) (*Code, error) {
	if raw == "" {
		return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-001", "code cannot be empty")
	}
	s := strings.ToUpper(raw)

	// Trailing @version.
	version := ""
	if i := strings.IndexByte(s, '@'); i >= 0 {
		version = s[i+1:]
		s = s[:i]
		if !validVersion(version) {
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-002", "invalid version in code "+raw)
		}
	}

	// Trailing :namespace.
	namespace := ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		namespace = s[i+1:]
		s = s[:i]
		if !validNamespace(namespace) {
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-003", "invalid namespace in code "+raw)
		}
	}

	if len(s) < 2 {
		return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-004", "invalid code "+raw)
	}

	persona, err := ResolvePersona(s[:1], EpochCurrent)
	if err != nil {
		return nil, err
	}
	level := int(s[1] - '0')
	if s[1] < '0' || s[1] > '5' {
		return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-005", "adherence level out of range in code "+raw)
	}

	var scopeIDs []ScopeIdentity
	rest := s[2:]
	for rest != "" {
		if rest[0] != '+' || len(rest) < 2 {
			return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-006", "invalid scope list in code "+raw)
		}
		scope, err := ResolveScope(rest[1:2])
		if err != nil {
			return nil, err
		}
		scopeIDs = append(scopeIDs, scope)
		rest = rest[2:]
	}

	return &Code{
		Persona:   persona,
		Level:     level,
		Scopes:    scopeIDs,
		Namespace: namespace,
		Version:   version,
	}, nil
}

// Encode renders the code back to its compact string form.
func (c *Code) Encode() string {
	var sb strings.Builder
	sb.WriteString(c.Persona.Code)
	sb.WriteString(strconv.Itoa(c.Level))
	for _, s := range c.Scopes {
		sb.WriteByte('+')
		sb.WriteString(s.Code)
	}
	if c.Namespace != "" {
		sb.WriteByte(':')
		sb.WriteString(c.Namespace)
	}
	if c.Version != "" {
		sb.WriteByte('@')
		sb.WriteString(c.Version)
	}
	return sb.String()
}

func (c *Code) String() string { return c.Encode() }

// AppliesTo reports whether the code applies in a scope. An empty scope
// list means unrestricted.
func (c *Code) AppliesTo(scope ScopeIdentity) bool {
	if len(c.Scopes) == 0 {
		return true
	}
	for _, s := range c.Scopes {
		if s.Code == scope.Code {
			return true
		}
	}
	return false
}

// WithLevel returns a copy at a different adherence level.
func (c *Code) WithLevel(level int) (*Code, error) {
	if level < MinLevel || level > MaxLevel {
		return nil, vcperr.New(vcperr.KindTokenGrammar, "VCP-CODE-005", "adherence level out of range")
	}
	out := *c
	out.Level = level
	out.Scopes = append([]ScopeIdentity(nil), c.Scopes...)
	return &out, nil
}

// IsActive reports whether the code is enabled (level above zero).
func (c *Code) IsActive() bool { return c.Level > MinLevel }

func validNamespace(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		ch := s[i]
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

func validVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
	}
	return true
}
