package trust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the trusted issuer and auditor anchors.
type Config struct {
	Issuers  map[string][]*Anchor
	Auditors map[string][]*Anchor
}

func NewConfig() *Config {
	return &Config{
		Issuers:  map[string][]*Anchor{},
		Auditors: map[string][]*Anchor{},
	}
}

// AddIssuer registers a trusted issuer key.
func (c *Config) AddIssuer(entity string, a *Anchor) {
	a.Entity = entity
	a.AnchorType = TypeIssuer
	c.Issuers[entity] = append(c.Issuers[entity], a)
}

// AddAuditor registers a trusted auditor key.
func (c *Config) AddAuditor(entity string, a *Anchor) {
	a.Entity = entity
	a.AnchorType = TypeAuditor
	c.Auditors[entity] = append(c.Auditors[entity], a)
}

// IssuerKey returns the first valid issuer anchor for entity at the given
// time. A non-empty keyID restricts the search to that key.
func (c *Config) IssuerKey(entity, keyID string, at time.Time) *Anchor {
	return pickAnchor(c.Issuers[entity], keyID, at)
}

// AuditorKey returns the first valid auditor anchor for entity at the
// given time.
func (c *Config) AuditorKey(entity, keyID string, at time.Time) *Anchor {
	return pickAnchor(c.Auditors[entity], keyID, at)
}

func pickAnchor(anchors []*Anchor, keyID string, at time.Time) *Anchor {
	for _, a := range anchors {
		if keyID != "" && a.KeyID != keyID {
			continue
		}
		if a.IsValidAt(at) {
			return a
		}
	}
	return nil
}

// Wire format shared by the JSON and YAML registries.

type wireRegistry struct {
	TrustAnchors map[string]wireEntity `json:"trust_anchors" yaml:"trust_anchors"`
}

type wireEntity struct {
	Type string    `json:"type" yaml:"type"`
	Keys []wireKey `json:"keys" yaml:"keys"`
}

type wireKey struct {
	ID         string `json:"id" yaml:"id"`
	Algorithm  string `json:"algorithm" yaml:"algorithm"`
	PublicKey  string `json:"public_key" yaml:"public_key"`
	State      string `json:"state" yaml:"state"`
	ValidFrom  string `json:"valid_from" yaml:"valid_from"`
	ValidUntil string `json:"valid_until" yaml:"valid_until"`
}

// ParseJSON builds a Config from a JSON trust registry.
func ParseJSON(data []byte) (*Config, error) {
	var reg wireRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("trust registry: %w", err)
	}
	return fromWire(reg)
}

// ParseYAML builds a Config from a YAML trust registry.
func ParseYAML(data []byte) (*Config, error) {
	var reg wireRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("trust registry: %w", err)
	}
	return fromWire(reg)
}

// LoadFile reads a trust registry from disk, selecting the codec by file
// extension (.yaml/.yml for YAML, anything else JSON).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

func fromWire(reg wireRegistry) (*Config, error) {
	cfg := NewConfig()
	for entity, ent := range reg.TrustAnchors {
		entityType := TypeIssuer
		if ent.Type == string(TypeAuditor) {
			entityType = TypeAuditor
		}
		for _, k := range ent.Keys {
			from, err := parseAnchorTime(k.ValidFrom)
			if err != nil {
				return nil, fmt.Errorf("anchor %s/%s valid_from: %w", entity, k.ID, err)
			}
			until, err := parseAnchorTime(k.ValidUntil)
			if err != nil {
				return nil, fmt.Errorf("anchor %s/%s valid_until: %w", entity, k.ID, err)
			}
			state := State(k.State)
			if k.State == "" {
				state = StateActive
			}
			a := &Anchor{
				KeyID:      k.ID,
				Algorithm:  k.Algorithm,
				PublicKey:  k.PublicKey,
				ValidFrom:  from,
				ValidUntil: until,
				State:      state,
			}
			if entityType == TypeAuditor {
				cfg.AddAuditor(entity, a)
			} else {
				cfg.AddIssuer(entity, a)
			}
		}
	}
	return cfg, nil
}

func parseAnchorTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// Registries written by older tooling omit the timezone suffix.
	return time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(s, "Z"))
}

// MarshalJSON renders the registry back into its wire form.
func (c *Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toWire())
}

// MarshalYAML renders the registry into its YAML wire form.
func (c *Config) MarshalYAML() (any, error) {
	return c.toWire(), nil
}

func (c *Config) toWire() wireRegistry {
	reg := wireRegistry{TrustAnchors: map[string]wireEntity{}}
	emit := func(entity string, anchors []*Anchor, typ Type) {
		ent := wireEntity{Type: string(typ)}
		for _, a := range anchors {
			ent.Keys = append(ent.Keys, wireKey{
				ID:         a.KeyID,
				Algorithm:  a.Algorithm,
				PublicKey:  a.PublicKey,
				State:      string(a.State),
				ValidFrom:  a.ValidFrom.UTC().Format(time.RFC3339),
				ValidUntil: a.ValidUntil.UTC().Format(time.RFC3339),
			})
		}
		reg.TrustAnchors[entity] = ent
	}
	for entity, anchors := range c.Issuers {
		emit(entity, anchors, TypeIssuer)
	}
	for entity, anchors := range c.Auditors {
		emit(entity, anchors, TypeAuditor)
	}
	return reg
}
