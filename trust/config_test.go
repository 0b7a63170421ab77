package trust

import (
	"testing"
	"time"
)

const registryJSON = `{
  "trust_anchors": {
    "creed.space": {
      "type": "issuer",
      "keys": [
        {
          "id": "key-2025-1",
          "algorithm": "ed25519",
          "public_key": "ed25519:AAAA",
          "state": "active",
          "valid_from": "2025-01-01T00:00:00Z",
          "valid_until": "2026-01-01T00:00:00Z"
        },
        {
          "id": "key-2024-9",
          "algorithm": "ed25519",
          "public_key": "ed25519:BBBB",
          "state": "retired",
          "valid_from": "2024-01-01T00:00:00Z",
          "valid_until": "2026-01-01T00:00:00Z"
        }
      ]
    },
    "audit.example": {
      "type": "auditor",
      "keys": [
        {
          "id": "aud-1",
          "algorithm": "ed25519",
          "public_key": "ed25519:CCCC",
          "state": "rotating",
          "valid_from": "2025-01-01T00:00:00Z",
          "valid_until": "2027-01-01T00:00:00Z"
        }
      ]
    }
  }
}`

const registryYAML = `
trust_anchors:
  creed.space:
    type: issuer
    keys:
      - id: key-2025-1
        algorithm: ed25519
        public_key: "ed25519:AAAA"
        state: active
        valid_from: "2025-01-01T00:00:00Z"
        valid_until: "2026-01-01T00:00:00Z"
`

func TestParseJSONRegistry(t *testing.T) {
	cfg, err := ParseJSON([]byte(registryJSON))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	mid := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a := cfg.IssuerKey("creed.space", "", mid)
	if a == nil {
		t.Fatal("expected an issuer anchor")
	}
	if a.KeyID != "key-2025-1" {
		t.Fatalf("retired key selected: %s", a.KeyID)
	}

	if cfg.IssuerKey("creed.space", "key-2024-9", mid) != nil {
		t.Fatal("retired anchor must never validate")
	}
	if cfg.IssuerKey("unknown.example", "", mid) != nil {
		t.Fatal("unknown issuer must return nil")
	}

	aud := cfg.AuditorKey("audit.example", "aud-1", mid)
	if aud == nil || aud.AnchorType != TypeAuditor {
		t.Fatalf("auditor anchor: %+v", aud)
	}
}

func TestParseYAMLRegistry(t *testing.T) {
	cfg, err := ParseYAML([]byte(registryYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if cfg.IssuerKey("creed.space", "key-2025-1", at) == nil {
		t.Fatal("expected anchor from YAML registry")
	}
}

func TestAnchorValidityWindow(t *testing.T) {
	a := &Anchor{
		State:      StateActive,
		ValidFrom:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), false},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := a.IsValidAt(tc.at); got != tc.want {
			t.Fatalf("IsValidAt(%v) = %v, want %v", tc.at, got, tc.want)
		}
	}

	for _, state := range []State{StateRetired, StateCompromised} {
		a.State = state
		if a.IsValidAt(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("%s anchor must not validate", state)
		}
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	cfg, err := ParseJSON([]byte(registryJSON))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	out, err := cfg.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	back, err := ParseJSON(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if back.IssuerKey("creed.space", "key-2025-1", at) == nil {
		t.Fatal("anchor lost in round trip")
	}
}
