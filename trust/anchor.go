// Package trust manages trust anchors for bundle issuers and auditors.
//
// A trust anchor binds an entity identifier to a public key with an
// algorithm, a lifecycle state, and a validity window. Verifiers consult
// the anchor registry to decide which keys may sign manifests; anchors in
// retired or compromised state never validate, regardless of window.
package trust

import "time"

// State is the lifecycle state of a trust anchor.
type State string

const (
	StateActive      State = "active"
	StateRotating    State = "rotating"
	StateRetired     State = "retired"
	StateCompromised State = "compromised"
)

// Type distinguishes issuer anchors from auditor anchors.
type Type string

const (
	TypeIssuer  Type = "issuer"
	TypeAuditor Type = "auditor"
)

// Anchor is a trusted public key for an issuer or auditor.
type Anchor struct {
	Entity     string
	KeyID      string
	Algorithm  string
	PublicKey  string
	AnchorType Type
	ValidFrom  time.Time
	ValidUntil time.Time
	State      State
}

// IsValidAt reports whether the anchor may be used at the given time.
// Only active and rotating anchors validate, and only inside their window.
func (a *Anchor) IsValidAt(at time.Time) bool {
	if a == nil {
		return false
	}
	if a.State != StateActive && a.State != StateRotating {
		return false
	}
	return !at.Before(a.ValidFrom) && !at.After(a.ValidUntil)
}
