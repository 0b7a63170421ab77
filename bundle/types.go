package bundle

import (
	"encoding/json"
	"strings"
	"time"

	"creed.space/vcp/vcperr"
)

// Wire constants.
const (
	Version           = "1.0"
	DefaultEncoding   = "utf-8"
	DefaultFormat     = "text/markdown"
	DefaultTokenizer  = "cl100k_base"
	DefaultMaxContext = 0.25
)

// Info identifies the constitution carried by a bundle.
type Info struct {
	ID              string `json:"id"`
	Version         string `json:"version"`
	ContentHash     string `json:"content_hash"`
	ContentEncoding string `json:"content_encoding,omitempty"`
	ContentFormat   string `json:"content_format,omitempty"`
}

// Issuer identifies who signed the manifest.
type Issuer struct {
	ID        string `json:"id"`
	PublicKey string `json:"public_key"`
	KeyID     string `json:"key_id"`
}

// Timestamps carry issuance and validity times as RFC 3339 strings, plus
// a unique token id for replay tracking.
type Timestamps struct {
	IssuedAt  string `json:"iat"`
	NotBefore string `json:"nbf"`
	Expires   string `json:"exp"`
	JTI       string `json:"jti"`
}

// Budget declares the token cost of injecting the constitution.
type Budget struct {
	TokenCount      int     `json:"token_count"`
	Tokenizer       string  `json:"tokenizer"`
	MaxContextShare float64 `json:"max_context_share"`
}

// SafetyAttestation records an auditor's review of the content.
type SafetyAttestation struct {
	Auditor         string `json:"auditor"`
	AuditorKeyID    string `json:"auditor_key_id"`
	ReviewedAt      string `json:"reviewed_at"`
	AttestationType string `json:"attestation_type"`
	Signature       string `json:"signature"`
}

// Signature is the issuer signature block. Value may carry a "base64:"
// prefix on the wire.
type Signature struct {
	Algorithm    string   `json:"algorithm"`
	Value        string   `json:"value"`
	SignedFields []string `json:"signed_fields,omitempty"`
	Threshold    int      `json:"threshold,omitempty"`
	Signers      []string `json:"signers,omitempty"`
}

// Scope restricts where a bundle applies.
type Scope struct {
	ModelFamilies []string `json:"model_families,omitempty"`
	Purposes      []string `json:"purposes,omitempty"`
	Environments  []string `json:"environments,omitempty"`
	Audiences     []string `json:"audiences,omitempty"`
	Regions       []string `json:"regions,omitempty"`
}

// Composition declares how the bundle combines with others.
type Composition struct {
	Layer         int      `json:"layer"`
	Mode          string   `json:"mode"`
	ConflictsWith []string `json:"conflicts_with,omitempty"`
	Requires      []string `json:"requires,omitempty"`
}

// Manifest is the signed header of a bundle.
type Manifest struct {
	VCPVersion        string             `json:"vcp_version"`
	Bundle            Info               `json:"bundle"`
	Issuer            Issuer             `json:"issuer"`
	Timestamps        Timestamps         `json:"timestamps"`
	Budget            *Budget            `json:"budget,omitempty"`
	SafetyAttestation *SafetyAttestation `json:"safety_attestation,omitempty"`
	Signature         Signature          `json:"signature"`
	Scope             *Scope             `json:"scope,omitempty"`
	Composition       *Composition       `json:"composition,omitempty"`
	Revocation        map[string]any     `json:"revocation,omitempty"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
}

// Bundle pairs a manifest with constitution content. raw holds the
// manifest JSON exactly as received, so canonicalization and signature
// checks operate on the issuer's bytes, not a re-encoding.
type Bundle struct {
	Manifest Manifest
	Content  string

	raw json.RawMessage
}

// RawManifest returns the manifest JSON as received.
func (b *Bundle) RawManifest() json.RawMessage {
	return b.raw
}

type wireBundle struct {
	Manifest json.RawMessage `json:"manifest"`
	Content  string          `json:"content"`
}

// Parse decodes a bundle from its JSON envelope {"manifest":..., "content":...}.
func Parse(data []byte) (*Bundle, error) {
	var w wireBundle
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-BUNDLE-001", "bundle is not valid JSON", err)
	}
	if len(w.Manifest) == 0 {
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-BUNDLE-002", "bundle has no manifest")
	}
	m, err := ParseManifest(w.Manifest)
	if err != nil {
		return nil, err
	}
	return &Bundle{Manifest: *m, Content: w.Content, raw: w.Manifest}, nil
}

// NewBundle wraps an in-memory manifest and content, capturing the
// manifest's JSON encoding for canonicalization.
func NewBundle(m Manifest, content string) (*Bundle, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-BUNDLE-003", "manifest is not JSON-encodable", err)
	}
	return &Bundle{Manifest: m, Content: content, raw: raw}, nil
}

// ParseManifest decodes manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-010", "manifest does not decode", err)
	}
	return &m, nil
}

// MarshalJSON renders the bundle envelope.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireBundle{Manifest: b.raw, Content: b.Content})
}

// SignatureValue returns the signature with any "base64:" prefix stripped.
func (m *Manifest) SignatureValue() string {
	return strings.TrimPrefix(m.Signature.Value, "base64:")
}

// checkWellFormed enforces the structural manifest invariants before any
// cryptographic work happens.
func (m *Manifest) checkWellFormed() error {
	switch {
	case m.VCPVersion == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-101", "missing vcp_version")
	case m.Bundle.ID == "" || m.Bundle.Version == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-102", "missing bundle id or version")
	case m.Bundle.ContentHash == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-103", "missing bundle content_hash")
	case m.Issuer.ID == "" || m.Issuer.PublicKey == "" || m.Issuer.KeyID == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-104", "incomplete issuer block")
	case m.Timestamps.IssuedAt == "" || m.Timestamps.Expires == "" || m.Timestamps.JTI == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-105", "incomplete timestamps block")
	case m.Signature.Algorithm == "" || m.Signature.Value == "":
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-106", "incomplete signature block")
	}
	return nil
}

// ValidateWindow checks nbf/exp against the given time with a small
// clock-skew allowance. It is not part of the fixed verification order;
// callers decide when temporal validity matters.
func (m *Manifest) ValidateWindow(at time.Time, skew time.Duration) error {
	if m.Timestamps.NotBefore != "" {
		nbf, err := parseManifestTime(m.Timestamps.NotBefore)
		if err != nil {
			return vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-107", "invalid nbf timestamp", err)
		}
		if at.Add(skew).Before(nbf) {
			return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-108", "bundle not yet valid")
		}
	}
	exp, err := parseManifestTime(m.Timestamps.Expires)
	if err != nil {
		return vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-107", "invalid exp timestamp", err)
	}
	if at.After(exp.Add(skew)) {
		return vcperr.New(vcperr.KindMalformedManifest, "VCP-MANIFEST-109", "bundle expired")
	}
	return nil
}

func parseManifestTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(s, "Z"))
}
