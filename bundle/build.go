package bundle

import (
	"time"

	"github.com/google/uuid"

	"creed.space/vcp/canonical"
	"creed.space/vcp/cidutil"
	"creed.space/vcp/vcperr"
)

// SignFunc signs a message and returns a base64 signature.
type SignFunc func(message []byte) (string, error)

// CountTokensFunc estimates the token cost of content under a tokenizer.
type CountTokensFunc func(content, tokenizer string) int

// Builder assembles a signed bundle. Signing happens through caller
// callbacks so private keys never enter this package.
type Builder struct {
	bundleID string
	version  string

	content         string
	issuerID        string
	issuerPublicKey string
	issuerKeyID     string

	auditor         string
	auditorKeyID    string
	attestationType string

	tokenizer       string
	maxContextShare float64
	countTokens     CountTokensFunc

	scope       *Scope
	composition *Composition
	revocation  map[string]any
	metadata    map[string]any

	expiresIn time.Duration
	now       func() time.Time
}

func NewBuilder(bundleID, version string) *Builder {
	return &Builder{
		bundleID:        bundleID,
		version:         version,
		attestationType: "injection_safe",
		tokenizer:       DefaultTokenizer,
		maxContextShare: DefaultMaxContext,
		expiresIn:       7 * 24 * time.Hour,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (b *Builder) WithContent(content string) *Builder {
	b.content = content
	return b
}

func (b *Builder) WithIssuer(id, publicKey, keyID string) *Builder {
	b.issuerID = id
	b.issuerPublicKey = publicKey
	b.issuerKeyID = keyID
	return b
}

func (b *Builder) WithAuditor(auditor, keyID, attestationType string) *Builder {
	b.auditor = auditor
	b.auditorKeyID = keyID
	if attestationType != "" {
		b.attestationType = attestationType
	}
	return b
}

func (b *Builder) WithBudget(tokenizer string, maxContextShare float64, count CountTokensFunc) *Builder {
	b.tokenizer = tokenizer
	b.maxContextShare = maxContextShare
	b.countTokens = count
	return b
}

func (b *Builder) WithScope(s *Scope) *Builder {
	b.scope = s
	return b
}

func (b *Builder) WithComposition(c *Composition) *Builder {
	b.composition = c
	return b
}

func (b *Builder) WithRevocation(checkURI, crlURI string) *Builder {
	b.revocation = map[string]any{"check_uri": checkURI}
	if crlURI != "" {
		b.revocation["crl_uri"] = crlURI
	}
	return b
}

func (b *Builder) WithMetadata(m map[string]any) *Builder {
	b.metadata = m
	return b
}

func (b *Builder) WithExpiry(d time.Duration) *Builder {
	b.expiresIn = d
	return b
}

// WithClock overrides the builder's time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build assembles, canonicalizes, and signs the bundle.
func (b *Builder) Build(signManifest, signAttestation SignFunc) (*Bundle, error) {
	if b.content == "" {
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-BUILD-001", "content is required")
	}
	if b.issuerID == "" || b.issuerPublicKey == "" || b.issuerKeyID == "" {
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-BUILD-002", "issuer information is required")
	}
	if b.auditor == "" || b.auditorKeyID == "" {
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-BUILD-003", "auditor information is required")
	}

	now := b.now()
	stamp := now.Format(time.RFC3339)

	canonicalContent, err := canonical.Content(b.content)
	if err != nil {
		return nil, err
	}
	contentHash := cidutil.DigestSHA256(canonicalContent)

	tokenCount := len(b.content) / 4
	if b.countTokens != nil {
		tokenCount = b.countTokens(b.content, b.tokenizer)
	}

	attestationPayload := map[string]any{
		"auditor":          b.auditor,
		"auditor_key_id":   b.auditorKeyID,
		"reviewed_at":      stamp,
		"attestation_type": b.attestationType,
		"content_hash":     contentHash,
	}
	attestationBytes, err := canonical.ManifestValue(attestationPayload)
	if err != nil {
		return nil, err
	}
	attestationSig, err := signAttestation(attestationBytes)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-BUILD-004", "attestation signing failed", err)
	}

	signedFields := []string{"vcp_version", "bundle", "issuer", "timestamps", "budget", "safety_attestation"}
	if b.scope != nil {
		signedFields = append(signedFields, "scope")
	}
	if b.composition != nil {
		signedFields = append(signedFields, "composition")
	}
	if b.revocation != nil {
		signedFields = append(signedFields, "revocation")
	}
	if b.metadata != nil {
		signedFields = append(signedFields, "metadata")
	}

	m := Manifest{
		VCPVersion: Version,
		Bundle: Info{
			ID:              b.bundleID,
			Version:         b.version,
			ContentHash:     contentHash,
			ContentEncoding: DefaultEncoding,
			ContentFormat:   DefaultFormat,
		},
		Issuer: Issuer{
			ID:        b.issuerID,
			PublicKey: b.issuerPublicKey,
			KeyID:     b.issuerKeyID,
		},
		Timestamps: Timestamps{
			IssuedAt:  stamp,
			NotBefore: stamp,
			Expires:   now.Add(b.expiresIn).Format(time.RFC3339),
			JTI:       uuid.NewString(),
		},
		Budget: &Budget{
			TokenCount:      tokenCount,
			Tokenizer:       b.tokenizer,
			MaxContextShare: b.maxContextShare,
		},
		SafetyAttestation: &SafetyAttestation{
			Auditor:         b.auditor,
			AuditorKeyID:    b.auditorKeyID,
			ReviewedAt:      stamp,
			AttestationType: b.attestationType,
			Signature:       "base64:" + attestationSig,
		},
		Signature: Signature{
			Algorithm:    "ed25519",
			SignedFields: signedFields,
		},
		Scope:       b.scope,
		Composition: b.composition,
		Revocation:  b.revocation,
		Metadata:    b.metadata,
	}

	// The canonical form drops the signature block entirely, so the
	// placeholder value never reaches the signer.
	toSign, err := canonical.ManifestValue(m)
	if err != nil {
		return nil, err
	}
	sig, err := signManifest(toSign)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-BUILD-005", "manifest signing failed", err)
	}
	m.Signature.Value = "base64:" + sig

	return NewBundle(m, b.content)
}
