package bundle

import (
	"time"

	"creed.space/vcp/canonical"
	"creed.space/vcp/cidutil"
	"creed.space/vcp/keys"
	"creed.space/vcp/trust"
	"creed.space/vcp/vcperr"
)

// Attestation is the successful result of bundle verification: the digest
// and CID that were checked, and who vouched for them.
type Attestation struct {
	ContentDigest string
	ContentCID    string
	Issuer        string
	KeyID         string
	Algorithm     string
}

// Verify runs the fixed verification order over a bundle:
//
//  1. manifest well-formedness
//  2. content digest against bundle.content_hash
//  3. issuer signature over the canonical manifest bytes
//
// The first failing check is returned and later checks do not run.
// On success the returned Attestation records what was verified.
func Verify(b *Bundle) (*Attestation, error) {
	if b == nil {
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-BUNDLE-004", "nil bundle")
	}

	// 1. Well-formedness.
	if err := b.Manifest.checkWellFormed(); err != nil {
		return nil, err
	}

	// 2. Content digest.
	content, err := canonical.Content(b.Content)
	if err != nil {
		return nil, err
	}
	if err := cidutil.VerifyDigest(content, b.Manifest.Bundle.ContentHash); err != nil {
		return nil, err
	}

	// 3. Issuer signature over the canonical manifest bytes.
	canonicalManifest, err := canonical.Manifest(b.raw)
	if err != nil {
		return nil, err
	}
	if b.Manifest.Signature.Algorithm != splitAlg(b.Manifest.Issuer.PublicKey) {
		return nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-021",
			"signature algorithm does not match issuer key algorithm")
	}
	if err := keys.Verify(b.Manifest.Issuer.PublicKey, b.Manifest.SignatureValue(), canonicalManifest); err != nil {
		return nil, err
	}

	return &Attestation{
		ContentDigest: b.Manifest.Bundle.ContentHash,
		ContentCID:    cidutil.CIDv1RawSHA256(content),
		Issuer:        b.Manifest.Issuer.ID,
		KeyID:         b.Manifest.Issuer.KeyID,
		Algorithm:     b.Manifest.Signature.Algorithm,
	}, nil
}

// VerifyTrusted is Verify plus an issuer trust check: the manifest's
// issuer and key id must resolve to a currently valid trust anchor, and
// the anchor's key must match the manifest's embedded key.
func VerifyTrusted(b *Bundle, kc *trust.KeyCache, at time.Time) (*Attestation, error) {
	att, err := Verify(b)
	if err != nil {
		return nil, err
	}

	anchor := kc.Config().IssuerKey(b.Manifest.Issuer.ID, b.Manifest.Issuer.KeyID, at)
	if anchor == nil {
		return nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-TRUST-003",
			"no valid trust anchor for issuer "+b.Manifest.Issuer.ID)
	}
	if _, _, err := kc.PublicKey(anchor); err != nil {
		return nil, err
	}
	if anchor.PublicKey != b.Manifest.Issuer.PublicKey {
		return nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-TRUST-004",
			"manifest issuer key does not match trust anchor")
	}
	return att, nil
}

func splitAlg(publicKey string) string {
	for i := 0; i < len(publicKey); i++ {
		if publicKey[i] == ':' {
			return publicKey[:i]
		}
	}
	return ""
}
