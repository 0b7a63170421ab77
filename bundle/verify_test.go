package bundle

import (
	"crypto/ed25519"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"creed.space/vcp/keys"
	"creed.space/vcp/trust"
	"creed.space/vcp/vcperr"
)

func seedOf(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func buildTestBundle(t *testing.T, content string) (*Bundle, string) {
	t.Helper()
	issuerSeed := seedOf(0x01)
	auditorSeed := seedOf(0x02)
	issuerPriv := ed25519.NewKeyFromSeed(issuerSeed)
	auditorPriv := ed25519.NewKeyFromSeed(auditorSeed)
	issuerPub := keys.PublicKeyFromSeed(issuerSeed)

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	b, err := NewBuilder("creed.space/constitutions/learning", "1.2.0").
		WithContent(content).
		WithIssuer("creed.space", issuerPub, "key-2026-1").
		WithAuditor("audit.example", "aud-1", "injection_safe").
		WithClock(func() time.Time { return fixed }).
		Build(
			func(msg []byte) (string, error) { return keys.SignEd25519(msg, issuerPriv), nil },
			func(msg []byte) (string, error) { return keys.SignEd25519(msg, auditorPriv), nil },
		)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return b, issuerPub
}

func TestBuildAndVerify(t *testing.T) {
	b, _ := buildTestBundle(t, "# Learning Constitution\n\nBe patient.\n")

	att, err := Verify(b)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if att.Issuer != "creed.space" || att.KeyID != "key-2026-1" || att.Algorithm != "ed25519" {
		t.Fatalf("attestation: %+v", att)
	}
	if !strings.HasPrefix(att.ContentDigest, "sha256:") {
		t.Fatalf("digest: %s", att.ContentDigest)
	}
	if !strings.HasPrefix(att.ContentCID, "bafkrei") {
		t.Fatalf("cid: %s", att.ContentCID)
	}
}

func TestVerifySurvivesEnvelopeRoundTrip(t *testing.T) {
	b, _ := buildTestBundle(t, "content line\n")
	enc, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Parse(enc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Verify(back); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}
}

func TestVerifyNonCanonicalContentStillMatches(t *testing.T) {
	// Hash is computed over canonical bytes, so CRLF and trailing
	// whitespace variants of the same content must verify.
	b, _ := buildTestBundle(t, "line one\nline two\n")
	b.Content = "line one\r\nline two  \r\n\r\n"
	if _, err := Verify(b); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyTamperedContent(t *testing.T) {
	b, _ := buildTestBundle(t, "original\n")
	b.Content = "tampered\n"
	_, err := Verify(b)
	if err == nil {
		t.Fatal("expected digest mismatch")
	}
	if !vcperr.IsKind(err, vcperr.KindDigestMismatch) {
		t.Fatalf("kind = %v, want DigestMismatch", err)
	}
}

func TestVerifyTamperedManifest(t *testing.T) {
	b, _ := buildTestBundle(t, "original\n")

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b.RawManifest(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m["metadata"] = json.RawMessage(`{"injected":true}`)
	raw, _ := json.Marshal(m)

	env, _ := json.Marshal(map[string]any{"manifest": json.RawMessage(raw), "content": b.Content})
	tampered, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Verify(tampered)
	if err == nil {
		t.Fatal("expected signature failure")
	}
	if !vcperr.IsKind(err, vcperr.KindSignatureInvalid) {
		t.Fatalf("kind = %v, want SignatureInvalid", err)
	}
}

func TestVerifyCheckOrder(t *testing.T) {
	// A bundle that is malformed AND has a bad digest AND a bad signature
	// must report malformation, the first check.
	b, _ := buildTestBundle(t, "original\n")
	b.Manifest.Issuer.ID = ""
	b.Content = "also wrong\n"
	_, err := Verify(b)
	if !vcperr.IsKind(err, vcperr.KindMalformedManifest) {
		t.Fatalf("kind = %v, want MalformedManifest first", err)
	}

	// Well-formed with bad digest and bad signature reports the digest.
	b2, _ := buildTestBundle(t, "original\n")
	b2.Content = "wrong\n"
	b2.Manifest.Signature.Value = "base64:AAAA"
	_, err = Verify(b2)
	if !vcperr.IsKind(err, vcperr.KindDigestMismatch) {
		t.Fatalf("kind = %v, want DigestMismatch second", err)
	}
}

func TestVerifyAlgorithmMismatch(t *testing.T) {
	b, _ := buildTestBundle(t, "original\n")

	var m map[string]json.RawMessage
	if err := json.Unmarshal(b.RawManifest(), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var sig map[string]any
	_ = json.Unmarshal(m["signature"], &sig)
	sig["algorithm"] = "dilithium3"
	m["signature"], _ = json.Marshal(sig)
	raw, _ := json.Marshal(m)
	env, _ := json.Marshal(map[string]any{"manifest": json.RawMessage(raw), "content": b.Content})

	tampered, err := Parse(env)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Verify(tampered)
	if !vcperr.IsKind(err, vcperr.KindSignatureInvalid) {
		t.Fatalf("kind = %v, want SignatureInvalid", err)
	}
}

func TestVerifyTrusted(t *testing.T) {
	b, issuerPub := buildTestBundle(t, "trusted content\n")
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cfg := trust.NewConfig()
	cfg.AddIssuer("creed.space", &trust.Anchor{
		KeyID:      "key-2026-1",
		Algorithm:  keys.AlgEd25519,
		PublicKey:  issuerPub,
		State:      trust.StateActive,
		ValidFrom:  at.Add(-24 * time.Hour),
		ValidUntil: at.Add(24 * time.Hour),
	})
	kc := trust.NewKeyCache(cfg)

	if _, err := VerifyTrusted(b, kc, at); err != nil {
		t.Fatalf("VerifyTrusted: %v", err)
	}

	// Unknown issuer.
	empty := trust.NewKeyCache(trust.NewConfig())
	if _, err := VerifyTrusted(b, empty, at); err == nil {
		t.Fatal("expected untrusted issuer to fail")
	}

	// Anchor key differs from manifest key.
	other := trust.NewConfig()
	other.AddIssuer("creed.space", &trust.Anchor{
		KeyID:      "key-2026-1",
		Algorithm:  keys.AlgEd25519,
		PublicKey:  keys.PublicKeyFromSeed(seedOf(0x09)),
		State:      trust.StateActive,
		ValidFrom:  at.Add(-24 * time.Hour),
		ValidUntil: at.Add(24 * time.Hour),
	})
	if _, err := VerifyTrusted(b, trust.NewKeyCache(other), at); err == nil {
		t.Fatal("expected anchor mismatch to fail")
	}
}

func TestValidateWindow(t *testing.T) {
	b, _ := buildTestBundle(t, "windowed\n")
	issued := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := b.Manifest.ValidateWindow(issued.Add(time.Hour), time.Minute); err != nil {
		t.Fatalf("inside window: %v", err)
	}
	if err := b.Manifest.ValidateWindow(issued.Add(-time.Hour), time.Minute); err == nil {
		t.Fatal("before nbf must fail")
	}
	if err := b.Manifest.ValidateWindow(issued.Add(8*24*time.Hour), time.Minute); err == nil {
		t.Fatal("after exp must fail")
	}
	// Skew tolerance.
	if err := b.Manifest.ValidateWindow(issued.Add(-30*time.Second), time.Minute); err != nil {
		t.Fatalf("within skew: %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not json", `{"content":"x"}`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Fatalf("Parse(%q): expected error", in)
		}
	}
}
