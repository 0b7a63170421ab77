// Command vcp_vector_gen regenerates the reference values embedded in the
// conformance fixtures under conformance/testdata. It derives a keypair from
// a fixed seed byte, prints the canonical form, digest, and CID for the
// reference content samples, and emits a fully signed sample bundle.
package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"creed.space/vcp/bundle"
	"creed.space/vcp/canonical"
	"creed.space/vcp/cidutil"
	"creed.space/vcp/keys"
)

func mustKeypair(seedByte byte) (ed25519.PublicKey, ed25519.PrivateKey) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return pub, priv
}

func printContentVector(label, input string) {
	canon, err := canonical.Content(input)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", label)
	fmt.Printf("  canonical = %q\n", canon)
	fmt.Printf("  digest    = %s\n", cidutil.DigestSHA256(canon))
	fmt.Printf("  cid       = %s\n", cidutil.CIDv1RawSHA256(canon))
}

func main() {
	printContentVector("hello-world", "Hello World")
	printContentVector("empty-content", "")

	pub, priv := mustKeypair(0x01)
	publicKey := "ed25519:" + base64.StdEncoding.EncodeToString(pub)
	sign := func(message []byte) (string, error) {
		return keys.SignEd25519(message, priv), nil
	}

	b, err := bundle.NewBuilder("creed.space/constitutions/sample", "1.0.0").
		WithContent("Be curious. Be kind.\n").
		WithIssuer("did:web:creed.space", publicKey, "key-2026-01").
		WithAuditor("did:web:audit.example", "audit-key-1", "injection_safe").
		WithClock(func() time.Time {
			return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		}).
		Build(sign, sign)
	if err != nil {
		panic(err)
	}

	att, err := bundle.Verify(b)
	if err != nil {
		panic(err)
	}
	fmt.Printf("sample-bundle\n")
	fmt.Printf("  content_hash = %s\n", att.ContentDigest)
	fmt.Printf("  content_cid  = %s\n", att.ContentCID)
	fmt.Printf("  public_key   = %s\n", publicKey)
	fmt.Printf("  signature    = %s\n", b.Manifest.SignatureValue())
	fmt.Printf("---BEGIN MANIFEST---\n%s\n---END MANIFEST---\n", b.RawManifest())
}
