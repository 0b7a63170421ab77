// Package cidutil derives content digests and content identifiers from
// canonical bytes. Callers canonicalize first; nothing here normalizes.
package cidutil

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"

	"creed.space/vcp/vcperr"
)

// DigestSHA256 returns the wire digest string "sha256:<hex>" over data.
func DigestSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// VerifyDigest recomputes the sha256 digest of data and compares it to
// expected in constant shape (full compute, then compare).
func VerifyDigest(data []byte, expected string) error {
	computed := DigestSHA256(data)
	if computed != expected {
		return vcperr.New(vcperr.KindDigestMismatch, "VCP-DIGEST-001",
			"content digest mismatch: computed "+computed+", manifest declares "+expected)
	}
	return nil
}

// ParseDigest splits a "alg:hex" digest string and validates the hex.
func ParseDigest(s string) (alg string, sum []byte, err error) {
	alg, enc, ok := strings.Cut(s, ":")
	if !ok || alg == "" {
		return "", nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-DIGEST-002", "digest missing algorithm prefix")
	}
	sum, derr := hex.DecodeString(enc)
	if derr != nil {
		return "", nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-DIGEST-003", "digest is not hex", derr)
	}
	return alg, sum, nil
}

// DigestFor returns the raw digest of message under a named hash algorithm.
// Supported: sha256, sha512, sha3-256.
func DigestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, vcperr.New(vcperr.KindMalformedManifest, "VCP-DIGEST-004", "unsupported hash algorithm "+hashAlg)
	}
}

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
