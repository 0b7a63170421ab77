package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"creed.space/vcp/vcperr"
)

// Algorithm names accepted in manifests and trust anchors.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// SignEd25519 returns a base64 Ed25519 signature over message.
// The message is signed directly, without prehashing; for manifests it is
// the canonical manifest bytes.
func SignEd25519(message []byte, privateKey ed25519.PrivateKey) string {
	sig := ed25519.Sign(privateKey, message)
	return base64.StdEncoding.EncodeToString(sig)
}

// SignDilithium3 returns a base64 Dilithium3 signature over message.
func SignDilithium3(message []byte, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-001", "missing private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, message, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}

// ParsePublicKey decodes an "<alg>:<base64>" public-key string and checks
// the key material for the named algorithm.
func ParsePublicKey(s string) (alg string, raw []byte, err error) {
	alg, enc, ok := strings.Cut(s, ":")
	if !ok {
		return "", nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-011", "public key missing algorithm prefix")
	}
	raw, derr := decodeBase64(enc)
	if derr != nil {
		return "", nil, vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-SIG-013", "public key is not base64", derr)
	}
	switch alg {
	case AlgEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return "", nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-014", "invalid ed25519 public key length")
		}
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(raw); err != nil {
			return "", nil, vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-SIG-015", "invalid dilithium3 public key", err)
		}
	default:
		return "", nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-012", "unsupported public key algorithm "+alg)
	}
	return alg, raw, nil
}

// Verify checks a base64 signature over message under an
// "<alg>:<base64>" public key. It fails closed: any decoding problem,
// algorithm mismatch, or verification failure yields SignatureInvalid.
func Verify(publicKey, sigBase64 string, message []byte) error {
	alg, raw, err := ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	sig, err := decodeBase64(sigBase64)
	if err != nil {
		return vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-SIG-031", "signature is not base64", err)
	}

	switch alg {
	case AlgEd25519:
		if len(sig) != ed25519.SignatureSize {
			return vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-032", "invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(raw), message, sig) {
			return vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-401", "signature verification failed")
		}
		return nil
	case AlgDilithium3:
		if len(sig) != mode3.SignatureSize {
			return vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-033", "invalid dilithium3 signature length")
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(raw); err != nil {
			return vcperr.Wrap(vcperr.KindSignatureInvalid, "VCP-SIG-015", "invalid dilithium3 public key", err)
		}
		if !mode3.Verify(&pk, message, sig) {
			return vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-401", "signature verification failed")
		}
		return nil
	default:
		return vcperr.New(vcperr.KindSignatureInvalid, "VCP-SIG-012", "unsupported public key algorithm "+alg)
	}
}

func decodeBase64(s string) ([]byte, error) {
	// Prefer standard padded encoding, but accept raw encoding too.
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
