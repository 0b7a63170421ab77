package canonical

import (
	"encoding/json"

	"github.com/gowebpki/jcs"

	"creed.space/vcp/vcperr"
)

// Manifest canonicalizes a JSON manifest for signature computation.
//
// The input must be a JSON object. The top-level "signature" member is
// removed, then the remainder is serialized under RFC 8785 (JCS): UTF-8,
// no inter-token whitespace, keys sorted by UTF-16 code units, numbers in
// shortest form. The returned bytes are exactly what gets signed and
// verified.
func Manifest(raw []byte) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-001", "manifest is not a JSON object", err)
	}
	delete(top, "signature")

	stripped, err := json.Marshal(top)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-002", "manifest re-encoding failed", err)
	}

	out, err := jcs.Transform(stripped)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-003", "JCS transform failed", err)
	}
	return out, nil
}

// ManifestValue canonicalizes any JSON-encodable value the way Manifest
// does. Values that cannot be encoded as JSON (NaN, Inf, channels, cycles)
// yield MalformedManifest.
func ManifestValue(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, vcperr.Wrap(vcperr.KindMalformedManifest, "VCP-MANIFEST-004", "manifest value is not JSON-encodable", err)
	}
	return Manifest(raw)
}
