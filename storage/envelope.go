package storage

import (
	"encoding/json"

	"github.com/ipfs/go-cid"

	"creed.space/vcp/bundle"
	"creed.space/vcp/canonical"
)

// PutBundle stores a bundle as two CAS objects: the envelope JSON exactly
// as the issuer serialized it, and the canonical content bytes. Keeping
// the envelope verbatim means a later Get re-verifies against the bytes
// the issuer actually signed.
func PutBundle(cas CAS, b *bundle.Bundle) (envelope, content cid.Cid, err error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return cid.Undef, cid.Undef, err
	}
	canon, err := canonical.Content(b.Content)
	if err != nil {
		return cid.Undef, cid.Undef, err
	}

	content, err = cas.Put(canon)
	if err != nil {
		return cid.Undef, cid.Undef, err
	}
	envelope, err = cas.Put(raw)
	if err != nil {
		return cid.Undef, cid.Undef, err
	}
	return envelope, content, nil
}

// GetBundle loads and parses an envelope previously stored with PutBundle.
// The caller still runs bundle.Verify; storage integrity and signature
// validity are separate checks.
func GetBundle(cas CAS, envelope cid.Cid) (*bundle.Bundle, error) {
	raw, err := cas.Get(envelope)
	if err != nil {
		return nil, err
	}
	return bundle.Parse(raw)
}
