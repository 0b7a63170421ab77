// Package storage defines the content-addressable store used for VCP
// content and bundle envelopes.
//
// Everything placed in a CAS is canonical bytes: canonical content, JCS
// manifests, or full envelope JSON. The CID is always derived from the
// bytes, so a store can be audited without trusting its index.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
