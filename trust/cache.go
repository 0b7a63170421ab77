package trust

import (
	"sync"

	"creed.space/vcp/keys"
	"creed.space/vcp/vcperr"
)

// KeyCache is a read-through cache of parsed public key material, keyed by
// the anchor's key id. Anchors are immutable once loaded and verification
// runs concurrently, so lookups take a read lock and only a first miss
// pays the parse cost.
type KeyCache struct {
	cfg *Config

	mu     sync.RWMutex
	parsed map[string]cachedKey
}

type cachedKey struct {
	alg string
	raw []byte
}

func NewKeyCache(cfg *Config) *KeyCache {
	return &KeyCache{cfg: cfg, parsed: map[string]cachedKey{}}
}

// Config exposes the underlying anchor registry.
func (kc *KeyCache) Config() *Config {
	return kc.cfg
}

// PublicKey returns the parsed (algorithm, raw key) for an anchor,
// parsing and caching on first use.
func (kc *KeyCache) PublicKey(a *Anchor) (string, []byte, error) {
	if a == nil {
		return "", nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-TRUST-001", "no trust anchor")
	}

	kc.mu.RLock()
	ck, ok := kc.parsed[a.KeyID]
	kc.mu.RUnlock()
	if ok {
		return ck.alg, ck.raw, nil
	}

	alg, raw, err := keys.ParsePublicKey(a.PublicKey)
	if err != nil {
		return "", nil, err
	}
	if a.Algorithm != "" && a.Algorithm != alg {
		return "", nil, vcperr.New(vcperr.KindSignatureInvalid, "VCP-TRUST-002",
			"anchor algorithm "+a.Algorithm+" does not match key encoding "+alg)
	}

	kc.mu.Lock()
	kc.parsed[a.KeyID] = cachedKey{alg: alg, raw: raw}
	kc.mu.Unlock()
	return alg, raw, nil
}
