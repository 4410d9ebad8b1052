package bus

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hxrts/aura/xcrypto"
)

// defaultDedupCapacity bounds the fingerprint LRU so a long-lived node does
// not retain unbounded gossip history (§4.6 "bounded LRU of fingerprints").
const defaultDedupCapacity = 8192

// Dedup tracks which envelope fingerprints this node has already forwarded,
// ensuring each envelope is forwarded at most once per node (§8 property 9).
type Dedup struct {
	seen *lru.Cache[xcrypto.Hash256, struct{}]
}

func NewDedup() *Dedup {
	cache, err := lru.New[xcrypto.Hash256, struct{}](defaultDedupCapacity)
	if err != nil {
		// Only returned for a non-positive size, which defaultDedupCapacity
		// never is.
		panic(err)
	}
	return &Dedup{seen: cache}
}

// MarkAndCheck records fingerprint as seen and reports whether it was new
// (true means "proceed with forwarding").
func (d *Dedup) MarkAndCheck(fingerprint xcrypto.Hash256) bool {
	if d.seen.Contains(fingerprint) {
		return false
	}
	d.seen.Add(fingerprint, struct{}{})
	return true
}
