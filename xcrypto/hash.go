// Package xcrypto is the cryptographic substrate (component A): Ed25519
// keygen/sign/verify, FROST threshold signing, HPKE seal/open, and Blake3
// hashing with a Merkle accumulator built on the adapted mmr package.
package xcrypto

import (
	"github.com/zeebo/blake3"
)

// Hash256 is a Blake3 digest, used for event hashes, lottery tickets, and
// envelope fingerprints throughout the rest of the module.
type Hash256 [32]byte

// Sum256 hashes concatenated byte slices with Blake3.
func Sum256(parts ...[]byte) Hash256 {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash256
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveKey derives a domain-separated key of the given length, used to bind
// nonce-generation hedging the way FROST round-1 implementations do.
func DeriveKey(context string, keyMaterial []byte, outLen int) []byte {
	out := make([]byte, outLen)
	blake3.DeriveKey(context, keyMaterial, out)
	return out
}

func (h Hash256) Bytes() []byte   { return h[:] }
func (h Hash256) IsZero() bool    { return h == Hash256{} }
func (h Hash256) Equal(o Hash256) bool {
	return h == o
}
