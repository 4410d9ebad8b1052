package journal

import (
	"github.com/hxrts/aura/bloom"
)

// NonceReplayWindow is a per-device probabilistic membership set over
// previously-consumed nonces, adapted from the teacher's fixed-width Bloom
// filter region (massifs' log-value width happens to match our 32-byte
// nonce/event-id encoding). It never produces a false negative, so it is safe
// as a fast pre-check ahead of the authoritative next_nonce comparison in
// apply.go; on its own it would eventually admit a false positive for an old,
// reused nonce, which the next_nonce monotonicity check always catches first.
type NonceReplayWindow struct {
	region         []byte
	bitsPerElement uint64
}

const replayWindowLeafCapacity = 4096

func NewNonceReplayWindow() *NonceReplayWindow {
	const bitsPerElement = 16
	mBits := bloom.MBitsSafeCast(bloom.MBitsV1(replayWindowLeafCapacity, bitsPerElement))
	region := make([]byte, bloom.RegionBytesV1(mBits))
	// InitV1 cannot fail for these fixed, valid parameters.
	_ = bloom.InitV1(region, replayWindowLeafCapacity, bitsPerElement, 4)
	return &NonceReplayWindow{region: region, bitsPerElement: bitsPerElement}
}

// element encodes a nonce into the fixed 32-byte width the filter requires.
func nonceElement(nonce uint64) [32]byte {
	var out [32]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(nonce >> (8 * i))
	}
	return out
}

// Mark records nonce as consumed.
func (w *NonceReplayWindow) Mark(nonce uint64) {
	elem := nonceElement(nonce)
	for filterIdx := uint8(0); filterIdx < bloom.Filters; filterIdx++ {
		_ = bloom.InsertV1(w.region, filterIdx, elem[:])
	}
}

// MaybeSeen reports whether nonce may have been consumed before. false is
// authoritative (definitely not seen); true requires confirmation against
// the device's recorded next_nonce.
func (w *NonceReplayWindow) MaybeSeen(nonce uint64) bool {
	elem := nonceElement(nonce)
	for filterIdx := uint8(0); filterIdx < bloom.Filters; filterIdx++ {
		ok, err := bloom.MaybeContainsV1(w.region, filterIdx, elem[:])
		if err != nil || !ok {
			return false
		}
	}
	return true
}
