package xcrypto

import (
	"errors"

	"github.com/zeebo/blake3"

	"github.com/hxrts/aura/mmr"
)

// ErrMerkleIndexOutOfRange is returned when a proof or lookup targets an index
// beyond the accumulator's current size.
var ErrMerkleIndexOutOfRange = errors.New("merkle accumulator: index out of range")

// memoryNodeAppender is an in-memory mmr.NodeAppender, sufficient for the
// bounded commitment sets produced by a single DKD session.
type memoryNodeAppender struct {
	nodes [][]byte
}

func (m *memoryNodeAppender) Get(i uint64) ([]byte, error) {
	if i >= uint64(len(m.nodes)) {
		return nil, ErrMerkleIndexOutOfRange
	}
	return m.nodes[i], nil
}

func (m *memoryNodeAppender) Append(value []byte) (uint64, error) {
	m.nodes = append(m.nodes, value)
	return uint64(len(m.nodes)), nil
}

// CommitmentAccumulator is a Merkle Mountain Range over a session's leaf
// hashes (DKD commitments, recovery share proofs). It produces a single
// bagged root that survives journal compaction: the root is retained as a
// preserved fact while the individual leaf events may be pruned.
type CommitmentAccumulator struct {
	store     *memoryNodeAppender
	size      uint64
	leafCount uint64
}

func NewCommitmentAccumulator() *CommitmentAccumulator {
	return &CommitmentAccumulator{store: &memoryNodeAppender{}}
}

// Add appends a leaf hash and returns its mmr node index (not its leaf
// sequence number: interior "mountain" nodes interleave with leaves in mmr
// node numbering, per mmr.MMRIndex). Use this return value, not a running
// leaf counter, as the index passed to InclusionProof/VerifyInclusion.
func (c *CommitmentAccumulator) Add(leaf Hash256) (uint64, error) {
	h := blake3.New()
	size, err := mmr.AddHashedLeaf(c.store, h, leaf[:])
	if err != nil {
		return 0, err
	}
	c.size = size
	mmrIndex := mmr.MMRIndex(c.leafCount)
	c.leafCount++
	return mmrIndex, nil
}

// Size returns the accumulator's current mmr size, needed alongside Root to
// verify inclusion proofs later (§4.5.2 FinalizeDkdSession.CommitmentMMRSize).
func (c *CommitmentAccumulator) Size() uint64 { return c.size }

// Root bags all current peaks into a single commitment root.
func (c *CommitmentAccumulator) Root() (Hash256, error) {
	h := blake3.New()
	root, err := mmr.GetRoot(c.size, c.store, h)
	if err != nil {
		return Hash256{}, err
	}
	var out Hash256
	copy(out[:], root)
	return out, nil
}

// InclusionProof returns the sibling path proving leaf index i is committed
// by the current bagged root.
func (c *CommitmentAccumulator) InclusionProof(i uint64) ([][]byte, error) {
	h := blake3.New()
	return mmr.InclusionProofBagged(c.size, c.store, h, i)
}

// VerifyInclusion checks that leafHash at mmr index i is proven by proof
// against root, independent of any live accumulator state. This is what a
// recovery guardian's Merkle proof is checked with after compaction has
// dropped the original commitment events.
func VerifyInclusion(root Hash256, i uint64, leafHash Hash256, proof [][]byte, mmrSize uint64) bool {
	h := blake3.New()
	// The proof is the bagged layout from InclusionProofBagged, so it is
	// checked against the bagged root rather than a single peak.
	return mmr.VerifyInclusionBagged(mmrSize, h, leafHash[:], i, proof, root[:])
}
