package query

import "time"

// MutationReceiptKind tags which of the two shapes a MutationReceipt has.
type MutationReceiptKind uint8

const (
	ReceiptImmediate MutationReceiptKind = iota + 1
	ReceiptConsensus
)

// MutationReceipt is returned from a mutation: Immediate for monotone ops
// merged locally, Consensus for non-monotone ops submitted to the
// leaderless consensus protocol (§4.3, §4.4).
type MutationReceipt struct {
	Kind MutationReceiptKind

	// Immediate fields.
	FactIDs []FactId
	At      time.Time

	// Consensus fields.
	ConsensusID   string
	PrestateHash  [32]byte
	SubmitLatency time.Duration
}

func ImmediateReceipt(factIDs []FactId, at time.Time) MutationReceipt {
	return MutationReceipt{Kind: ReceiptImmediate, FactIDs: factIDs, At: at}
}

func ConsensusReceipt(consensusID string, prestateHash [32]byte, submitLatency time.Duration) MutationReceipt {
	return MutationReceipt{
		Kind:          ReceiptConsensus,
		ConsensusID:   consensusID,
		PrestateHash:  prestateHash,
		SubmitLatency: submitLatency,
	}
}
