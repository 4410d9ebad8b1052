package journal

import "github.com/hxrts/aura/ids"

// ProposeCompaction names the epoch boundary to compact before and the
// commitment roots that must remain reachable afterward (§4.2, §4.5.5).
type ProposeCompaction struct {
	SessionID         ids.SessionId
	CompactBeforeEpoch ids.Epoch
	PreserveRoots     [][32]byte
}

func (ProposeCompaction) Kind() PayloadKind { return KindProposeCompaction }
func (ProposeCompaction) Monotone() bool    { return true }

type AcknowledgeCompaction struct {
	SessionID ids.SessionId
	DeviceID  ids.DeviceId
}

func (AcknowledgeCompaction) Kind() PayloadKind { return KindAcknowledgeCompaction }
func (AcknowledgeCompaction) Monotone() bool    { return true }

// CommitCompaction carries a threshold signature over the resulting state
// hash; only after this event is journaled may the journal actually drop the
// compactable prefix.
type CommitCompaction struct {
	SessionID          ids.SessionId
	CompactBeforeEpoch ids.Epoch
	ResultingStateHash [32]byte
	PreserveRoots      [][32]byte
}

func (CommitCompaction) Kind() PayloadKind { return KindCommitCompaction }
func (CommitCompaction) Monotone() bool    { return false }
