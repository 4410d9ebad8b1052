package journal

import (
	"github.com/hxrts/aura/ids"
)

type ResharingAbortReason struct {
	DeliveryFailure  []ids.DeviceId
	TestSigFailed    bool
	Timeout          bool
}

type InitiateResharing struct {
	SessionID       ids.SessionId
	OldThreshold    int
	NewThreshold    int
	OldParticipants []ids.DeviceId
	NewParticipants []ids.DeviceId
	TTLEpochs       uint64
}

func (InitiateResharing) Kind() PayloadKind { return KindInitiateResharing }
func (InitiateResharing) Monotone() bool    { return true }

// DistributeSubShare carries an HPKE ciphertext addressed to one new-committee
// recipient, from an old-committee share holder.
type DistributeSubShare struct {
	SessionID  ids.SessionId
	From       ids.DeviceId
	To         ids.DeviceId
	Ciphertext []byte
}

func (DistributeSubShare) Kind() PayloadKind { return KindDistributeSubShare }
func (DistributeSubShare) Monotone() bool    { return true }

type AcknowledgeSubShare struct {
	SessionID ids.SessionId
	From      ids.DeviceId
	To        ids.DeviceId
}

func (AcknowledgeSubShare) Kind() PayloadKind { return KindAcknowledgeSubShare }
func (AcknowledgeSubShare) Monotone() bool    { return true }

// FinalizeResharing installs the new (t, n) configuration. The group public
// key is unchanged (identity continuity, §4.5.3); test_signature proves the
// new committee's shares reconstruct correctly against it.
type FinalizeResharing struct {
	SessionID         ids.SessionId
	NewGroupPublicKey [32]byte
	NewThreshold      int
	TestSignatureR    [32]byte
	TestSignatureZ    [32]byte
}

func (FinalizeResharing) Kind() PayloadKind { return KindFinalizeResharing }
func (FinalizeResharing) Monotone() bool    { return false }

type AbortResharing struct {
	SessionID ids.SessionId
	Reason    ResharingAbortReason
}

func (AbortResharing) Kind() PayloadKind { return KindAbortResharing }
func (AbortResharing) Monotone() bool    { return false }

// ResharingRollback restores the prior threshold configuration after abort.
type ResharingRollback struct {
	SessionID      ids.SessionId
	RollbackEpoch  ids.Epoch
}

func (ResharingRollback) Kind() PayloadKind { return KindResharingRollback }
func (ResharingRollback) Monotone() bool    { return false }
