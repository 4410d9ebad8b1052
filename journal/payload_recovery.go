package journal

import (
	"github.com/hxrts/aura/ids"
)

type RecoveryAbortReason struct {
	Timeout              bool
	InsufficientApprovals bool
	VerificationFailed   bool
	UserCancelled        bool
}

// InitiateRecovery seeds the mandatory cooldown and registers the new device
// that will be admitted on success (§4.5.4).
type InitiateRecovery struct {
	SessionID       ids.SessionId
	NewDeviceID     ids.DeviceId
	CooldownSeconds uint64
	RequiredGuardians int
	QuorumThreshold   int
}

func (InitiateRecovery) Kind() PayloadKind { return KindInitiateRecovery }
func (InitiateRecovery) Monotone() bool    { return true }

type CollectGuardianApproval struct {
	SessionID  ids.SessionId
	GuardianID ids.GuardianId
}

func (CollectGuardianApproval) Kind() PayloadKind { return KindCollectGuardianApproval }
func (CollectGuardianApproval) Monotone() bool    { return true }

// SubmitRecoveryShare carries an HPKE-encrypted share and a Merkle proof
// linking it to a preserved DKD commitment root, so it still verifies after
// compaction has pruned the original commitment events.
type SubmitRecoveryShare struct {
	SessionID      ids.SessionId
	GuardianID     ids.GuardianId
	Ciphertext     []byte
	MerkleProof    [][]byte
	MerkleLeafIdx  uint64
	PreservedRoot  [32]byte
}

func (SubmitRecoveryShare) Kind() PayloadKind { return KindSubmitRecoveryShare }
func (SubmitRecoveryShare) Monotone() bool    { return true }

// CompleteRecovery admits a device already added by an AddDevice event
// linked to this session, carrying a proof-of-possession test_signature
// under the recovered identity that apply verifies.
type CompleteRecovery struct {
	SessionID      ids.SessionId
	NewDeviceID    ids.DeviceId
	TestSignatureR [32]byte
	TestSignatureZ [32]byte
}

func (CompleteRecovery) Kind() PayloadKind { return KindCompleteRecovery }
func (CompleteRecovery) Monotone() bool    { return false }

type AbortRecovery struct {
	SessionID ids.SessionId
	Reason    RecoveryAbortReason
}

func (AbortRecovery) Kind() PayloadKind { return KindAbortRecovery }
func (AbortRecovery) Monotone() bool    { return false }

// NudgeGuardian is an advisory reminder event; it never changes account state.
type NudgeGuardian struct {
	SessionID  ids.SessionId
	GuardianID ids.GuardianId
}

func (NudgeGuardian) Kind() PayloadKind { return KindNudgeGuardian }
func (NudgeGuardian) Monotone() bool    { return true }
