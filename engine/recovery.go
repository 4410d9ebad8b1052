package engine

import (
	"context"
	"crypto/ecdh"
	"errors"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

var ErrRecoveryQuorumNotMet = errors.New("engine: fewer guardian approvals than the session's required quorum")

type recoverySessionState struct {
	requiredGuardians int
	quorumThreshold   int
	approvals         map[ids.GuardianId]bool
}

// RecoveryChoreography restores account control to a freshly-enrolled
// device via guardian quorum and a nested DKD session (§4.5.4): guardians
// approve, a new group key is derived for the recovered identity, each
// approving guardian submits an HPKE-sealed, Merkle-proven recovery share,
// and the new device proves possession to complete.
type RecoveryChoreography struct {
	signer *DeviceSigner

	mu       sync.Mutex
	sessions map[ids.SessionId]*recoverySessionState
}

func NewRecoveryChoreography(signer *DeviceSigner) *RecoveryChoreography {
	return &RecoveryChoreography{signer: signer, sessions: map[ids.SessionId]*recoverySessionState{}}
}

func (r *RecoveryChoreography) session(id ids.SessionId) *recoverySessionState {
	s, ok := r.sessions[id]
	if !ok {
		s = &recoverySessionState{approvals: map[ids.GuardianId]bool{}}
		r.sessions[id] = s
	}
	return s
}

func (r *RecoveryChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(sessionID)

	switch p := e.Payload.(type) {
	case *journal.InitiateRecovery:
		s.requiredGuardians = p.RequiredGuardians
		s.quorumThreshold = p.QuorumThreshold
	case *journal.CollectGuardianApproval:
		s.approvals[p.GuardianID] = true
	}
	return nil
}

// Initiate registers the new device and starts the mandatory cooldown
// (§4.5.4); newDeviceID must already have been enrolled by a prior
// AddDevice event linking it to this session (journal.apply.go's
// CompleteRecovery check enforces this later).
func (r *RecoveryChoreography) Initiate(sessionID ids.SessionId, newDeviceID ids.DeviceId, cooldownSeconds uint64, requiredGuardians, quorumThreshold int) (journal.Receipt, error) {
	return r.signer.Append(&journal.InitiateRecovery{
		SessionID: sessionID, NewDeviceID: newDeviceID, CooldownSeconds: cooldownSeconds,
		RequiredGuardians: requiredGuardians, QuorumThreshold: quorumThreshold,
	})
}

func (r *RecoveryChoreography) Approve(sessionID ids.SessionId, guardianID ids.GuardianId) (journal.Receipt, error) {
	return r.signer.Append(&journal.CollectGuardianApproval{SessionID: sessionID, GuardianID: guardianID})
}

// QuorumMet reports whether enough guardians have approved to proceed past
// approval collection into the nested DKD session.
func (r *RecoveryChoreography) QuorumMet(sessionID ids.SessionId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(sessionID)
	return len(s.approvals) >= s.quorumThreshold && s.quorumThreshold > 0
}

// SubmitShare seals a guardian's recovery share to the new device's HPKE
// public key, and carries a Merkle proof that the corresponding point was
// part of the preserved DKD commitment root (so it still verifies even if
// compaction has pruned the original commitment events).
func (r *RecoveryChoreography) SubmitShare(sessionID ids.SessionId, guardianID ids.GuardianId, newDevicePublic *ecdh.PublicKey, share []byte, root xcrypto.Hash256, leafIdx uint64, proof [][]byte) (journal.Receipt, error) {
	ct, err := xcrypto.Seal(newDevicePublic, share, sessionID[:])
	if err != nil {
		return journal.Receipt{}, err
	}
	var rootBytes [32]byte
	copy(rootBytes[:], root.Bytes())
	return r.signer.Append(&journal.SubmitRecoveryShare{
		SessionID: sessionID, GuardianID: guardianID, Ciphertext: ct,
		MerkleProof: proof, MerkleLeafIdx: leafIdx, PreservedRoot: rootBytes,
	})
}

// VerifyShare checks a submitted share's Merkle proof against the session's
// preserved commitment root before the new device bothers opening it.
func VerifyShare(s journal.SubmitRecoveryShare, leafHash xcrypto.Hash256, mmrSize uint64) bool {
	var root xcrypto.Hash256
	copy(root[:], s.PreservedRoot[:])
	return xcrypto.VerifyInclusion(root, s.MerkleLeafIdx, leafHash, s.MerkleProof, mmrSize)
}

// OpenShare decrypts a verified recovery share under the new device's HPKE
// private key.
func OpenShare(s journal.SubmitRecoveryShare, sessionID ids.SessionId, newDevicePrivate *ecdh.PrivateKey) ([]byte, error) {
	return xcrypto.Open(newDevicePrivate, s.Ciphertext, sessionID[:])
}

// Complete appends CompleteRecovery with a proof-of-possession test
// signature under the recovered group key (the fold-level check in
// journal.apply.go verifies both this signature and the AddDevice linkage).
func (r *RecoveryChoreography) Complete(sessionID ids.SessionId, newDeviceID ids.DeviceId, sig xcrypto.ThresholdSignature) (journal.Receipt, error) {
	return r.signer.Append(&journal.CompleteRecovery{
		SessionID: sessionID, NewDeviceID: newDeviceID, TestSignatureR: sig.R, TestSignatureZ: sig.Z,
	})
}

// Abort appends AbortRecovery with reason (Timeout/InsufficientApprovals/VerificationFailed/UserCancelled, §4.5.4).
func (r *RecoveryChoreography) Abort(sessionID ids.SessionId, reason journal.RecoveryAbortReason) (journal.Receipt, error) {
	return r.signer.Append(&journal.AbortRecovery{SessionID: sessionID, Reason: reason})
}

func (r *RecoveryChoreography) Nudge(sessionID ids.SessionId, guardianID ids.GuardianId) (journal.Receipt, error) {
	return r.signer.Append(&journal.NudgeGuardian{SessionID: sessionID, GuardianID: guardianID})
}
