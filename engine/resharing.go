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

var ErrResharingIncomplete = errors.New("engine: not every new-committee member has acknowledged its sub-share")

type resharingSessionState struct {
	newParticipants []ids.DeviceId
	acked           map[ids.DeviceId]bool
}

// ResharingChoreography redistributes FROST shares to a new (t, n)
// committee without changing the group public key (§4.5.3): old-committee
// holders seal a sub-share to each new recipient over HPKE, recipients
// acknowledge, and once every recipient has acked, a test signature under
// the unchanged group key proves the new shares reconstruct correctly.
type ResharingChoreography struct {
	signer *DeviceSigner

	mu       sync.Mutex
	sessions map[ids.SessionId]*resharingSessionState
}

func NewResharingChoreography(signer *DeviceSigner) *ResharingChoreography {
	return &ResharingChoreography{signer: signer, sessions: map[ids.SessionId]*resharingSessionState{}}
}

func (r *ResharingChoreography) session(id ids.SessionId) *resharingSessionState {
	s, ok := r.sessions[id]
	if !ok {
		s = &resharingSessionState{acked: map[ids.DeviceId]bool{}}
		r.sessions[id] = s
	}
	return s
}

func (r *ResharingChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(sessionID)

	switch p := e.Payload.(type) {
	case *journal.InitiateResharing:
		s.newParticipants = p.NewParticipants
	case *journal.AcknowledgeSubShare:
		s.acked[p.To] = true
	}
	return nil
}

// DistributeSubShare seals share's bytes to recipientPublic and appends
// DistributeSubShare, addressed from this old-committee holder to to.
func (r *ResharingChoreography) DistributeSubShare(sessionID ids.SessionId, to ids.DeviceId, recipientPublic *ecdh.PublicKey, subShare []byte) (journal.Receipt, error) {
	ct, err := xcrypto.Seal(recipientPublic, subShare, sessionID[:])
	if err != nil {
		return journal.Receipt{}, err
	}
	return r.signer.Append(&journal.DistributeSubShare{
		SessionID: sessionID, From: r.signer.DeviceID(), To: to, Ciphertext: ct,
	})
}

// OpenSubShare decrypts a DistributeSubShare ciphertext addressed to this
// device under its HPKE private key.
func (r *ResharingChoreography) OpenSubShare(sessionID ids.SessionId, d journal.DistributeSubShare, recipientPrivate *ecdh.PrivateKey) ([]byte, error) {
	return xcrypto.Open(recipientPrivate, d.Ciphertext, sessionID[:])
}

// Acknowledge confirms this device successfully opened and installed its
// new sub-share.
func (r *ResharingChoreography) Acknowledge(sessionID ids.SessionId, from ids.DeviceId) (journal.Receipt, error) {
	return r.signer.Append(&journal.AcknowledgeSubShare{SessionID: sessionID, From: from, To: r.signer.DeviceID()})
}

// ReadyToFinalize reports whether every new-committee participant has
// acknowledged its sub-share.
func (r *ResharingChoreography) ReadyToFinalize(sessionID ids.SessionId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session(sessionID)
	if len(s.newParticipants) == 0 {
		return false
	}
	for _, p := range s.newParticipants {
		if !s.acked[p] {
			return false
		}
	}
	return true
}

// ProposeFinalize submits FinalizeResharing as a consensus proposal: the new
// committee reconstructs sig as a test signature over sessionID under the
// unchanged group key, proving identity continuity (§4.5.3).
func (r *ResharingChoreography) ProposeFinalize(consensus *Consensus, sessionID ids.SessionId, newThreshold int, groupPublicKey [32]byte, sig xcrypto.ThresholdSignature) (Proposal, error) {
	if !r.ReadyToFinalize(sessionID) {
		return Proposal{}, ErrResharingIncomplete
	}
	payload := &journal.FinalizeResharing{
		SessionID:         sessionID,
		NewGroupPublicKey: groupPublicKey,
		NewThreshold:      newThreshold,
		TestSignatureR:    sig.R,
		TestSignatureZ:    sig.Z,
	}
	e := r.signer.builder.Build(payload, 0)
	p := Proposal{Event: e, LotteryTicket: xcrypto.Sum256(sessionID[:], []byte("resharing-finalize"))}
	consensus.Propose(p)
	return p, nil
}

// Abort appends AbortResharing with reason (DeliveryFailure/TestSigFailed/Timeout, §4.5.3).
func (r *ResharingChoreography) Abort(sessionID ids.SessionId, reason journal.ResharingAbortReason) (journal.Receipt, error) {
	return r.signer.Append(&journal.AbortResharing{SessionID: sessionID, Reason: reason})
}

// Rollback restores the prior threshold configuration after an abort.
func (r *ResharingChoreography) Rollback(sessionID ids.SessionId, rollbackEpoch ids.Epoch) (journal.Receipt, error) {
	return r.signer.Append(&journal.ResharingRollback{SessionID: sessionID, RollbackEpoch: rollbackEpoch})
}
