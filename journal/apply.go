package journal

import (
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// apply dispatches by payload variant, folding e into state in place.
// Representative contracts are per §4.2; every registered payload kind is
// handled here even where the fold is a straightforward accumulation.
func apply(state *AccountState, e Event) error {
	switch p := e.Payload.(type) {
	case *EpochTick:
		return nil

	case *RequestOperationLock:
		return nil // observational only; the winner is decided by consensus (§4.4)

	case *GrantOperationLock:
		if existing, ok := state.Locks[p.OperationType]; ok && existing.ExpiresAt > e.EpochAtWrite {
			return newValidationError("lock.no_live_lock", ErrLockAlreadyHeld)
		}
		state.Locks[p.OperationType] = OperationLock{
			OperationType: p.OperationType,
			WinnerDevice:  p.WinnerDevice,
			ExpiresAt:     p.ExpiresAt,
		}
		return nil

	case *ReleaseOperationLock:
		if _, ok := state.Locks[p.OperationType]; !ok {
			return newValidationError("lock.held_before_release", ErrLockNotHeld)
		}
		delete(state.Locks, p.OperationType)
		return nil

	case *InitiateDkdSession:
		return nil // session bookkeeping handled by CreateSession

	case *RecordDkdCommitment:
		return nil // commitments accumulate engine-side until FinalizeDkdSession

	case *RevealDkdPoint:
		return nil // verified engine-side against the prior commitment (§4.5.2)

	case *FinalizeDkdSession:
		state.GroupPublicKey = p.DerivedPublicKey
		state.PreservedRoots[p.SessionID] = PreservedCommitmentRoot{
			SessionID: p.SessionID,
			Root:      p.CommitmentRoot,
			MMRSize:   p.CommitmentMMRSize,
		}
		return nil

	case *AbortDkdSession:
		return nil

	case *HealthCheckRequest, *HealthCheckResponse:
		return nil

	case *InitiateResharing:
		return nil

	case *DistributeSubShare, *AcknowledgeSubShare:
		return nil

	case *FinalizeResharing:
		state.GroupPublicKey = p.NewGroupPublicKey
		state.Threshold = p.NewThreshold
		sig := xcrypto.ThresholdSignature{R: p.TestSignatureR, Z: p.TestSignatureZ}
		if err := xcrypto.VerifyThresholdSignature(state.GroupPublicKey, resharingTestMessage(p.SessionID), sig); err != nil {
			return newValidationError("resharing.test_signature_verifies", err)
		}
		return nil

	case *AbortResharing, *ResharingRollback:
		return nil

	case *InitiateRecovery:
		key := cooldownKey{OperationType: OperationRecovery}
		state.Cooldowns[key] = e.EpochAtWrite
		return nil

	case *CollectGuardianApproval, *SubmitRecoveryShare, *NudgeGuardian:
		return nil

	case *CompleteRecovery:
		dev, ok := state.Devices[p.NewDeviceID]
		if !ok {
			return newValidationError("recovery.device_present_via_add_device", ErrDeviceUnknown)
		}
		if dev.Tombstoned {
			return newValidationError("recovery.device_not_tombstoned", ErrDeviceTombstoned)
		}
		if !dev.AddedBySessionOK || dev.AddedBySession != p.SessionID {
			return newValidationError("recovery.device_present_via_add_device", ErrDeviceUnknown)
		}
		sig := xcrypto.ThresholdSignature{R: p.TestSignatureR, Z: p.TestSignatureZ}
		if err := xcrypto.VerifyThresholdSignature(state.GroupPublicKey, recoveryProofMessage(p.NewDeviceID), sig); err != nil {
			return newValidationError("recovery.proof_of_possession", err)
		}
		return nil

	case *AbortRecovery:
		return nil

	case *ProposeCompaction, *AcknowledgeCompaction:
		return nil

	case *CommitCompaction:
		return nil // actual pruning happens in compact.go after this event lands

	case *AddDevice:
		rec := &DeviceRecord{DeviceID: p.DeviceID, Label: p.Label, PublicKey: p.PublicKey, NextNonce: 0, ReplayWindow: NewNonceReplayWindow()}
		if p.HasSession {
			rec.AddedBySession = p.SessionID
			rec.AddedBySessionOK = true
		}
		state.Devices[p.DeviceID] = rec
		state.ParticipantCount++
		return nil

	case *RemoveDevice:
		dev, ok := state.Devices[p.DeviceID]
		if !ok {
			return newValidationError("membership.device_known", ErrDeviceUnknown)
		}
		dev.Tombstoned = true
		return nil

	case *UpdateDeviceNonce:
		dev, ok := state.Devices[p.DeviceID]
		if !ok {
			return newValidationError("membership.device_known", ErrDeviceUnknown)
		}
		if p.PreviousNonce != dev.NextNonce {
			return newValidationError("nonce.previous_equals_next", ErrNonceNotMonotone)
		}
		if p.NewNonce <= p.PreviousNonce {
			return newValidationError("nonce.strictly_increasing", ErrNonceNotMonotone)
		}
		dev.ReplayWindow.Mark(p.NewNonce)
		dev.NextNonce = p.NewNonce
		return nil

	case *AddGuardian:
		state.Guardians[p.GuardianID] = &GuardianRecord{GuardianID: p.GuardianID, Label: p.Label, PublicKey: p.PublicKey}
		return nil

	case *RemoveGuardian:
		g, ok := state.Guardians[p.GuardianID]
		if !ok {
			return newValidationError("membership.guardian_known", ErrDeviceUnknown)
		}
		g.Removed = true
		return nil

	case *PresenceTicketCache:
		state.Presence[p.DeviceID] = PresenceEntry{Ticket: p.Ticket, ExpiresAt: p.ExpiresAt}
		return nil

	case *CapabilityDelegation:
		state.Capabilities[p.FromAuthority] = append(state.Capabilities[p.FromAuthority], CapabilityEdge{
			Resource: p.Resource, Action: p.Action, Constraints: p.Constraints, ExpiresAt: p.ExpiresAt,
		})
		return nil

	case *CapabilityRevocation:
		edges := state.Capabilities[p.FromAuthority]
		kept := edges[:0]
		for _, edge := range edges {
			if edge.Resource == p.Resource && edge.Action == p.Action {
				continue
			}
			kept = append(kept, edge)
		}
		state.Capabilities[p.FromAuthority] = kept
		return nil

	case *CgkaOperation, *CgkaStateSync:
		return nil // validated/applied by the engine's CGKA state machine (§4.5.6)

	case *CgkaEpochTransition:
		return nil

	case *IncrementCounter:
		state.Counters[p.Scope] += p.By
		return nil

	case *ReserveCounterRange:
		cur := state.ReservedRanges[p.Scope]
		if p.Start != cur[1] {
			return newValidationError("counter.range_contiguous", ErrPreconditionFailed)
		}
		state.ReservedRanges[p.Scope] = [2]uint64{cur[0], p.Start + p.Count}
		return nil

	case *CreateSession:
		state.Sessions[p.SessionID] = &SessionRecord{
			SessionID: p.SessionID, ProtocolType: p.ProtocolType, Participants: p.Participants,
			StartEpoch: p.StartEpoch, TTLEpochs: p.TTLEpochs, Status: SessionActive, Metadata: p.Metadata,
		}
		return nil

	case *UpdateSessionStatus:
		sess, ok := state.Sessions[p.SessionID]
		if !ok {
			return newValidationError("session.known", ErrSessionUnknown)
		}
		sess.Status = p.Status
		return nil

	case *CompleteSession:
		sess, ok := state.Sessions[p.SessionID]
		if !ok {
			return newValidationError("session.known", ErrSessionUnknown)
		}
		sess.Status = SessionCompleted
		return nil

	case *AbortSession:
		sess, ok := state.Sessions[p.SessionID]
		if !ok {
			return newValidationError("session.known", ErrSessionUnknown)
		}
		sess.Status = SessionFailed
		return nil

	case *CleanupExpiredSessions:
		for _, sid := range p.SessionIDs {
			delete(state.Sessions, sid)
		}
		return nil

	default:
		return newValidationError("payload.recognized", ErrInternalInvariant)
	}
}

func resharingTestMessage(sessionID ids.SessionId) []byte {
	b, _ := sessionID.MarshalBinary()
	return append([]byte("aura-resharing-test-signature:"), b...)
}

func recoveryProofMessage(deviceID ids.DeviceId) []byte {
	b, _ := deviceID.MarshalBinary()
	return append([]byte("aura-recovery-proof-of-possession:"), b...)
}
