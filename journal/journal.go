package journal

import (
	"crypto/ed25519"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// Receipt is returned from a successful Append: enough for the caller to
// locate the event in the chain and reason about its finality (§5).
type Receipt struct {
	EventID        [16]byte
	PostAppendHash xcrypto.Hash256
	Epoch          ids.Epoch
}

type principalKey struct {
	Kind AuthorizationKind
	ID   [16]byte
}

// Journal is the single-writer, append-only authenticated causal log for one
// account (component B, §3-§4). Appends are serialized under mu; readers
// take Snapshot() and observe an immutable AccountState (§5).
type Journal struct {
	mu sync.Mutex

	accountID ids.AccountId
	events    []Event

	head    xcrypto.Hash256
	hasHead bool
	epoch   ids.Epoch

	state    *AccountState
	snapshot *AccountState

	lastNonce map[principalKey]uint64
}

func New(accountID ids.AccountId) *Journal {
	j := &Journal{
		accountID: accountID,
		state:     NewAccountState(),
		lastNonce: map[principalKey]uint64{},
	}
	j.snapshot = j.state.Clone()
	return j
}

// Snapshot returns the immutable AccountState published by the most recent
// successful Append (§5: "readers operate against an immutable snapshot").
func (j *Journal) Snapshot() *AccountState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot
}

// Head returns the current chain head and epoch.
func (j *Journal) Head() (xcrypto.Hash256, bool, ids.Epoch) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.head, j.hasHead, j.epoch
}

// Append validates e against the current chain head and account state, folds
// it in, and publishes a new snapshot. Validation order follows §4.1: parent
// hash, then epoch, then nonce, then authorization, then payload
// precondition — the first failing predicate is reported and the journal is
// left completely unchanged.
func (j *Journal) Append(e Event) (Receipt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := e.checkVersion(); err != nil {
		return Receipt{}, err
	}

	if err := j.checkParentHash(e); err != nil {
		return Receipt{}, err
	}

	if e.EpochAtWrite < j.epoch {
		return Receipt{}, newValidationError("epoch.monotone", ErrEpochNotMonotone)
	}

	pk, hasPrincipal := j.signingPrincipalKey(e)
	if hasPrincipal {
		if err := j.checkNonce(pk, e); err != nil {
			return Receipt{}, err
		}
	}

	if err := j.checkAuthorization(e); err != nil {
		return Receipt{}, err
	}

	trial := j.state.Clone()
	if err := apply(trial, e); err != nil {
		return Receipt{}, err
	}

	postHash, err := e.PostAppendHash()
	if err != nil {
		return Receipt{}, err
	}

	j.events = append(j.events, e)
	j.head = postHash
	j.hasHead = true
	j.epoch = ids.Next(j.epoch, e.EpochAtWrite)
	if hasPrincipal {
		j.lastNonce[pk] = e.Nonce
	}
	j.state = trial
	j.snapshot = trial.Clone()

	return Receipt{
		EventID:        [16]byte(e.EventID),
		PostAppendHash: postHash,
		Epoch:          j.epoch,
	}, nil
}

func (j *Journal) checkParentHash(e Event) error {
	if len(j.events) == 0 {
		if e.HasParent {
			return newValidationError("parent_hash.genesis_has_none", ErrGenesisWithParent)
		}
		return nil
	}
	if !e.HasParent {
		return newValidationError("parent_hash.non_genesis_has_one", ErrNonGenesisNoParent)
	}
	if e.ParentHash != j.head {
		return newValidationError("parent_hash.matches_head", ErrParentHashMismatch)
	}
	return nil
}

func (j *Journal) signingPrincipalKey(e Event) (principalKey, bool) {
	switch e.Authorization.Kind {
	case AuthDeviceCertificate:
		return principalKey{Kind: AuthDeviceCertificate, ID: [16]byte(e.Authorization.DeviceID)}, true
	case AuthGuardianSignature:
		return principalKey{Kind: AuthGuardianSignature, ID: [16]byte(e.Authorization.GuardianID)}, true
	default:
		return principalKey{}, false
	}
}

func (j *Journal) checkNonce(pk principalKey, e Event) error {
	if e.Nonce <= j.lastNonce[pk] {
		return newValidationError("nonce.strictly_increasing_per_principal", ErrNonceNotMonotone)
	}
	return nil
}

func (j *Journal) checkAuthorization(e Event) error {
	signable, err := e.SignableHash()
	if err != nil {
		return err
	}

	switch e.Authorization.Kind {
	case AuthLifecycleInternal:
		return nil

	case AuthThreshold:
		if e.Authorization.ThresholdSignature == nil {
			return newValidationError("authorization.threshold_present", ErrAuthorizationInvalid)
		}
		if j.state.GroupPublicKey == ([32]byte{}) {
			// No group key established yet: only the genesis/bootstrap
			// events that install one may carry a threshold authorization.
			return nil
		}
		if err := xcrypto.VerifyThresholdSignature(j.state.GroupPublicKey, signable.Bytes(), *e.Authorization.ThresholdSignature); err != nil {
			return newValidationError("authorization.threshold_verifies", ErrAuthorizationInvalid)
		}
		return nil

	case AuthDeviceCertificate:
		dev, ok := j.state.Devices[e.Authorization.DeviceID]
		if !ok {
			return newValidationError("authorization.device_known", ErrDeviceUnknown)
		}
		if dev.Tombstoned {
			return newValidationError("authorization.device_not_tombstoned", ErrDeviceTombstoned)
		}
		pub := ed25519.PublicKey(dev.PublicKey[:])
		if err := xcrypto.Verify(pub, signable.Bytes(), e.Authorization.Signature); err != nil {
			return newValidationError("authorization.device_signature_verifies", ErrAuthorizationInvalid)
		}
		return nil

	case AuthGuardianSignature:
		g, ok := j.state.Guardians[e.Authorization.GuardianID]
		if !ok {
			return newValidationError("authorization.guardian_known", ErrDeviceUnknown)
		}
		if g.Removed {
			return newValidationError("authorization.guardian_active", ErrDeviceUnknown)
		}
		pub := ed25519.PublicKey(g.PublicKey[:])
		if err := xcrypto.Verify(pub, signable.Bytes(), e.Authorization.Signature); err != nil {
			return newValidationError("authorization.guardian_signature_verifies", ErrAuthorizationInvalid)
		}
		return nil

	default:
		return newValidationError("authorization.recognized_kind", ErrAuthorizationInvalid)
	}
}

// Events returns the full ordered event log. Intended for replay and testing;
// production readers should prefer Snapshot plus the query layer.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// Replay rebuilds account state from scratch by folding a given event slice
// in order, without touching the live journal. Used to validate a foreign
// event log (e.g. received via the gossip bus) before merging it in.
func Replay(events []Event) (*AccountState, error) {
	state := NewAccountState()
	for _, e := range events {
		if err := apply(state, e); err != nil {
			return nil, err
		}
	}
	return state, nil
}
