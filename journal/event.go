// Package journal implements the Authenticated Causal Journal (component B):
// the per-account append-only event log, its Lamport epoch, and the
// deterministic fold into account state.
package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// MaxSupportedVersion bounds the event.version a reader will accept; per
// invariant 4, a higher version must fail safe rather than be guessed at.
const MaxSupportedVersion = 1

var ErrUnsupportedVersion = errors.New("journal: event version exceeds the max this reader supports")

// AuthorizationKind tags which of the four authorization shapes an event carries.
type AuthorizationKind uint8

const (
	AuthThreshold AuthorizationKind = iota + 1
	AuthDeviceCertificate
	AuthGuardianSignature
	AuthLifecycleInternal
)

// Authorization is the proof that an event's signable hash was authorized by
// the account's current authority, a single device, a guardian, or (for
// engine-internal bookkeeping events that never leave one replica's process)
// no one at all.
type Authorization struct {
	Kind AuthorizationKind

	// ThresholdSignature is populated when Kind == AuthThreshold.
	ThresholdSignature *xcrypto.ThresholdSignature

	// DeviceID/Signature are populated when Kind == AuthDeviceCertificate.
	DeviceID  ids.DeviceId
	Signature []byte

	// GuardianID is populated when Kind == AuthGuardianSignature, alongside Signature.
	GuardianID ids.GuardianId
}

// Event is a single immutable journal entry (§3.2).
type Event struct {
	Version       uint16
	EventID       uuid.UUID
	AccountID     ids.AccountId
	Timestamp     uint64 // advisory unix-seconds
	Nonce         uint64
	ParentHash    xcrypto.Hash256 // zero for genesis
	HasParent     bool
	EpochAtWrite  ids.Epoch
	Payload       Payload
	Authorization Authorization

	// SigningPrincipal identifies whose nonce-sequence this event consumes:
	// a device id for device-originated events, a guardian id for
	// guardian-originated ones. It is not serialized into the signable
	// hash's principal-neutral fields beyond what Authorization already
	// carries; it is derived from Authorization for nonce bookkeeping.
}

// SigningPrincipal returns the (kind, id) pair whose nonce sequence this
// event's Nonce field belongs to, per invariant 2 ("(account_id,
// signing-principal) pair").
func (e Event) SigningPrincipal() (AuthorizationKind, [16]byte) {
	switch e.Authorization.Kind {
	case AuthDeviceCertificate:
		return AuthDeviceCertificate, e.Authorization.DeviceID
	case AuthGuardianSignature:
		return AuthGuardianSignature, e.Authorization.GuardianID
	default:
		// Threshold and lifecycle-internal events are not attributable to a
		// single principal's nonce sequence; callers must not call this for
		// those kinds.
		return e.Authorization.Kind, [16]byte{}
	}
}

// SignableHash is the canonical hash of every field except Authorization,
// computed over the deterministic CBOR encoding (§6's wire format).
func (e Event) SignableHash() (xcrypto.Hash256, error) {
	wire, err := e.toWire()
	if err != nil {
		return xcrypto.Hash256{}, err
	}
	enc, err := wire.MarshalSignable()
	if err != nil {
		return xcrypto.Hash256{}, err
	}
	return xcrypto.Sum256(enc), nil
}

// PostAppendHash is the hash identifying this event's position in the chain,
// used as the next event's ParentHash.
func (e Event) PostAppendHash() (xcrypto.Hash256, error) {
	wire, err := e.toWire()
	if err != nil {
		return xcrypto.Hash256{}, err
	}
	enc, err := wire.MarshalFull()
	if err != nil {
		return xcrypto.Hash256{}, err
	}
	return xcrypto.Sum256(enc), nil
}

func (e Event) checkVersion() error {
	if e.Version > MaxSupportedVersion {
		return fmt.Errorf("%w: got %d, max %d", ErrUnsupportedVersion, e.Version, MaxSupportedVersion)
	}
	return nil
}
