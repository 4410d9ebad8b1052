package journal

import (
	"errors"
	"fmt"
)

// Validation-kind sentinels (§7): surfaced to the caller, never retried
// silently, and the journal state is left unchanged on any of these.
var (
	ErrParentHashMismatch   = errors.New("journal: event parent_hash does not match the journal head")
	ErrGenesisWithParent    = errors.New("journal: genesis event must not declare a parent_hash")
	ErrNonGenesisNoParent   = errors.New("journal: non-genesis event must declare a parent_hash")
	ErrNonceNotMonotone     = errors.New("journal: nonce is not strictly greater than the signing principal's last nonce")
	ErrEpochNotMonotone     = errors.New("journal: epoch_at_write must be >= the referenced epoch and the clock only advances")
	ErrAuthorizationInvalid = errors.New("journal: authorization does not validate against the declared signable hash")
	ErrPreconditionFailed   = errors.New("journal: payload precondition violated")
	ErrLockAlreadyHeld      = errors.New("journal: a live lock already exists for this operation type")
	ErrLockNotHeld          = errors.New("journal: release requested for a lock not currently held")
	ErrDeviceUnknown        = errors.New("journal: device is not part of the account's device set")
	ErrDeviceTombstoned     = errors.New("journal: device has been removed and cannot be re-admitted without a fresh AddDevice")
	ErrSessionUnknown       = errors.New("journal: session id is not active")
	ErrCommitmentMismatch   = errors.New("journal: revealed point does not hash to the prior commitment")
	ErrPrestateUnavailable  = errors.New("journal: prestate has been compacted away")
	ErrMergeConflict        = errors.New("journal: merge encountered conflicting non-monotone events")
	ErrInternalInvariant    = errors.New("journal: fold step detected an impossible state")
)

// ValidationError names the specific predicate that failed at append (§7).
type ValidationError struct {
	Predicate string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %v", e.Predicate, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(predicate string, err error) *ValidationError {
	return &ValidationError{Predicate: predicate, Err: err}
}

// ProtocolAbortReason is one of the typed reasons a session can fail (§7).
type ProtocolAbortReason string

const (
	AbortTimeout            ProtocolAbortReason = "timeout"
	AbortByzantineBehavior  ProtocolAbortReason = "byzantine_behavior"
	AbortCollisionDetected  ProtocolAbortReason = "collision_detected"
	AbortInsufficientApprovals ProtocolAbortReason = "insufficient_approvals"
	AbortDeliveryFailure    ProtocolAbortReason = "delivery_failure"
	AbortTestSignatureFailed ProtocolAbortReason = "test_signature_failed"
	AbortUserCancelled      ProtocolAbortReason = "user_cancelled"
)

// ProtocolAbortError wraps a typed abort reason and (for ByzantineBehavior)
// the implicated party.
type ProtocolAbortError struct {
	Reason       ProtocolAbortReason
	BlamedDevice string
	Details      string
}

func (e *ProtocolAbortError) Error() string {
	if e.BlamedDevice != "" {
		return fmt.Sprintf("protocol abort (%s): %s (%s)", e.Reason, e.Details, e.BlamedDevice)
	}
	return fmt.Sprintf("protocol abort (%s): %s", e.Reason, e.Details)
}
