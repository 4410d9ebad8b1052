// Package ids defines the opaque identifier types shared across every Aura
// component: accounts, devices, guardians, sessions, and the per-account
// authority (group verifying key).
package ids

import (
	"github.com/google/uuid"
)

// AccountId identifies a logical identity unit; one journal exists per account.
type AccountId uuid.UUID

// DeviceId identifies a single device enrolled in an account.
type DeviceId uuid.UUID

// GuardianId identifies an external principal authorized to approve recovery.
type GuardianId uuid.UUID

// SessionId identifies a live instance of a choreography.
type SessionId uuid.UUID

// Epoch is the account's Lamport clock value. It only ever advances.
type Epoch uint64

// AuthorityId is the account's current group verifying key (Ed25519, 32 bytes).
type AuthorityId [32]byte

func NewAccountId() AccountId { return AccountId(uuid.New()) }
func NewDeviceId() DeviceId   { return DeviceId(uuid.New()) }
func NewGuardianId() GuardianId { return GuardianId(uuid.New()) }
func NewSessionId() SessionId { return SessionId(uuid.New()) }

func (a AccountId) String() string  { return uuid.UUID(a).String() }
func (d DeviceId) String() string   { return uuid.UUID(d).String() }
func (g GuardianId) String() string { return uuid.UUID(g).String() }
func (s SessionId) String() string  { return uuid.UUID(s).String() }

func (a AccountId) MarshalBinary() ([]byte, error)  { u := uuid.UUID(a); return u[:], nil }
func (d DeviceId) MarshalBinary() ([]byte, error)   { u := uuid.UUID(d); return u[:], nil }
func (g GuardianId) MarshalBinary() ([]byte, error) { u := uuid.UUID(g); return u[:], nil }
func (s SessionId) MarshalBinary() ([]byte, error)  { u := uuid.UUID(s); return u[:], nil }

// Next returns the clock value one tick after the greater of the two inputs,
// implementing the Lamport advance rule: epoch_at_write >= max(referenced) and
// the clock only ever advances forward.
func Next(current, observed Epoch) Epoch {
	if observed > current {
		current = observed
	}
	return current + 1
}
