package journal

import "github.com/hxrts/aura/ids"

// PresenceTicketCache records a short-lived rendezvous presence ticket for a
// device, folded into a bounded TTL'd cache in account state.
type PresenceTicketCache struct {
	DeviceID  ids.DeviceId
	Ticket    []byte
	ExpiresAt ids.Epoch
}

func (PresenceTicketCache) Kind() PayloadKind { return KindPresenceTicketCache }
func (PresenceTicketCache) Monotone() bool    { return true }

// CapabilityDelegation grants resource/action rights from one authority to
// another, folded into the account's capability graph (§6's Biscuit-style
// capability surface).
type CapabilityDelegation struct {
	FromAuthority ids.AuthorityId
	ToAuthority   ids.AuthorityId
	Resource      string
	Action        string
	Constraints   map[string]string
	ExpiresAt     ids.Epoch
}

func (CapabilityDelegation) Kind() PayloadKind { return KindCapabilityDelegation }
func (CapabilityDelegation) Monotone() bool    { return true }

type CapabilityRevocation struct {
	FromAuthority ids.AuthorityId
	ToAuthority   ids.AuthorityId
	Resource      string
	Action        string
}

func (CapabilityRevocation) Kind() PayloadKind { return KindCapabilityRevocation }
func (CapabilityRevocation) Monotone() bool    { return false }

// CgkaOperation is a single add/remove/update against the group's symmetric
// key tree (§4.5.6, BeeKEM-style CGKA).
type CgkaOperation struct {
	GroupID    ids.SessionId
	TargetDevice ids.DeviceId
	OpKind     string // "add" | "remove" | "update"
	AtEpoch    ids.Epoch
	Payload    []byte
}

func (CgkaOperation) Kind() PayloadKind { return KindCgkaOperation }
func (CgkaOperation) Monotone() bool    { return true }

type CgkaStateSync struct {
	GroupID ids.SessionId
	AtEpoch ids.Epoch
	Digest  [32]byte
}

func (CgkaStateSync) Kind() PayloadKind { return KindCgkaStateSync }
func (CgkaStateSync) Monotone() bool    { return true }

// CgkaEpochTransition marks a batched application of committed operations
// and rotates the application secret; applying a batch always produces
// exactly one epoch increment (§4.5.6 invariant).
type CgkaEpochTransition struct {
	GroupID  ids.SessionId
	FromEpoch ids.Epoch
	ToEpoch   ids.Epoch
	AppliedOps int
}

func (CgkaEpochTransition) Kind() PayloadKind { return KindCgkaEpochTransition }
func (CgkaEpochTransition) Monotone() bool    { return false }

// IncrementCounter is a monotone per-scope counter bump (CRDT-mergeable).
type IncrementCounter struct {
	Scope string
	By    uint64
}

func (IncrementCounter) Kind() PayloadKind { return KindIncrementCounter }
func (IncrementCounter) Monotone() bool    { return true }

// ReserveCounterRange reserves [Start, Start+Count) exclusively for the
// requesting principal, coordinating disjoint counter ranges across devices.
type ReserveCounterRange struct {
	Scope string
	Start uint64
	Count uint64
}

func (ReserveCounterRange) Kind() PayloadKind { return KindReserveCounterRange }
func (ReserveCounterRange) Monotone() bool    { return false }
