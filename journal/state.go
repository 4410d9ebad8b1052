package journal

import (
	"github.com/hxrts/aura/ids"
)

// DeviceRecord is per-device metadata folded from membership events.
type DeviceRecord struct {
	DeviceID     ids.DeviceId
	Label        string
	PublicKey    [32]byte
	NextNonce    uint64
	ReplayWindow *NonceReplayWindow
	Tombstoned   bool

	// AddedBySession links a recovery-minted device back to the session
	// that produced it, so CompleteRecovery can confirm the linkage (§4.5.4).
	AddedBySession   ids.SessionId
	AddedBySessionOK bool
}

// GuardianRecord is per-guardian metadata.
type GuardianRecord struct {
	GuardianID ids.GuardianId
	Label      string
	PublicKey  [32]byte
	Removed    bool
}

// OperationLock is a live lock installed by GrantOperationLock.
type OperationLock struct {
	OperationType OperationType
	WinnerDevice  ids.DeviceId
	ExpiresAt     ids.Epoch
}

// SessionRecord is the folded view of a session's lifecycle.
type SessionRecord struct {
	SessionID    ids.SessionId
	ProtocolType ProtocolType
	Participants []ids.DeviceId
	StartEpoch   ids.Epoch
	TTLEpochs    uint64
	Status       SessionStatus
	Metadata     map[string]string
}

func (s SessionRecord) ExpiryEpoch() ids.Epoch {
	return s.StartEpoch + ids.Epoch(s.TTLEpochs)
}

// PreservedCommitmentRoot is a DKD commitment Merkle root that survived
// compaction (§4.2 compact, §4.5.2 finalize).
type PreservedCommitmentRoot struct {
	SessionID ids.SessionId
	Root      [32]byte
	MMRSize   uint64
}

// PresenceEntry is a cached rendezvous presence ticket.
type PresenceEntry struct {
	Ticket    []byte
	ExpiresAt ids.Epoch
}

// CapabilityEdge is one edge of the capability/authority delegation graph.
type CapabilityEdge struct {
	Resource    string
	Action      string
	Constraints map[string]string
	ExpiresAt   ids.Epoch
}

// AccountState is the fold of the event log (§3.4).
type AccountState struct {
	GroupPublicKey [32]byte
	Threshold      int
	ParticipantCount int

	Devices   map[ids.DeviceId]*DeviceRecord
	Guardians map[ids.GuardianId]*GuardianRecord

	Locks map[OperationType]OperationLock

	Sessions map[ids.SessionId]*SessionRecord

	PreservedRoots map[ids.SessionId]PreservedCommitmentRoot

	Cooldowns map[cooldownKey]ids.Epoch

	Presence map[ids.DeviceId]PresenceEntry

	// Capabilities maps a delegating authority to the edges it has granted.
	Capabilities map[ids.AuthorityId][]CapabilityEdge

	Counters map[string]uint64
	ReservedRanges map[string][2]uint64 // scope -> [start of first reservation, next free)
}

type cooldownKey struct {
	PrincipalKind AuthorizationKind
	Principal     [16]byte
	OperationType OperationType
}

func NewAccountState() *AccountState {
	return &AccountState{
		Devices:        map[ids.DeviceId]*DeviceRecord{},
		Guardians:      map[ids.GuardianId]*GuardianRecord{},
		Locks:          map[OperationType]OperationLock{},
		Sessions:       map[ids.SessionId]*SessionRecord{},
		PreservedRoots: map[ids.SessionId]PreservedCommitmentRoot{},
		Cooldowns:      map[cooldownKey]ids.Epoch{},
		Presence:       map[ids.DeviceId]PresenceEntry{},
		Capabilities:   map[ids.AuthorityId][]CapabilityEdge{},
		Counters:       map[string]uint64{},
		ReservedRanges: map[string][2]uint64{},
	}
}

// Clone produces a deep-enough copy for snapshot isolation: readers observe
// an immutable snapshot published at each append (§5 "Shared resources").
func (s *AccountState) Clone() *AccountState {
	out := NewAccountState()
	out.GroupPublicKey = s.GroupPublicKey
	out.Threshold = s.Threshold
	out.ParticipantCount = s.ParticipantCount
	for k, v := range s.Devices {
		cp := *v
		out.Devices[k] = &cp
	}
	for k, v := range s.Guardians {
		cp := *v
		out.Guardians[k] = &cp
	}
	for k, v := range s.Locks {
		out.Locks[k] = v
	}
	for k, v := range s.Sessions {
		cp := *v
		cp.Participants = append([]ids.DeviceId(nil), v.Participants...)
		out.Sessions[k] = &cp
	}
	for k, v := range s.PreservedRoots {
		out.PreservedRoots[k] = v
	}
	for k, v := range s.Cooldowns {
		out.Cooldowns[k] = v
	}
	for k, v := range s.Presence {
		out.Presence[k] = v
	}
	for k, v := range s.Capabilities {
		out.Capabilities[k] = append([]CapabilityEdge(nil), v...)
	}
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	for k, v := range s.ReservedRanges {
		out.ReservedRanges[k] = v
	}
	return out
}
