package journal

import "github.com/hxrts/aura/ids"

// ProtocolType names the closed family of choreographies the engine runs
// (§9 "dynamic dispatch over protocols").
type ProtocolType string

const (
	ProtocolLock       ProtocolType = "lock"
	ProtocolDKD        ProtocolType = "dkd"
	ProtocolResharing  ProtocolType = "resharing"
	ProtocolRecovery   ProtocolType = "recovery"
	ProtocolCompaction ProtocolType = "compaction"
	ProtocolCGKA       ProtocolType = "cgka"
)

// SessionStatus mirrors the lifecycle in §4.5: Active -> Completed|Failed.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

type CreateSession struct {
	SessionID    ids.SessionId
	ProtocolType ProtocolType
	Participants []ids.DeviceId
	StartEpoch   ids.Epoch
	TTLEpochs    uint64
	Metadata     map[string]string
}

func (CreateSession) Kind() PayloadKind { return KindCreateSession }
func (CreateSession) Monotone() bool    { return true }

type UpdateSessionStatus struct {
	SessionID ids.SessionId
	Status    SessionStatus
}

func (UpdateSessionStatus) Kind() PayloadKind { return KindUpdateSessionStatus }
func (UpdateSessionStatus) Monotone() bool    { return true }

type CompleteSession struct {
	SessionID ids.SessionId
	Outcome   string
}

func (CompleteSession) Kind() PayloadKind { return KindCompleteSession }
func (CompleteSession) Monotone() bool    { return false }

type AbortSession struct {
	SessionID    ids.SessionId
	Reason       string
	BlamedDevice ids.DeviceId
	HasBlamed    bool
}

func (AbortSession) Kind() PayloadKind { return KindAbortSession }
func (AbortSession) Monotone() bool    { return false }

// CleanupExpiredSessions is a single append removing a batch of expired
// sessions from the active-session map.
type CleanupExpiredSessions struct {
	SessionIDs []ids.SessionId
	AtEpoch    ids.Epoch
}

func (CleanupExpiredSessions) Kind() PayloadKind { return KindCleanupExpiredSessions }
func (CleanupExpiredSessions) Monotone() bool    { return true }
