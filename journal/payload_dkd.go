package journal

import (
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// DkdAbortReason is one of the Byzantine/liveness failure modes a DKD
// session can abort with (§4.5.2).
type DkdAbortReason struct {
	Timeout           bool
	ByzantineDeviceID ids.DeviceId
	Byzantine         bool
	ByzantineDetails  string
	CollisionDetected bool
}

type InitiateDkdSession struct {
	SessionID    ids.SessionId
	Participants []ids.DeviceId
	TTLEpochs    uint64
}

func (InitiateDkdSession) Kind() PayloadKind { return KindInitiateDkdSession }
func (InitiateDkdSession) Monotone() bool    { return true }

// RecordDkdCommitment is phase 1: commitment_i = Blake3(P_i).
type RecordDkdCommitment struct {
	SessionID  ids.SessionId
	DeviceID   ids.DeviceId
	Commitment xcrypto.Hash256
}

func (RecordDkdCommitment) Kind() PayloadKind { return KindRecordDkdCommitment }
func (RecordDkdCommitment) Monotone() bool    { return true }

// RevealDkdPoint is phase 2: the device reveals P_i; peers check
// Blake3(P_i) == commitment_i.
type RevealDkdPoint struct {
	SessionID ids.SessionId
	DeviceID  ids.DeviceId
	Point     [32]byte
}

func (RevealDkdPoint) Kind() PayloadKind { return KindRevealDkdPoint }
func (RevealDkdPoint) Monotone() bool    { return true }

// FinalizeDkdSession publishes the derived identity's public key along with
// a Merkle root over the session's commitments, so recovery proofs can later
// show a given P_i was part of the session without retaining every
// commitment event (survives compaction).
type FinalizeDkdSession struct {
	SessionID          ids.SessionId
	DerivedPublicKey   [32]byte
	CommitmentRoot     xcrypto.Hash256
	CommitmentMMRSize  uint64
}

func (FinalizeDkdSession) Kind() PayloadKind { return KindFinalizeDkdSession }
func (FinalizeDkdSession) Monotone() bool    { return false }

type AbortDkdSession struct {
	SessionID ids.SessionId
	Reason    DkdAbortReason
}

func (AbortDkdSession) Kind() PayloadKind { return KindAbortDkdSession }
func (AbortDkdSession) Monotone() bool    { return false }

type HealthCheckRequest struct {
	SessionID ids.SessionId
	FromDevice ids.DeviceId
	ToDevice   ids.DeviceId
}

func (HealthCheckRequest) Kind() PayloadKind { return KindHealthCheckRequest }
func (HealthCheckRequest) Monotone() bool    { return true }

type HealthCheckResponse struct {
	SessionID ids.SessionId
	FromDevice ids.DeviceId
	Alive      bool
}

func (HealthCheckResponse) Kind() PayloadKind { return KindHealthCheckResponse }
func (HealthCheckResponse) Monotone() bool    { return true }
