package journal

import (
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// OperationType names the class of critical operation a distributed lock
// guards (§4.5.1).
type OperationType string

const (
	OperationResharing  OperationType = "resharing"
	OperationRecovery   OperationType = "recovery"
	OperationCompaction OperationType = "compaction"
	OperationCGKACommit OperationType = "cgka-commit"
)

// RequestOperationLock carries a device's lottery ticket into the race for a
// given operation type's lock.
type RequestOperationLock struct {
	OperationType OperationType
	DeviceID      ids.DeviceId
	LotteryTicket xcrypto.Hash256
}

func (RequestOperationLock) Kind() PayloadKind { return KindRequestOperationLock }
func (RequestOperationLock) Monotone() bool    { return true }

// GrantOperationLock is the threshold-signed winner of a lock race (§4.4.4):
// non-monotone, must arrive via leaderless consensus.
type GrantOperationLock struct {
	OperationType OperationType
	WinnerDevice  ids.DeviceId
	ExpiresAt     ids.Epoch
}

func (GrantOperationLock) Kind() PayloadKind { return KindGrantOperationLock }
func (GrantOperationLock) Monotone() bool    { return false }

// ReleaseOperationLock is emitted by any lock holder on operation completion.
type ReleaseOperationLock struct {
	OperationType OperationType
}

func (ReleaseOperationLock) Kind() PayloadKind { return KindReleaseOperationLock }
func (ReleaseOperationLock) Monotone() bool    { return false }
