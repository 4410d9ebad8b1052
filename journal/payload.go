package journal

// PayloadKind tags the ~50 event payload variants (§3.3), grouped by
// protocol family. The numeric values are part of the wire format and must
// never be renumbered once an account has journaled an event of that kind.
type PayloadKind uint16

const (
	KindEpochTick PayloadKind = iota + 1

	KindRequestOperationLock
	KindGrantOperationLock
	KindReleaseOperationLock

	KindInitiateDkdSession
	KindRecordDkdCommitment
	KindRevealDkdPoint
	KindFinalizeDkdSession
	KindAbortDkdSession
	KindHealthCheckRequest
	KindHealthCheckResponse

	KindInitiateResharing
	KindDistributeSubShare
	KindAcknowledgeSubShare
	KindFinalizeResharing
	KindAbortResharing
	KindResharingRollback

	KindInitiateRecovery
	KindCollectGuardianApproval
	KindSubmitRecoveryShare
	KindCompleteRecovery
	KindAbortRecovery
	KindNudgeGuardian

	KindProposeCompaction
	KindAcknowledgeCompaction
	KindCommitCompaction

	KindAddDevice
	KindRemoveDevice
	KindUpdateDeviceNonce
	KindAddGuardian
	KindRemoveGuardian

	KindPresenceTicketCache

	KindCapabilityDelegation
	KindCapabilityRevocation

	KindCgkaOperation
	KindCgkaStateSync
	KindCgkaEpochTransition

	KindIncrementCounter
	KindReserveCounterRange

	KindCreateSession
	KindUpdateSessionStatus
	KindCompleteSession
	KindAbortSession
	KindCleanupExpiredSessions
)

// Payload is implemented by every event payload variant.
type Payload interface {
	Kind() PayloadKind
	// Monotone reports whether this payload's effect on account state is
	// order-independent under CRDT merge (§4.2). Non-monotone payloads must
	// arrive pre-authorized by the leaderless consensus protocol (§4.4).
	Monotone() bool
}
