package journal

// payloadConstructors maps each wire kind to a fresh, addressable zero value
// ready to be unmarshaled into. Every variant named in §3.3 is registered
// here; decodePayload fails safe ("unknown payload kind" error) for anything else,
// satisfying invariant 4's "higher-versioned events cause the reader to fail
// safe" in spirit for payload kinds a reader doesn't recognize.
var payloadConstructors = map[PayloadKind]func() Payload{
	KindEpochTick: func() Payload { return &EpochTick{} },

	KindRequestOperationLock: func() Payload { return &RequestOperationLock{} },
	KindGrantOperationLock:   func() Payload { return &GrantOperationLock{} },
	KindReleaseOperationLock: func() Payload { return &ReleaseOperationLock{} },

	KindInitiateDkdSession:  func() Payload { return &InitiateDkdSession{} },
	KindRecordDkdCommitment: func() Payload { return &RecordDkdCommitment{} },
	KindRevealDkdPoint:      func() Payload { return &RevealDkdPoint{} },
	KindFinalizeDkdSession:  func() Payload { return &FinalizeDkdSession{} },
	KindAbortDkdSession:     func() Payload { return &AbortDkdSession{} },
	KindHealthCheckRequest:  func() Payload { return &HealthCheckRequest{} },
	KindHealthCheckResponse: func() Payload { return &HealthCheckResponse{} },

	KindInitiateResharing:   func() Payload { return &InitiateResharing{} },
	KindDistributeSubShare:  func() Payload { return &DistributeSubShare{} },
	KindAcknowledgeSubShare: func() Payload { return &AcknowledgeSubShare{} },
	KindFinalizeResharing:   func() Payload { return &FinalizeResharing{} },
	KindAbortResharing:      func() Payload { return &AbortResharing{} },
	KindResharingRollback:   func() Payload { return &ResharingRollback{} },

	KindInitiateRecovery:        func() Payload { return &InitiateRecovery{} },
	KindCollectGuardianApproval: func() Payload { return &CollectGuardianApproval{} },
	KindSubmitRecoveryShare:     func() Payload { return &SubmitRecoveryShare{} },
	KindCompleteRecovery:        func() Payload { return &CompleteRecovery{} },
	KindAbortRecovery:           func() Payload { return &AbortRecovery{} },
	KindNudgeGuardian:           func() Payload { return &NudgeGuardian{} },

	KindProposeCompaction:     func() Payload { return &ProposeCompaction{} },
	KindAcknowledgeCompaction: func() Payload { return &AcknowledgeCompaction{} },
	KindCommitCompaction:      func() Payload { return &CommitCompaction{} },

	KindAddDevice:         func() Payload { return &AddDevice{} },
	KindRemoveDevice:      func() Payload { return &RemoveDevice{} },
	KindUpdateDeviceNonce: func() Payload { return &UpdateDeviceNonce{} },
	KindAddGuardian:       func() Payload { return &AddGuardian{} },
	KindRemoveGuardian:    func() Payload { return &RemoveGuardian{} },

	KindPresenceTicketCache: func() Payload { return &PresenceTicketCache{} },

	KindCapabilityDelegation: func() Payload { return &CapabilityDelegation{} },
	KindCapabilityRevocation: func() Payload { return &CapabilityRevocation{} },

	KindCgkaOperation:      func() Payload { return &CgkaOperation{} },
	KindCgkaStateSync:      func() Payload { return &CgkaStateSync{} },
	KindCgkaEpochTransition: func() Payload { return &CgkaEpochTransition{} },

	KindIncrementCounter:    func() Payload { return &IncrementCounter{} },
	KindReserveCounterRange: func() Payload { return &ReserveCounterRange{} },

	KindCreateSession:          func() Payload { return &CreateSession{} },
	KindUpdateSessionStatus:    func() Payload { return &UpdateSessionStatus{} },
	KindCompleteSession:        func() Payload { return &CompleteSession{} },
	KindAbortSession:           func() Payload { return &AbortSession{} },
	KindCleanupExpiredSessions: func() Payload { return &CleanupExpiredSessions{} },
}
