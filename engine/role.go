// Package engine implements the Choreographed Protocol Engine (component
// E): role-indexed session state machines for the lock, DKD, resharing,
// recovery, compaction, and CGKA choreographies, plus the leaderless
// threshold-signed consensus protocol they submit non-monotone operations
// through.
package engine

import "github.com/hxrts/aura/ids"

// RoleKind names the closed set of roles a choreography can assign (§4.5,
// §9 "dynamic dispatch over protocols": modeled as a tagged variant, never
// subclassing).
type RoleKind uint8

const (
	RoleInitiator RoleKind = iota + 1
	RoleApprover
	RoleObserver
	RoleGuardian
	RoleCoordinator
	RoleReplica
)

// Role binds a RoleKind to the device occupying it and, for indexed roles
// (Approver(i), Guardian(i), Replica(i)), its position in the participant
// ordering.
type Role struct {
	Kind     RoleKind
	DeviceID ids.DeviceId
	Index    int
	HasIndex bool
}

func (r Role) String() string {
	switch r.Kind {
	case RoleInitiator:
		return "initiator"
	case RoleApprover:
		return "approver"
	case RoleObserver:
		return "observer"
	case RoleGuardian:
		return "guardian"
	case RoleCoordinator:
		return "coordinator"
	case RoleReplica:
		return "replica"
	default:
		return "unknown"
	}
}
