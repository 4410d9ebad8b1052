package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

// CgkaGroupPhase is the outer group lifecycle (§4.5.6).
type CgkaGroupPhase uint8

const (
	CgkaGroupInitialized CgkaGroupPhase = iota + 1
	CgkaMembershipChange
	CgkaEpochTransitioning
	CgkaGroupStable
)

// CgkaOperationPhase is the inner per-operation lifecycle nested within a
// membership-change round.
type CgkaOperationPhase uint8

const (
	CgkaOperationValidating CgkaOperationPhase = iota + 1
	CgkaOperationApplying
	CgkaOperationApplied
	CgkaOperationFailed
)

var ErrCgkaWrongEpoch = errors.New("engine: cgka operation does not target the group's current epoch")

type cgkaGroupState struct {
	phase       CgkaGroupPhase
	epoch       ids.Epoch
	pendingOps  int
	opPhases    map[string]CgkaOperationPhase // keyed by op's TargetDevice+OpKind, see opKey
}

func opKey(op *journal.CgkaOperation) string {
	return string(op.TargetDevice[:]) + "|" + op.OpKind
}

// CgkaChoreography drives a BeeKEM-style continuous group key agreement
// state machine nested under a CGKA session (§4.5.6): individual
// add/remove/update operations validate and apply against the group's
// current epoch, and applying a batch of them transitions to exactly one
// new epoch.
type CgkaChoreography struct {
	signer *DeviceSigner

	mu     sync.Mutex
	groups map[ids.SessionId]*cgkaGroupState
}

func NewCgkaChoreography(signer *DeviceSigner) *CgkaChoreography {
	return &CgkaChoreography{signer: signer, groups: map[ids.SessionId]*cgkaGroupState{}}
}

func (c *CgkaChoreography) group(id ids.SessionId) *cgkaGroupState {
	g, ok := c.groups[id]
	if !ok {
		g = &cgkaGroupState{phase: CgkaGroupInitialized, opPhases: map[string]CgkaOperationPhase{}}
		c.groups[id] = g
	}
	return g
}

func (c *CgkaChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.group(sessionID)

	switch p := e.Payload.(type) {
	case *journal.CgkaOperation:
		g.phase = CgkaMembershipChange
		g.opPhases[opKey(p)] = CgkaOperationValidating
		g.pendingOps++
	case *journal.CgkaStateSync:
		g.phase = CgkaGroupStable
	case *journal.CgkaEpochTransition:
		g.phase = CgkaEpochTransitioning
		g.epoch = p.ToEpoch
		g.pendingOps = 0
		for k := range g.opPhases {
			g.opPhases[k] = CgkaOperationApplied
		}
		g.phase = CgkaGroupStable
	}
	return nil
}

// ProposeOperation validates that atEpoch is the group's current epoch
// and, if so, appends it (monotone: every replica independently validates
// and applies the same set of pending operations the same way).
func (c *CgkaChoreography) ProposeOperation(groupID ids.SessionId, target ids.DeviceId, opKind string, atEpoch ids.Epoch, body []byte) (journal.Receipt, error) {
	c.mu.Lock()
	g := c.group(groupID)
	current := g.epoch
	c.mu.Unlock()

	if atEpoch != current {
		return journal.Receipt{}, ErrCgkaWrongEpoch
	}
	return c.signer.Append(&journal.CgkaOperation{
		GroupID: groupID, TargetDevice: target, OpKind: opKind, AtEpoch: atEpoch, Payload: body,
	})
}

// SyncState appends a digest checkpoint of the group's ratcheted state,
// letting a newly-online replica confirm it has converged (§4.5.6
// GroupStable phase) without replaying every operation.
func (c *CgkaChoreography) SyncState(groupID ids.SessionId, digest [32]byte) (journal.Receipt, error) {
	c.mu.Lock()
	epoch := c.group(groupID).epoch
	c.mu.Unlock()
	return c.signer.Append(&journal.CgkaStateSync{GroupID: groupID, AtEpoch: epoch, Digest: digest})
}

// PendingOperationCount reports how many CgkaOperations have accumulated
// against the group's current epoch since the last transition, for a
// coordinator deciding when to batch-apply them.
func (c *CgkaChoreography) PendingOperationCount(groupID ids.SessionId) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.group(groupID).pendingOps
}

// ProposeEpochTransition submits CgkaEpochTransition as a consensus
// proposal: applying a batch of appliedOps operations always produces
// exactly one epoch increment (§4.5.6 invariant), never zero and never
// more than one regardless of how many operations were batched.
func (c *CgkaChoreography) ProposeEpochTransition(consensus *Consensus, groupID ids.SessionId, appliedOps int) (Proposal, error) {
	c.mu.Lock()
	g := c.group(groupID)
	from := g.epoch
	to := ids.Next(from, from)
	c.mu.Unlock()

	payload := &journal.CgkaEpochTransition{GroupID: groupID, FromEpoch: from, ToEpoch: to, AppliedOps: appliedOps}
	e := c.signer.builder.Build(payload, 0)
	p := Proposal{Event: e, LotteryTicket: xcrypto.Sum256(groupID[:], []byte("cgka-epoch"))}
	consensus.Propose(p)
	return p, nil
}
