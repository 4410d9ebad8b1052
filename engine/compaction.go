package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

var ErrCompactionNotAcknowledged = errors.New("engine: not every device has acknowledged the compaction proposal")

type compactionSessionState struct {
	proposal  *journal.ProposeCompaction
	acked     map[ids.DeviceId]bool
	expecting []ids.DeviceId
}

// CompactionChoreography wraps journal.Compact in a propose/ack/commit
// round (§4.5.5): the proposer names the cut point and the commitment
// roots that must remain reachable, every device acknowledges it has the
// information it needs preserved, and only then is CommitCompaction
// threshold-signed and the journal's prefix actually pruned.
type CompactionChoreography struct {
	signer *DeviceSigner
	j      *journal.Journal

	mu       sync.Mutex
	sessions map[ids.SessionId]*compactionSessionState
}

func NewCompactionChoreography(signer *DeviceSigner, j *journal.Journal) *CompactionChoreography {
	return &CompactionChoreography{signer: signer, j: j, sessions: map[ids.SessionId]*compactionSessionState{}}
}

func (c *CompactionChoreography) session(id ids.SessionId) *compactionSessionState {
	s, ok := c.sessions[id]
	if !ok {
		s = &compactionSessionState{acked: map[ids.DeviceId]bool{}}
		c.sessions[id] = s
	}
	return s
}

func (c *CompactionChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(sessionID)

	switch p := e.Payload.(type) {
	case *journal.ProposeCompaction:
		cp := *p
		s.proposal = &cp
	case *journal.AcknowledgeCompaction:
		s.acked[p.DeviceID] = true
	}
	return nil
}

func (c *CompactionChoreography) Propose(sessionID ids.SessionId, beforeEpoch ids.Epoch, preserveRoots [][32]byte, expecting []ids.DeviceId) (journal.Receipt, error) {
	c.mu.Lock()
	c.session(sessionID).expecting = expecting
	c.mu.Unlock()
	return c.signer.Append(&journal.ProposeCompaction{
		SessionID: sessionID, CompactBeforeEpoch: beforeEpoch, PreserveRoots: preserveRoots,
	})
}

func (c *CompactionChoreography) Acknowledge(sessionID ids.SessionId) (journal.Receipt, error) {
	return c.signer.Append(&journal.AcknowledgeCompaction{SessionID: sessionID, DeviceID: c.signer.DeviceID()})
}

// ReadyToCommit reports whether every device this proposal expected an
// acknowledgement from has sent one.
func (c *CompactionChoreography) ReadyToCommit(sessionID ids.SessionId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(sessionID)
	if s.proposal == nil || len(s.expecting) == 0 {
		return false
	}
	for _, d := range s.expecting {
		if !s.acked[d] {
			return false
		}
	}
	return true
}

// ProposeCommit submits CommitCompaction as a consensus proposal once every
// acknowledgement is in; the caller supplies resultingStateHash (a hash of
// the account state as of CompactBeforeEpoch, verifiable by any device
// replaying up to that point).
func (c *CompactionChoreography) ProposeCommit(consensus *Consensus, sessionID ids.SessionId, resultingStateHash [32]byte) (Proposal, error) {
	c.mu.Lock()
	s := c.session(sessionID)
	if s.proposal == nil {
		c.mu.Unlock()
		return Proposal{}, ErrCompactionNotAcknowledged
	}
	ready := len(s.expecting) > 0
	for _, d := range s.expecting {
		if !s.acked[d] {
			ready = false
			break
		}
	}
	if !ready {
		c.mu.Unlock()
		return Proposal{}, ErrCompactionNotAcknowledged
	}
	payload := &journal.CommitCompaction{
		SessionID: sessionID, CompactBeforeEpoch: s.proposal.CompactBeforeEpoch,
		ResultingStateHash: resultingStateHash, PreserveRoots: s.proposal.PreserveRoots,
	}
	c.mu.Unlock()

	e := c.signer.builder.Build(payload, 0)
	p := Proposal{Event: e, LotteryTicket: xcrypto.Sum256(sessionID[:], []byte("compaction-commit"))}
	consensus.Propose(p)
	return p, nil
}

// ApplyCommit prunes the journal's prefix after CommitCompaction has
// landed, delegating to journal.Journal.Compact.
func (c *CompactionChoreography) ApplyCommit(beforeEpoch ids.Epoch) error {
	return c.j.Compact(beforeEpoch)
}
