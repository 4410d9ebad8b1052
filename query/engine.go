package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// ConsensusTracker records which in-flight consensus instances (§4.4) have
// settled, and which scopes each one affects, so ReadCommitted and
// ReadLatest isolation can block on exactly the right set.
type ConsensusTracker struct {
	mu       sync.Mutex
	settled  map[string]bool
	scopesOf map[string][]string // consensus id -> affected scope strings
	waiters  map[string][]chan struct{}
}

func NewConsensusTracker() *ConsensusTracker {
	return &ConsensusTracker{
		settled:  map[string]bool{},
		scopesOf: map[string][]string{},
		waiters:  map[string][]chan struct{}{},
	}
}

// Submit registers a new in-flight consensus instance and the scopes it
// will mutate once it commits.
func (c *ConsensusTracker) Submit(consensusID string, scopes []ScopeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled[consensusID] = false
	keys := make([]string, len(scopes))
	for i, s := range scopes {
		keys[i] = s.String()
	}
	c.scopesOf[consensusID] = keys
}

// Settle marks a consensus instance as committed or irrevocably failed and
// wakes any waiters blocked on it.
func (c *ConsensusTracker) Settle(consensusID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settled[consensusID] = true
	for _, ch := range c.waiters[consensusID] {
		close(ch)
	}
	delete(c.waiters, consensusID)
}

func (c *ConsensusTracker) isSettled(consensusID string) bool {
	settled, known := c.settled[consensusID]
	return !known || settled // unknown ids are treated as already settled/never submitted
}

func (c *ConsensusTracker) pendingAffecting(scope ScopeId) []string {
	prefix := scope.String()
	var out []string
	for id, settled := range c.settled {
		if settled {
			continue
		}
		for _, key := range c.scopesOf[id] {
			if scopeKeyStartsWith(key, prefix) || scopeKeyStartsWith(prefix, key) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// waitFor blocks until every id in ids has settled or ctx is cancelled.
func (c *ConsensusTracker) waitFor(ctx context.Context, consensusIDs []string) error {
	for _, id := range consensusIDs {
		c.mu.Lock()
		if c.isSettled(id) {
			c.mu.Unlock()
			continue
		}
		ch := make(chan struct{})
		c.waiters[id] = append(c.waiters[id], ch)
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrConsensusPending, id, ctx.Err())
		}
	}
	return nil
}

// Engine is the Temporal Query Layer's entry point: it reads journal
// snapshots and the derived FactStore under the isolation level a query
// requests (§4.3).
type Engine struct {
	Journal   *journal.Journal
	Facts     *FactStore
	Config    *ConfigRegistry
	Consensus *ConsensusTracker

	prestateEpochs map[[32]byte]ids.Epoch
}

func NewEngine(j *journal.Journal) *Engine {
	return &Engine{
		Journal:   j,
		Facts:     NewFactStore(),
		Config:    NewConfigRegistry(),
		Consensus: NewConsensusTracker(),
	}
}

// Query resolves facts in scope (and, if recursive, its descendants) under
// the requested isolation level.
func (e *Engine) Query(ctx context.Context, scope ScopeId, recursive bool, iso Isolation) ([]Fact, error) {
	switch iso.Kind {
	case IsolationReadUncommitted, 0:
		return e.Facts.Current(scope, recursive), nil

	case IsolationReadCommitted:
		if err := e.Consensus.waitFor(ctx, iso.WaitFor); err != nil {
			return nil, err
		}
		return e.Facts.Current(scope, recursive), nil

	case IsolationSnapshot:
		_, hasHead, _ := e.Journal.Head()
		if !hasHead {
			return nil, ErrPrestateCompacted
		}
		// The prestate's epoch is recovered by the caller via
		// journal.PrestateAt; Engine only serves facts already known to
		// have existed at or before that epoch once resolved.
		epoch, ok := e.epochForPrestate(iso.PrestateHash)
		if !ok {
			return nil, ErrPrestateCompacted
		}
		return e.Facts.AsOfEpoch(scope, recursive, epoch), nil

	case IsolationReadLatest:
		pending := e.Consensus.pendingAffecting(iso.Scope)
		if err := e.Consensus.waitFor(ctx, pending); err != nil {
			return nil, err
		}
		return e.Facts.Current(scope, recursive), nil

	default:
		return e.Facts.Current(scope, recursive), nil
	}
}

// epochForPrestate indexes a compaction's resulting state hash back to the
// epoch boundary it was taken at (populated by RecordPrestate as
// CommitCompaction events land, §4.5.5).
func (e *Engine) epochForPrestate(hash [32]byte) (ids.Epoch, bool) {
	epoch, ok := e.prestateEpochs[hash]
	return epoch, ok
}

// RecordPrestate indexes a compaction boundary's resulting state hash to
// its epoch, so a later Snapshot isolation query can resolve it.
func (e *Engine) RecordPrestate(hash [32]byte, epoch ids.Epoch) {
	if e.prestateEpochs == nil {
		e.prestateEpochs = map[[32]byte]ids.Epoch{}
	}
	e.prestateEpochs[hash] = epoch
}

// AsOf resolves an as_of query (§4.3). Only PointEpoch is resolved against
// history; every other point kind returns the current facts.
func (e *Engine) AsOf(point TemporalPoint, scope ScopeId, recursive bool) []Fact {
	switch point.Kind {
	case PointEpoch:
		return e.Facts.AsOfEpoch(scope, recursive, point.Epoch)
	default:
		return e.Facts.Current(scope, recursive)
	}
}

func (e *Engine) Since(fromEpoch ids.Epoch, scope ScopeId, recursive bool) []Delta {
	return e.Facts.Since(scope, recursive, fromEpoch)
}

func (e *Engine) History(from, to ids.Epoch, scope ScopeId, recursive bool) []Version {
	return e.Facts.History(scope, recursive, from, to)
}

// Deadline is a small helper most callers reach for when they want a
// ReadCommitted/ReadLatest wait bounded by a timeout rather than ctx alone.
func Deadline(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
