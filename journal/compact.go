package journal

import (
	"github.com/hxrts/aura/ids"
)

// Compact drops events strictly before beforeEpoch, except any event whose
// effect is still reachable only through the raw log: a FinalizeDkdSession
// (preserved via PreservedRoots, §4.5.2) and the boundary CommitCompaction
// event itself. It must be preceded by a journaled CommitCompaction event
// carrying the same beforeEpoch, per §4.2's "requires a CommitCompaction
// event" rule — Compact only performs the physical prune a CommitCompaction
// has already authorized.
func (j *Journal) Compact(beforeEpoch ids.Epoch) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var committed *CommitCompaction
	for i := len(j.events) - 1; i >= 0; i-- {
		if cc, ok := j.events[i].Payload.(*CommitCompaction); ok && cc.CompactBeforeEpoch == beforeEpoch {
			committed = cc
			break
		}
	}
	if committed == nil {
		return newValidationError("compaction.authorized_by_commit_event", ErrPreconditionFailed)
	}

	kept := make([]Event, 0, len(j.events))
	for _, e := range j.events {
		if e.EpochAtWrite >= beforeEpoch {
			kept = append(kept, e)
			continue
		}
		if _, ok := e.Payload.(*FinalizeDkdSession); ok {
			kept = append(kept, e)
			continue
		}
		if _, ok := e.Payload.(*CommitCompaction); ok {
			kept = append(kept, e)
			continue
		}
	}
	j.events = kept
	return nil
}

// PrestateAt returns the account state immediately before the event with
// the given eventID in the current (possibly already-compacted) log, by
// replaying from genesis. Returns ErrPrestateUnavailable if no event with
// that id remains in the log (e.g. a prior Compact pruned it).
func (j *Journal) PrestateAt(eventID [16]byte) (*AccountState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state := NewAccountState()
	for _, e := range j.events {
		if [16]byte(e.EventID) == eventID {
			return state, nil
		}
		if err := apply(state, e); err != nil {
			return nil, err
		}
	}
	return nil, newValidationError("compaction.prestate_reachable", ErrPrestateUnavailable)
}
