package journal

import (
	"bytes"
	"sort"

	"github.com/hxrts/aura/ids"
)

// Merge folds a foreign, already-validated event log into the receiving
// journal (§4.3). Monotone payloads merge unconditionally in
// (epoch_at_write, event_id) order; a non-monotone payload that conflicts
// with one already folded is rejected, since non-monotone effects are only
// safe to apply once leaderless consensus (§4.4) has already picked a
// single winner.
func (j *Journal) Merge(foreign []Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	known := make(map[[16]byte]bool, len(j.events))
	for _, e := range j.events {
		known[[16]byte(e.EventID)] = true
	}

	incoming := make([]Event, 0, len(foreign))
	for _, e := range foreign {
		if known[[16]byte(e.EventID)] {
			continue
		}
		incoming = append(incoming, e)
	}
	sortEventsCausal(incoming)

	trial := j.state.Clone()
	merged := append([]Event(nil), j.events...)
	head, hasHead, epoch := j.head, j.hasHead, j.epoch

	for _, e := range incoming {
		if !e.Payload.Monotone() {
			if err := j.rejectConflictingNonMonotone(trial, e); err != nil {
				return err
			}
		}
		if err := apply(trial, e); err != nil {
			return err
		}
		merged = append(merged, e)
		if h, err := e.PostAppendHash(); err == nil {
			head = h
			hasHead = true
		}
		epoch = ids.Next(epoch, e.EpochAtWrite)
	}

	j.events = merged
	j.state = trial
	j.snapshot = trial.Clone()
	j.head, j.hasHead, j.epoch = head, hasHead, epoch
	return nil
}

// rejectConflictingNonMonotone refuses a non-monotone event whose target
// (lock, DKD root) was already mutated by a different already-folded
// non-monotone event at the same logical position. A correct producer only
// emits a non-monotone event after consensus already serialized it, so an
// actual conflict here means two branches diverged and must be resolved by
// the choreography layer, not silently merged.
func (j *Journal) rejectConflictingNonMonotone(state *AccountState, e Event) error {
	switch p := e.Payload.(type) {
	case *GrantOperationLock:
		if existing, ok := state.Locks[p.OperationType]; ok && existing.WinnerDevice != p.WinnerDevice {
			return newValidationError("merge.lock_no_conflicting_winner", ErrMergeConflict)
		}
	case *FinalizeDkdSession:
		if existing, ok := state.PreservedRoots[p.SessionID]; ok && !bytes.Equal(existing.Root.Bytes(), p.CommitmentRoot.Bytes()) {
			return newValidationError("merge.dkd_root_stable", ErrMergeConflict)
		}
	}
	return nil
}

// sortEventsCausal orders events by (epoch_at_write, event_id) per §4.3's
// CRDT merge tie-break rule.
func sortEventsCausal(events []Event) {
	sort.SliceStable(events, func(i, k int) bool {
		if events[i].EpochAtWrite != events[k].EpochAtWrite {
			return events[i].EpochAtWrite < events[k].EpochAtWrite
		}
		return bytes.Compare(events[i].EventID[:], events[k].EventID[:]) < 0
	})
}
