package query

import (
	"sort"

	"github.com/hxrts/aura/ids"
)

// factRecord stamps a Fact with the epoch it became visible at, supporting
// as_of/since/history time travel (§4.3) without needing a second copy of
// the journal.
type factRecord struct {
	Epoch ids.Epoch
	Fact  Fact
}

// FactStore holds the scoped fact log derived from journal events. It is
// append-only per scope and never mutates a previously stamped record,
// matching the journal's own append-only discipline.
type FactStore struct {
	byScope map[string][]factRecord
}

func NewFactStore() *FactStore {
	return &FactStore{byScope: map[string][]factRecord{}}
}

func (s *FactStore) Append(epoch ids.Epoch, f Fact) {
	key := f.Scope.String()
	s.byScope[key] = append(s.byScope[key], factRecord{Epoch: epoch, Fact: f})
}

// Current returns every fact visible in scope (and, if recursive, its
// descendants) as of the store's latest state.
func (s *FactStore) Current(scope ScopeId, recursive bool) []Fact {
	return s.asOfEpoch(scope, recursive, nil)
}

// AsOfEpoch returns facts visible at or before epoch.
func (s *FactStore) AsOfEpoch(scope ScopeId, recursive bool, epoch ids.Epoch) []Fact {
	return s.asOfEpoch(scope, recursive, &epoch)
}

func (s *FactStore) asOfEpoch(scope ScopeId, recursive bool, maxEpoch *ids.Epoch) []Fact {
	var out []Fact
	prefix := scope.String()
	for key, records := range s.byScope {
		if recursive {
			if !scopeKeyStartsWith(key, prefix) {
				continue
			}
		} else if key != prefix {
			continue
		}
		for _, r := range records {
			if maxEpoch != nil && r.Epoch > *maxEpoch {
				continue
			}
			out = append(out, r.Fact)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID.String() < out[k].ID.String() })
	return out
}

// Since returns deltas (newly visible facts) strictly after fromEpoch.
func (s *FactStore) Since(scope ScopeId, recursive bool, fromEpoch ids.Epoch) []Delta {
	var out []Delta
	for key, records := range s.byScope {
		if !recursive && key != scope.String() {
			continue
		}
		for _, r := range records {
			if r.Epoch <= fromEpoch {
				continue
			}
			out = append(out, Delta{FactID: r.Fact.ID, Fact: r.Fact})
		}
	}
	return out
}

// History returns every version of facts in scope between from and to
// (inclusive), ordered by epoch.
func (s *FactStore) History(scope ScopeId, recursive bool, from, to ids.Epoch) []Version {
	var out []Version
	for key, records := range s.byScope {
		if !recursive && key != scope.String() {
			continue
		}
		if recursive && !scopeKeyStartsWith(key, scope.String()) {
			continue
		}
		for _, r := range records {
			if r.Epoch < from || r.Epoch > to {
				continue
			}
			out = append(out, Version{Epoch: r.Epoch, Fact: r.Fact})
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Epoch < out[k].Epoch })
	return out
}

// scopeKeyStartsWith compares rendered scope strings on a "/"-segment
// boundary, so "a/b" is a prefix of "a/b/c" but not of "a/bc".
func scopeKeyStartsWith(key, prefix string) bool {
	if key == prefix {
		return true
	}
	return len(key) > len(prefix) && key[:len(prefix)] == prefix && key[len(prefix)] == '/'
}
