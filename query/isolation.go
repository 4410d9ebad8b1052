package query

// IsolationKind tags which of the four read-isolation levels a Query
// requests (§4.3).
type IsolationKind uint8

const (
	IsolationReadUncommitted IsolationKind = iota + 1
	IsolationReadCommitted
	IsolationSnapshot
	IsolationReadLatest
)

// Isolation is the full isolation request, carrying the extra parameters
// each kind needs.
type Isolation struct {
	Kind IsolationKind

	// ReadCommitted: block until every listed consensus instance has
	// committed or irrevocably failed.
	WaitFor []string

	// Snapshot: read against the historical state rooted at this hash;
	// fails with ErrPrestateCompacted if it is no longer reachable.
	PrestateHash [32]byte

	// ReadLatest: wait for pending consensus affecting this scope to
	// quiesce before reading. Not linearizable, only "nothing in flight".
	Scope ScopeId
}

// ReadUncommitted is the default isolation level: snapshot of current CRDT
// state, returned immediately, possibly including facts whose consensus is
// still pending.
func ReadUncommitted() Isolation { return Isolation{Kind: IsolationReadUncommitted} }

func ReadCommitted(waitFor ...string) Isolation {
	return Isolation{Kind: IsolationReadCommitted, WaitFor: waitFor}
}

func Snapshot(prestateHash [32]byte) Isolation {
	return Isolation{Kind: IsolationSnapshot, PrestateHash: prestateHash}
}

func ReadLatest(scope ScopeId) Isolation {
	return Isolation{Kind: IsolationReadLatest, Scope: scope}
}
