package query

import "errors"

var (
	// ErrPrestateCompacted is returned by Snapshot isolation when the
	// requested historical root is no longer reachable (§4.3).
	ErrPrestateCompacted = errors.New("query: requested prestate has been compacted away")

	// ErrConsensusPending is returned by ReadCommitted if a wait times out
	// or is abandoned before every listed consensus instance settles.
	ErrConsensusPending = errors.New("query: one or more awaited consensus instances has not yet settled")

	// ErrFinalityBelowMinimum names a requested finality weaker than the
	// scope's configured minimum. No function in this package returns it:
	// EffectiveFinality raises a weaker level to the minimum instead.
	ErrFinalityBelowMinimum = errors.New("query: requested finality is below the scope's configured minimum")
)
