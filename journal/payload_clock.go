package journal

// EpochTick forces an idle account's Lamport clock to advance (§9 "global
// clock"): there is no process-wide mutable clock, so an account with no
// other activity still needs a way to publish that time has passed.
type EpochTick struct{}

func (EpochTick) Kind() PayloadKind { return KindEpochTick }
func (EpochTick) Monotone() bool    { return true }
