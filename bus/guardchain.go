package bus

import (
	"context"
	"fmt"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/internal/obsmetrics"
)

// denials counts guard-chain denials per stage, for whatever caller wants to
// watch which stage is rejecting sends most.
var denials = obsmetrics.NewRegistry(
	string(StageAuthorization), string(StageFlowControl), string(StageLeakageCheck), string(StageJournalAppend),
)

// DenialCounts returns the current per-stage denial counts.
func DenialCounts() map[string]int64 { return denials.Snapshot() }

// GuardStage names one of the four fixed-order checks forward_to_peer runs
// before a send is allowed (§4.6, §8 property 12). The order is load-bearing:
// later stages must never execute once an earlier one denies.
type GuardStage string

const (
	StageAuthorization GuardStage = "authorization"
	StageFlowControl   GuardStage = "flow_control"
	StageLeakageCheck  GuardStage = "leakage_check"
	StageJournalAppend GuardStage = "journal_append"
)

var guardStageOrder = []GuardStage{StageAuthorization, StageFlowControl, StageLeakageCheck, StageJournalAppend}

// Denial is the structured reason a guard chain stage refused to proceed.
type Denial struct {
	Stage  GuardStage
	Reason string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("guard chain denied at %s: %s", d.Stage, d.Reason)
}

// GuardFunc evaluates one stage for a candidate send.
type GuardFunc func(ctx context.Context, peer ids.DeviceId, env Envelope) error

// GuardChain runs its four stages in the fixed order authorization ->
// flow-control -> leakage-check -> journal-append, stopping at the first
// denial.
type GuardChain struct {
	Authorization GuardFunc
	FlowControl   GuardFunc
	LeakageCheck  GuardFunc
	JournalAppend GuardFunc
}

// Evaluate runs every configured stage in fixed order; a nil stage is
// treated as an unconditional pass (useful for tests exercising only a
// subset of the chain).
func (g GuardChain) Evaluate(ctx context.Context, peer ids.DeviceId, env Envelope) error {
	stages := map[GuardStage]GuardFunc{
		StageAuthorization: g.Authorization,
		StageFlowControl:   g.FlowControl,
		StageLeakageCheck:  g.LeakageCheck,
		StageJournalAppend: g.JournalAppend,
	}
	for _, stage := range guardStageOrder {
		fn := stages[stage]
		if fn == nil {
			continue
		}
		if err := fn(ctx, peer, env); err != nil {
			denials.Get(string(stage)).Inc()
			return &Denial{Stage: stage, Reason: err.Error()}
		}
	}
	return nil
}
