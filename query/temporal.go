package query

import (
	"time"

	"github.com/hxrts/aura/ids"
)

// TemporalPointKind tags which coordinate system a TemporalPoint uses.
type TemporalPointKind uint8

const (
	PointPhysicalTime TemporalPointKind = iota + 1
	PointOrderToken
	PointPostTransaction
	PointEpoch
)

// TemporalPoint locates a moment in an account's history along one of four
// axes (§4.3's as_of).
type TemporalPoint struct {
	Kind TemporalPointKind

	At          time.Time // PointPhysicalTime
	OrderToken  uint64    // PointOrderToken: a total-order sequence number
	AfterEvent  [16]byte  // PointPostTransaction: the event whose effects must be visible
	Epoch       ids.Epoch // PointEpoch
}

func AtPhysicalTime(t time.Time) TemporalPoint { return TemporalPoint{Kind: PointPhysicalTime, At: t} }
func AtOrderToken(tok uint64) TemporalPoint    { return TemporalPoint{Kind: PointOrderToken, OrderToken: tok} }
func AfterTransaction(eventID [16]byte) TemporalPoint {
	return TemporalPoint{Kind: PointPostTransaction, AfterEvent: eventID}
}
func AtEpoch(e ids.Epoch) TemporalPoint { return TemporalPoint{Kind: PointEpoch, Epoch: e} }

// Delta is one change observed by Since between two points: an added,
// modified, or removed fact.
type Delta struct {
	FactID FactId
	Fact   Fact
	Removed bool
}

// Version is one entry of a History series: a fact as it stood at a given
// epoch.
type Version struct {
	Epoch ids.Epoch
	Fact  Fact
}
