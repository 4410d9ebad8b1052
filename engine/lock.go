package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

var ErrLockCollectionWindowOpen = errors.New("engine: lock request collection window still open")

// LockChoreography implements the distributed-lock protocol (§4.5.1): any
// device wanting to run a critical operation races for it by lottery
// ticket, and the group threshold-signs a grant for whichever request had
// the smallest ticket once the collection window closes.
type LockChoreography struct {
	signer    *DeviceSigner
	consensus *Consensus

	mu       sync.Mutex
	requests map[journal.OperationType][]journal.RequestOperationLock
}

func NewLockChoreography(signer *DeviceSigner, consensus *Consensus) *LockChoreography {
	return &LockChoreography{
		signer:    signer,
		consensus: consensus,
		requests:  map[journal.OperationType][]journal.RequestOperationLock{},
	}
}

// Request enters this device into the race for operationType's lock,
// computing its lottery ticket from the journal's current head per the
// GLOSSARY definition.
func (lc *LockChoreography) Request(operationType journal.OperationType) (journal.Receipt, error) {
	head, _, _ := lc.signer.builder.J.Head()
	ticket := LotteryTicket([16]byte(lc.signer.DeviceID()), head)
	payload := &journal.RequestOperationLock{
		OperationType: operationType,
		DeviceID:      lc.signer.DeviceID(),
		LotteryTicket: ticket,
	}
	return lc.signer.Append(payload)
}

// HandleEvent folds observed RequestOperationLock events into this
// choreography's view of the race, satisfying the Choreography interface.
func (lc *LockChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	req, ok := e.Payload.(*journal.RequestOperationLock)
	if !ok {
		return nil
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.requests[req.OperationType] = append(lc.requests[req.OperationType], *req)
	return nil
}

// Winner returns the smallest-ticket request collected so far for
// operationType. Callers close the collection window themselves (a fixed
// number of epochs, or when every expected participant has been heard from)
// and call this once it has closed.
func (lc *LockChoreography) Winner(operationType journal.OperationType) (journal.RequestOperationLock, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	reqs := lc.requests[operationType]
	if len(reqs) == 0 {
		return journal.RequestOperationLock{}, false
	}
	best := reqs[0]
	for _, r := range reqs[1:] {
		if bytes.Compare(r.LotteryTicket.Bytes(), best.LotteryTicket.Bytes()) < 0 {
			best = r
		}
	}
	return best, true
}

// ProposeGrant submits the race's winning request as a consensus proposal
// for GrantOperationLock, to be threshold-signed and appended once enough
// Round-2 shares arrive (§4.4, §4.5.1). expiresAt is the epoch the lock
// self-expires at if never explicitly released.
func (lc *LockChoreography) ProposeGrant(operationType journal.OperationType, expiresAt ids.Epoch) (Proposal, error) {
	winner, ok := lc.Winner(operationType)
	if !ok {
		return Proposal{}, ErrLockCollectionWindowOpen
	}
	payload := &journal.GrantOperationLock{
		OperationType: operationType,
		WinnerDevice:  winner.DeviceID,
		ExpiresAt:     expiresAt,
	}
	e := lc.signer.builder.Build(payload, 0)
	p := Proposal{Event: e, LotteryTicket: winner.LotteryTicket}
	lc.consensus.Propose(p)
	return p, nil
}

// ProposeRelease submits a release of operationType's held lock as a
// consensus proposal; releases are non-monotone (any party may forge one
// claiming a different winner's lock otherwise) so they go through the same
// threshold-signed path as grants.
func (lc *LockChoreography) ProposeRelease(operationType journal.OperationType) Proposal {
	payload := &journal.ReleaseOperationLock{OperationType: operationType}
	e := lc.signer.builder.Build(payload, 0)
	head, _, _ := lc.signer.builder.J.Head()
	p := Proposal{Event: e, LotteryTicket: LotteryTicket([16]byte(lc.signer.DeviceID()), head)}
	lc.consensus.Propose(p)
	return p
}
