package engine

import (
	"bytes"
	"sync"

	"github.com/hxrts/aura/internal/obsmetrics"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

// aggregations counts threshold signatures this process has aggregated and
// appended, across every Consensus instance.
var aggregations = obsmetrics.NewCounter("consensus_aggregations_total")

// AggregationCount returns the number of threshold signatures aggregated and
// appended so far in this process.
func AggregationCount() int64 { return aggregations.Value() }

// Proposal is one submitter's candidate non-monotone operation (§4.4): a
// fully-built event (see Builder.Build, which fixes event_id/parent_hash/
// epoch_at_write ahead of signing, with Authorization left zero) plus, for
// proposals that race against conflicting alternatives sharing the same
// prestate, the lottery ticket used to break the tie.
type Proposal struct {
	Event         journal.Event
	LotteryTicket xcrypto.Hash256
}

// SignableMessage is the exact byte string every participant signs a share
// over (§4.4 step 2): the event's canonical signable hash, which already
// binds parent_hash (the prestate) and the operation itself.
func (p Proposal) SignableMessage() ([]byte, error) {
	h, err := p.Event.SignableHash()
	if err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}

// LotteryTicket computes Blake3(device_id ‖ last_event_hash), the
// deterministic lock-race tiebreaker (§4.5.1, GLOSSARY).
func LotteryTicket(deviceID [16]byte, lastEventHash xcrypto.Hash256) xcrypto.Hash256 {
	return xcrypto.Sum256(deviceID[:], lastEventHash.Bytes())
}

// instance tracks one prestate's consensus race: the current best
// (smallest-ticket) proposal, collected Round-1 commitments for it, and
// Round-2 shares collected against it. A new, smaller-ticket proposal
// arriving resets the share collection, per §4.4 step 4 ("shares collected
// for the losing proposal are dropped").
type instance struct {
	best        Proposal
	hasBest     bool
	commitments map[xcrypto.ParticipantID]xcrypto.Round1Commitment
	shares      map[xcrypto.ParticipantID]xcrypto.SignatureShare
}

// Consensus runs the leaderless, threshold-signed commit protocol (§4.4):
// any participant observing enough shares may aggregate and append.
type Consensus struct {
	builder        *Builder
	groupPublicKey [32]byte
	threshold      int

	mu        sync.Mutex
	instances map[xcrypto.Hash256]*instance
}

func NewConsensus(b *Builder, groupPublicKey [32]byte, threshold int) *Consensus {
	return &Consensus{
		builder:        b,
		groupPublicKey: groupPublicKey,
		threshold:      threshold,
		instances:      map[xcrypto.Hash256]*instance{},
	}
}

// Propose registers a candidate proposal keyed by its parent hash (the
// prestate it was built against), replacing the current best if p's
// lottery ticket is lexicographically smaller (§4.4 step 4). Returns true if
// p became (or remains) the instance's best proposal.
func (c *Consensus) Propose(p Proposal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst := c.instanceFor(p.Event.ParentHash)

	if !inst.hasBest || bytes.Compare(p.LotteryTicket.Bytes(), inst.best.LotteryTicket.Bytes()) < 0 {
		inst.best = p
		inst.hasBest = true
		inst.commitments = map[xcrypto.ParticipantID]xcrypto.Round1Commitment{}
		inst.shares = map[xcrypto.ParticipantID]xcrypto.SignatureShare{}
		return true
	}
	return p.LotteryTicket == inst.best.LotteryTicket
}

func (c *Consensus) instanceFor(prestateHash xcrypto.Hash256) *instance {
	inst, ok := c.instances[prestateHash]
	if !ok {
		inst = &instance{
			commitments: map[xcrypto.ParticipantID]xcrypto.Round1Commitment{},
			shares:      map[xcrypto.ParticipantID]xcrypto.SignatureShare{},
		}
		c.instances[prestateHash] = inst
	}
	return inst
}

// SubmitCommitment records a participant's Round-1 commitment for the
// current best proposal at prestateHash.
func (c *Consensus) SubmitCommitment(prestateHash xcrypto.Hash256, id xcrypto.ParticipantID, commitment xcrypto.Round1Commitment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst := c.instanceFor(prestateHash)
	inst.commitments[id] = commitment
}

// SigningPackage exposes the commitment set collected so far for
// prestateHash's current best proposal, so a participant can generate its
// Round-2 share.
func (c *Consensus) SigningPackage(prestateHash xcrypto.Hash256) (xcrypto.SigningPackage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst := c.instanceFor(prestateHash)
	return c.packageLocked(inst)
}

// SubmitShare records id's Round-2 signature share; if at least threshold
// shares are now present, it aggregates and appends the operation with its
// threshold authorization, returning the resulting receipt. Returns
// (nil, nil) if the instance is still short of threshold.
func (c *Consensus) SubmitShare(prestateHash xcrypto.Hash256, id xcrypto.ParticipantID, share xcrypto.SignatureShare) (*journal.Receipt, error) {
	c.mu.Lock()
	inst := c.instanceFor(prestateHash)
	inst.shares[id] = share
	if len(inst.shares) < c.threshold {
		c.mu.Unlock()
		return nil, nil
	}
	sp, err := c.packageLocked(inst)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	shares := make([]xcrypto.SignatureShare, 0, len(inst.shares))
	for _, v := range inst.shares {
		shares = append(shares, v)
	}
	e := inst.best.Event
	delete(c.instances, prestateHash)
	c.mu.Unlock()

	sig, err := xcrypto.AggregateSignatureShares(sp, shares)
	if err != nil {
		return nil, err
	}
	if err := xcrypto.VerifyThresholdSignature(c.groupPublicKey, sp.Message, sig); err != nil {
		return nil, err
	}

	e.Authorization = journal.Authorization{Kind: journal.AuthThreshold, ThresholdSignature: &sig}
	receipt, err := c.builder.J.Append(e)
	if err != nil {
		return nil, err
	}
	aggregations.Inc()
	return &receipt, nil
}

func (c *Consensus) packageLocked(inst *instance) (xcrypto.SigningPackage, error) {
	message, err := inst.best.SignableMessage()
	if err != nil {
		return xcrypto.SigningPackage{}, err
	}
	return xcrypto.SigningPackage{Message: message, Commitments: inst.commitments}, nil
}
