package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

var (
	ErrDkdCommitmentMismatch = errors.New("engine: revealed point does not match its recorded commitment")
	ErrDkdIncomplete         = errors.New("engine: not every participant has revealed yet")
)

// dkdSessionState is one session's accumulated commit/reveal progress.
type dkdSessionState struct {
	participants []ids.DeviceId
	commitments  map[ids.DeviceId]xcrypto.Hash256
	reveals      map[ids.DeviceId][32]byte

	// leafIndices records each participant's mmr node index once Finalize
	// has built the commitment accumulator, so a later recovery session can
	// build a Merkle proof for that participant's point (§4.5.4).
	leafIndices map[ids.DeviceId]uint64
	mmrSize     uint64
	hasFinal    bool
}

// DkdChoreography runs the trustless two-phase commit-reveal-finalize
// distributed key derivation (§4.5.2): every participant commits to a
// point, then reveals it once every commitment is in, and any participant
// can finalize once every reveal checks out against its commitment.
type DkdChoreography struct {
	signer *DeviceSigner

	mu       sync.Mutex
	sessions map[ids.SessionId]*dkdSessionState
}

func NewDkdChoreography(signer *DeviceSigner) *DkdChoreography {
	return &DkdChoreography{signer: signer, sessions: map[ids.SessionId]*dkdSessionState{}}
}

func (d *DkdChoreography) session(id ids.SessionId) *dkdSessionState {
	s, ok := d.sessions[id]
	if !ok {
		s = &dkdSessionState{
			commitments: map[ids.DeviceId]xcrypto.Hash256{},
			reveals:     map[ids.DeviceId][32]byte{},
			leafIndices: map[ids.DeviceId]uint64{},
		}
		d.sessions[id] = s
	}
	return s
}

// HandleEvent folds InitiateDkdSession/RecordDkdCommitment/RevealDkdPoint
// observations into local session state, satisfying the Choreography
// interface so the dispatcher can route every participant's events here.
func (d *DkdChoreography) HandleEvent(ctx context.Context, sessionID ids.SessionId, e journal.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.session(sessionID)

	switch p := e.Payload.(type) {
	case *journal.InitiateDkdSession:
		s.participants = p.Participants
	case *journal.RecordDkdCommitment:
		s.commitments[p.DeviceID] = p.Commitment
	case *journal.RevealDkdPoint:
		s.reveals[p.DeviceID] = p.Point
	}
	return nil
}

// Commit draws this device's secret point locally, appends its Blake3
// commitment, and returns the point so the caller can reveal it once every
// participant's commitment has landed (never before: revealing early lets a
// Byzantine device choose its point as a function of others').
func (d *DkdChoreography) Commit(sessionID ids.SessionId) ([32]byte, journal.Receipt, error) {
	point, err := xcrypto.RandomDkdPoint()
	if err != nil {
		return [32]byte{}, journal.Receipt{}, err
	}
	commitment := xcrypto.Sum256(point[:])
	receipt, err := d.signer.Append(&journal.RecordDkdCommitment{
		SessionID: sessionID, DeviceID: d.signer.DeviceID(), Commitment: commitment,
	})
	return point, receipt, err
}

// ReadyToReveal reports whether every expected participant's commitment has
// been observed.
func (d *DkdChoreography) ReadyToReveal(sessionID ids.SessionId) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.session(sessionID)
	if len(s.participants) == 0 {
		return false
	}
	for _, p := range s.participants {
		if _, ok := s.commitments[p]; !ok {
			return false
		}
	}
	return true
}

func (d *DkdChoreography) Reveal(sessionID ids.SessionId, point [32]byte) (journal.Receipt, error) {
	return d.signer.Append(&journal.RevealDkdPoint{SessionID: sessionID, DeviceID: d.signer.DeviceID(), Point: point})
}

// VerifyReveals checks every recorded reveal against its commitment,
// returning the first participant (if any) whose reveal fails to match —
// the Byzantine-abort trigger for this session.
func (d *DkdChoreography) VerifyReveals(sessionID ids.SessionId) (ids.DeviceId, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.session(sessionID)
	for _, p := range s.participants {
		point, ok := s.reveals[p]
		if !ok {
			continue
		}
		if xcrypto.Sum256(point[:]) != s.commitments[p] {
			return p, false
		}
	}
	return ids.DeviceId{}, true
}

// Finalize sums every revealed point into the derived group key, builds the
// session's commitment Merkle root (so recovery can later prove a point was
// part of this session without retaining the individual events), and
// appends FinalizeDkdSession. Returns ErrDkdIncomplete if any participant
// has not yet revealed.
func (d *DkdChoreography) Finalize(sessionID ids.SessionId) (journal.Receipt, error) {
	d.mu.Lock()
	s := d.session(sessionID)
	if len(s.participants) == 0 || len(s.reveals) < len(s.participants) {
		d.mu.Unlock()
		return journal.Receipt{}, ErrDkdIncomplete
	}

	ordered := append([]ids.DeviceId(nil), s.participants...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	acc := xcrypto.NewCommitmentAccumulator()
	var derived [32]byte
	for _, p := range ordered {
		point := s.reveals[p]
		derived = xcrypto.SumPoints(derived, point)
		idx, err := acc.Add(xcrypto.Sum256(point[:]))
		if err != nil {
			d.mu.Unlock()
			return journal.Receipt{}, err
		}
		s.leafIndices[p] = idx
	}
	root, err := acc.Root()
	if err != nil {
		d.mu.Unlock()
		return journal.Receipt{}, err
	}
	mmrSize := acc.Size()
	s.mmrSize = mmrSize
	s.hasFinal = true
	d.mu.Unlock()

	return d.signer.Append(&journal.FinalizeDkdSession{
		SessionID:         sessionID,
		DerivedPublicKey:  derived,
		CommitmentRoot:    root,
		CommitmentMMRSize: mmrSize,
	})
}

// CommitmentIndex returns the mmr node index a participant's revealed point
// was recorded at once Finalize has run, for a later recovery session to
// build a Merkle proof against the preserved commitment root (§4.5.4).
func (d *DkdChoreography) CommitmentIndex(sessionID ids.SessionId, device ids.DeviceId) (idx uint64, mmrSize uint64, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.session(sessionID)
	if !s.hasFinal {
		return 0, 0, false
	}
	i, ok := s.leafIndices[device]
	return i, s.mmrSize, ok
}

// Abort appends AbortDkdSession with reason, used for the Timeout /
// ByzantineBehavior / CollisionDetected failure modes (§4.5.2).
func (d *DkdChoreography) Abort(sessionID ids.SessionId, reason journal.DkdAbortReason) (journal.Receipt, error) {
	return d.signer.Append(&journal.AbortDkdSession{SessionID: sessionID, Reason: reason})
}

func (d *DkdChoreography) HealthCheck(sessionID ids.SessionId, to ids.DeviceId) (journal.Receipt, error) {
	return d.signer.Append(&journal.HealthCheckRequest{SessionID: sessionID, FromDevice: d.signer.DeviceID(), ToDevice: to})
}

func (d *DkdChoreography) RespondHealthCheck(sessionID ids.SessionId, alive bool) (journal.Receipt, error) {
	return d.signer.Append(&journal.HealthCheckResponse{SessionID: sessionID, FromDevice: d.signer.DeviceID(), Alive: alive})
}
