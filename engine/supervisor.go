package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hxrts/aura/journal"
)

// Supervisor periodically reaps expired sessions through
// SessionManager.CleanupExpired. It does not signal or cancel choreographies
// that are blocked waiting on a peer. It holds no protocol-specific state of
// its own.
type Supervisor struct {
	sessions *SessionManager
	j        *journal.Journal
	interval time.Duration
	log      *zap.Logger
}

func NewSupervisor(sessions *SessionManager, j *journal.Journal, interval time.Duration) *Supervisor {
	return &Supervisor{sessions: sessions, j: j, interval: interval, log: zap.NewNop()}
}

// WithLogger swaps in a configured logger; callers that don't need
// supervisor activity logged can leave the no-op default in place.
func (s *Supervisor) WithLogger(log *zap.Logger) *Supervisor {
	s.log = log
	return s
}

// Run loops CleanupExpired on interval until ctx is cancelled, which is
// itself the cooperative-cancellation path: every choreography method here
// is a single synchronous append, so there is no suspension point inside a
// tick for ctx.Done to interrupt beyond the gap between ticks.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// Tick runs a single expiry sweep, for callers driving the supervisor
// themselves (e.g. tests, or a caller stepping epochs manually) instead of
// running it as a background loop.
func (s *Supervisor) Tick() error {
	receipt, err := s.sessions.CleanupExpired()
	if err != nil {
		s.log.Error("session cleanup sweep failed", zap.Error(err))
		return err
	}
	if receipt.EventID != ([16]byte{}) {
		s.log.Info("reaped expired session",
			zap.Uint64("epoch", uint64(receipt.Epoch)),
			zap.Binary("post_append_hash", receipt.PostAppendHash.Bytes()))
	}
	return nil
}
