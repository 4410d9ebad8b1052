package engine

import (
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// SessionManager journals the Create/Update/Complete/Abort/Cleanup
// lifecycle common to every choreography (§4.5), leaving the
// protocol-specific phase events to each choreography's own file.
type SessionManager struct {
	builder *Builder
}

func NewSessionManager(b *Builder) *SessionManager {
	return &SessionManager{builder: b}
}

func (m *SessionManager) Create(sessionID ids.SessionId, protocolType journal.ProtocolType, participants []ids.DeviceId, ttlEpochs uint64, metadata map[string]string) (journal.Receipt, error) {
	_, _, epoch := m.builder.J.Head()
	payload := &journal.CreateSession{
		SessionID:    sessionID,
		ProtocolType: protocolType,
		Participants: participants,
		StartEpoch:   epoch,
		TTLEpochs:    ttlEpochs,
		Metadata:     metadata,
	}
	return m.builder.Append(payload, internalAuth(), 0)
}

func (m *SessionManager) UpdateStatus(sessionID ids.SessionId, status journal.SessionStatus) (journal.Receipt, error) {
	return m.builder.Append(&journal.UpdateSessionStatus{SessionID: sessionID, Status: status}, internalAuth(), 0)
}

func (m *SessionManager) Complete(sessionID ids.SessionId, outcome string) (journal.Receipt, error) {
	return m.builder.Append(&journal.CompleteSession{SessionID: sessionID, Outcome: outcome}, internalAuth(), 0)
}

func (m *SessionManager) Abort(sessionID ids.SessionId, reason string, blamed ids.DeviceId, hasBlamed bool) (journal.Receipt, error) {
	payload := &journal.AbortSession{SessionID: sessionID, Reason: reason, BlamedDevice: blamed, HasBlamed: hasBlamed}
	return m.builder.Append(payload, internalAuth(), 0)
}

// CleanupExpired scans the current snapshot for sessions whose
// ExpiryEpoch has passed and journals a single CleanupExpiredSessions
// event removing them (§4.5 "single append").
func (m *SessionManager) CleanupExpired() (journal.Receipt, error) {
	snap := m.builder.J.Snapshot()
	_, _, epoch := m.builder.J.Head()

	var expired []ids.SessionId
	for id, sess := range snap.Sessions {
		if sess.Status == journal.SessionActive && sess.ExpiryEpoch() <= epoch {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return journal.Receipt{}, nil
	}
	payload := &journal.CleanupExpiredSessions{SessionIDs: expired, AtEpoch: epoch}
	return m.builder.Append(payload, internalAuth(), 0)
}
