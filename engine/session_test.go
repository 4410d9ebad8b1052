package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

func TestSessionManagerCreateUpdateComplete(t *testing.T) {
	j, _, _ := bootstrapTwoDevices(t)
	m := NewSessionManager(NewBuilder(j))
	sessionID := ids.NewSessionId()

	_, err := m.Create(sessionID, journal.ProtocolDKD, nil, 100, map[string]string{"purpose": "bootstrap"})
	require.NoError(t, err)

	snap := j.Snapshot()
	sess, ok := snap.Sessions[sessionID]
	require.True(t, ok)
	require.Equal(t, journal.SessionActive, sess.Status)

	_, err = m.UpdateStatus(sessionID, journal.SessionActive)
	require.NoError(t, err)

	_, err = m.Complete(sessionID, "derived shared key")
	require.NoError(t, err)
	snap = j.Snapshot()
	require.Equal(t, journal.SessionCompleted, snap.Sessions[sessionID].Status)
}

func TestSessionManagerAbortMarksFailed(t *testing.T) {
	j, _, signerB := bootstrapTwoDevices(t)
	m := NewSessionManager(NewBuilder(j))
	sessionID := ids.NewSessionId()

	_, err := m.Create(sessionID, journal.ProtocolResharing, nil, 100, nil)
	require.NoError(t, err)

	_, err = m.Abort(sessionID, "byzantine behavior detected", signerB.DeviceID(), true)
	require.NoError(t, err)

	snap := j.Snapshot()
	require.Equal(t, journal.SessionFailed, snap.Sessions[sessionID].Status)
}

func TestSessionManagerCleanupExpiredRemovesOnlyExpiredSessions(t *testing.T) {
	j, _, _ := bootstrapTwoDevices(t)
	m := NewSessionManager(NewBuilder(j))

	expired := ids.NewSessionId()
	live := ids.NewSessionId()

	_, err := m.Create(expired, journal.ProtocolLock, nil, 0, nil)
	require.NoError(t, err)
	_, err = m.Create(live, journal.ProtocolLock, nil, 1_000_000, nil)
	require.NoError(t, err)

	_, err = m.CleanupExpired()
	require.NoError(t, err)

	snap := j.Snapshot()
	_, stillThere := snap.Sessions[expired]
	require.False(t, stillThere)
	_, liveStillThere := snap.Sessions[live]
	require.True(t, liveStillThere)
}

func TestSessionManagerCleanupExpiredNoopWhenNothingExpired(t *testing.T) {
	j, _, _ := bootstrapTwoDevices(t)
	m := NewSessionManager(NewBuilder(j))
	sessionID := ids.NewSessionId()

	_, err := m.Create(sessionID, journal.ProtocolCGKA, nil, 1_000_000, nil)
	require.NoError(t, err)

	before := len(j.Events())
	receipt, err := m.CleanupExpired()
	require.NoError(t, err)
	require.True(t, receipt.PostAppendHash.IsZero())
	require.Equal(t, before, len(j.Events()))
}
