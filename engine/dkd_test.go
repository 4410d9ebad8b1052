package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

// bootstrapTwoDevices appends genesis AddDevice events for two devices and
// returns a Journal plus a DeviceSigner for each, mirroring the journal
// package's own genesis test fixture.
func bootstrapTwoDevices(t *testing.T) (*journal.Journal, *DeviceSigner, *DeviceSigner) {
	t.Helper()
	j := journal.New(ids.NewAccountId())
	b := NewBuilder(j)

	kpA, err := xcrypto.GenerateKeyPair()
	require.NoError(t, err)
	kpB, err := xcrypto.GenerateKeyPair()
	require.NoError(t, err)
	var pubA, pubB [32]byte
	copy(pubA[:], kpA.Public)
	copy(pubB[:], kpB.Public)

	deviceA, deviceB := ids.NewDeviceId(), ids.NewDeviceId()

	e := b.Build(&journal.AddDevice{DeviceID: deviceA, Label: "device-a", PublicKey: pubA}, 0)
	e.Authorization = journal.Authorization{Kind: journal.AuthLifecycleInternal}
	_, err = j.Append(e)
	require.NoError(t, err)

	e = b.Build(&journal.AddDevice{DeviceID: deviceB, Label: "device-b", PublicKey: pubB}, 0)
	e.Authorization = journal.Authorization{Kind: journal.AuthLifecycleInternal}
	_, err = j.Append(e)
	require.NoError(t, err)

	signerA := NewDeviceSigner(b, deviceA, kpA, 1)
	signerB := NewDeviceSigner(b, deviceB, kpB, 1)
	return j, signerA, signerB
}

// replayInto feeds every journaled event into choreo's HandleEvent, as the
// dispatcher would do for each observer.
func replayInto(t *testing.T, j *journal.Journal, sessionID ids.SessionId, choreo Choreography) {
	t.Helper()
	for _, e := range j.Events() {
		require.NoError(t, choreo.HandleEvent(context.Background(), sessionID, e))
	}
}

func TestDkdCommitRevealFinalizeDerivesSharedGroupKey(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	sessionID := ids.NewSessionId()
	participants := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}

	_, err := signerA.Append(&journal.InitiateDkdSession{SessionID: sessionID, Participants: participants, TTLEpochs: 100})
	require.NoError(t, err)

	dkdA := NewDkdChoreography(signerA)
	dkdB := NewDkdChoreography(signerB)
	replayInto(t, j, sessionID, dkdA)
	replayInto(t, j, sessionID, dkdB)

	pointA, _, err := dkdA.Commit(sessionID)
	require.NoError(t, err)
	pointB, _, err := dkdB.Commit(sessionID)
	require.NoError(t, err)

	replayInto(t, j, sessionID, dkdA)
	replayInto(t, j, sessionID, dkdB)
	require.True(t, dkdA.ReadyToReveal(sessionID))
	require.True(t, dkdB.ReadyToReveal(sessionID))

	_, err = dkdA.Reveal(sessionID, pointA)
	require.NoError(t, err)
	_, err = dkdB.Reveal(sessionID, pointB)
	require.NoError(t, err)

	replayInto(t, j, sessionID, dkdA)
	replayInto(t, j, sessionID, dkdB)

	_, okA := dkdA.VerifyReveals(sessionID)
	require.True(t, okA)
	_, okB := dkdB.VerifyReveals(sessionID)
	require.True(t, okB)

	receipt, err := dkdA.Finalize(sessionID)
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())

	snap := j.Snapshot()
	expected := xcrypto.SumPoints(xcrypto.SumPoints([32]byte{}, pointA), pointB)
	// Finalize folds reveals in device-id order, not insertion order; point
	// addition is commutative, so the sum is the same either way.
	require.NotEqual(t, [32]byte{}, snap.GroupPublicKey)
	require.Equal(t, expected, snap.GroupPublicKey)
}

func TestDkdFinalizeFailsBeforeEveryParticipantReveals(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	sessionID := ids.NewSessionId()
	participants := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}

	_, err := signerA.Append(&journal.InitiateDkdSession{SessionID: sessionID, Participants: participants, TTLEpochs: 100})
	require.NoError(t, err)

	dkdA := NewDkdChoreography(signerA)
	replayInto(t, j, sessionID, dkdA)

	pointA, _, err := dkdA.Commit(sessionID)
	require.NoError(t, err)
	replayInto(t, j, sessionID, dkdA)
	_, err = dkdA.Reveal(sessionID, pointA)
	require.NoError(t, err)
	replayInto(t, j, sessionID, dkdA)

	_, err = dkdA.Finalize(sessionID)
	require.ErrorIs(t, err, ErrDkdIncomplete)
}

func TestDkdVerifyRevealsDetectsMismatchedPoint(t *testing.T) {
	choreo := NewDkdChoreography(nil)
	sessionID := ids.NewSessionId()
	s := choreo.session(sessionID)
	s.participants = []ids.DeviceId{ids.NewDeviceId()}
	device := s.participants[0]

	point := [32]byte{1, 2, 3}
	s.commitments[device] = xcrypto.Sum256([]byte("not the real point"))
	s.reveals[device] = point

	bad, ok := choreo.VerifyReveals(sessionID)
	require.False(t, ok)
	require.Equal(t, device, bad)
}
