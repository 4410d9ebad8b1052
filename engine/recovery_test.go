package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

func TestRecoveryQuorumAndCompleteInstallsNewDevice(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}
	participants := ParticipantIDs(group)
	idA, idB := participants[signerA.DeviceID()], participants[signerB.DeviceID()]

	dealt, err := xcrypto.DealerKeygen(2, 2, []xcrypto.ParticipantID{idA, idB})
	require.NoError(t, err)
	bootstrapGroupKey(t, j, dealt)

	sessionID := ids.NewSessionId()
	newDeviceID := ids.NewDeviceId()

	_, err = signerA.Append(&journal.AddDevice{
		DeviceID: newDeviceID, Label: "recovered-device", PublicKey: [32]byte{9},
		SessionID: sessionID, HasSession: true,
	})
	require.NoError(t, err)

	recoveryA := NewRecoveryChoreography(signerA)
	_, err = recoveryA.Initiate(sessionID, newDeviceID, 3600, 2, 2)
	require.NoError(t, err)

	guardian1, guardian2 := ids.NewGuardianId(), ids.NewGuardianId()
	_, err = recoveryA.Approve(sessionID, guardian1)
	require.NoError(t, err)
	_, err = recoveryA.Approve(sessionID, guardian2)
	require.NoError(t, err)

	for _, e := range j.Events() {
		require.NoError(t, recoveryA.HandleEvent(context.Background(), sessionID, e))
	}
	require.True(t, recoveryA.QuorumMet(sessionID))

	proofMessage := append([]byte("aura-recovery-proof-of-possession:"), newDeviceID[:]...)
	sig := thresholdSign(t, dealt, []xcrypto.ParticipantID{idA, idB}, proofMessage)

	receipt, err := recoveryA.Complete(sessionID, newDeviceID, sig)
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())

	snap := j.Snapshot()
	dev, ok := snap.Devices[newDeviceID]
	require.True(t, ok)
	require.False(t, dev.Tombstoned)
}

func TestRecoveryQuorumNotMetBeforeEnoughApprovals(t *testing.T) {
	j, signerA, _ := bootstrapTwoDevices(t)
	sessionID := ids.NewSessionId()
	recoveryA := NewRecoveryChoreography(signerA)

	_, err := recoveryA.Initiate(sessionID, ids.NewDeviceId(), 3600, 2, 2)
	require.NoError(t, err)
	_, err = recoveryA.Approve(sessionID, ids.NewGuardianId())
	require.NoError(t, err)

	for _, e := range j.Events() {
		require.NoError(t, recoveryA.HandleEvent(context.Background(), sessionID, e))
	}
	require.False(t, recoveryA.QuorumMet(sessionID))
}

func TestRecoveryShareVerifiesAgainstPreservedCommitmentRoot(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	recoveryA := NewRecoveryChoreography(signerA)

	acc := xcrypto.NewCommitmentAccumulator()
	leaf := xcrypto.Sum256([]byte("guardian share commitment"))
	idx, err := acc.Add(leaf)
	require.NoError(t, err)
	root, err := acc.Root()
	require.NoError(t, err)
	proof, err := acc.InclusionProof(idx)
	require.NoError(t, err)

	recipient, err := xcrypto.GenerateHPKEKeyPair()
	require.NoError(t, err)
	sessionID := ids.NewSessionId()
	guardianID := ids.NewGuardianId()

	_, err = recoveryA.SubmitShare(sessionID, guardianID, recipient.Public, []byte("the actual share bytes"), root, idx, proof)
	require.NoError(t, err)

	events := signerA.builder.J.Events()
	submitted := events[len(events)-1].Payload.(*journal.SubmitRecoveryShare)

	require.True(t, VerifyShare(*submitted, leaf, acc.Size()))
	require.False(t, VerifyShare(*submitted, xcrypto.Sum256([]byte("wrong leaf")), acc.Size()))

	plaintext, err := OpenShare(*submitted, sessionID, recipient.Private)
	require.NoError(t, err)
	require.Equal(t, []byte("the actual share bytes"), plaintext)
}

func TestRecoveryAbortAndNudgeAppend(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	recoveryA := NewRecoveryChoreography(signerA)
	sessionID := ids.NewSessionId()

	receipt, err := recoveryA.Abort(sessionID, journal.RecoveryAbortReason{Timeout: true})
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())

	receipt, err = recoveryA.Nudge(sessionID, ids.NewGuardianId())
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())
}
