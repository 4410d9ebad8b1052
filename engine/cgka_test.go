package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

func TestCgkaProposeOperationRejectsWrongEpoch(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	cgkaA := NewCgkaChoreography(signerA)
	groupID := ids.NewSessionId()

	_, err := cgkaA.ProposeOperation(groupID, ids.NewDeviceId(), "add", ids.Epoch(1), []byte("body"))
	require.ErrorIs(t, err, ErrCgkaWrongEpoch)
}

func TestCgkaBatchAlwaysAdvancesExactlyOneEpoch(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}
	participants := ParticipantIDs(group)
	idA, idB := participants[signerA.DeviceID()], participants[signerB.DeviceID()]

	dealt, err := xcrypto.DealerKeygen(2, 2, []xcrypto.ParticipantID{idA, idB})
	require.NoError(t, err)
	bootstrapGroupKey(t, j, dealt)

	cgkaA := NewCgkaChoreography(signerA)
	groupID := ids.NewSessionId()

	_, err = cgkaA.ProposeOperation(groupID, signerB.DeviceID(), "add", ids.Epoch(0), []byte("welcome"))
	require.NoError(t, err)
	_, err = cgkaA.ProposeOperation(groupID, signerA.DeviceID(), "update", ids.Epoch(0), []byte("rotate"))
	require.NoError(t, err)

	for _, e := range j.Events() {
		require.NoError(t, cgkaA.HandleEvent(context.Background(), groupID, e))
	}
	require.Equal(t, 2, cgkaA.PendingOperationCount(groupID))

	consensus := NewConsensus(NewBuilder(j), dealt.GroupPublicKey, dealt.Threshold)
	prestateHash, _, _ := j.Head()
	p, err := cgkaA.ProposeEpochTransition(consensus, groupID, 2)
	require.NoError(t, err)

	transition := p.Event.Payload.(*journal.CgkaEpochTransition)
	require.Equal(t, ids.Epoch(0), transition.FromEpoch)
	require.Equal(t, ids.Epoch(1), transition.ToEpoch)

	outerMessage, err := p.SignableMessage()
	require.NoError(t, err)
	nonces := map[xcrypto.ParticipantID]xcrypto.Round1Nonces{}
	for _, id := range []xcrypto.ParticipantID{idA, idB} {
		n, commit, err := xcrypto.GenerateRound1(id, dealt.Shares[id].Secret, outerMessage)
		require.NoError(t, err)
		nonces[id] = n
		consensus.SubmitCommitment(prestateHash, id, commit)
	}
	var receipt *journal.Receipt
	for _, id := range []xcrypto.ParticipantID{idA, idB} {
		sp, err := consensus.SigningPackage(prestateHash)
		require.NoError(t, err)
		share, err := xcrypto.SignRound2(id, nonces[id], dealt.Shares[id].Secret, dealt.GroupPublicKey, sp)
		require.NoError(t, err)
		receipt, err = consensus.SubmitShare(prestateHash, id, share)
		require.NoError(t, err)
	}
	require.NotNil(t, receipt)

	for _, e := range j.Events() {
		require.NoError(t, cgkaA.HandleEvent(context.Background(), groupID, e))
	}
	require.Equal(t, 0, cgkaA.PendingOperationCount(groupID))

	_, err = cgkaA.ProposeOperation(groupID, signerA.DeviceID(), "update", ids.Epoch(1), []byte("rotate-again"))
	require.NoError(t, err)
}

func TestCgkaSyncStateAppendsDigestAtCurrentEpoch(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	cgkaA := NewCgkaChoreography(signerA)
	groupID := ids.NewSessionId()

	receipt, err := cgkaA.SyncState(groupID, xcrypto.Sum256([]byte("state digest")))
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())
}
