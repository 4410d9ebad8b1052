package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

func TestLockChoreographySmallestTicketWinsAndGrantAppends(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}
	participants := ParticipantIDs(group)

	dealt, err := xcrypto.DealerKeygen(2, 2, []xcrypto.ParticipantID{participants[signerA.DeviceID()], participants[signerB.DeviceID()]})
	require.NoError(t, err)
	bootstrapGroupKey(t, j, dealt)

	consensus := NewConsensus(NewBuilder(j), dealt.GroupPublicKey, dealt.Threshold)
	lockA := NewLockChoreography(signerA, consensus)
	lockB := NewLockChoreography(signerB, consensus)

	_, err = lockA.Request(journal.OperationRecovery)
	require.NoError(t, err)
	_, err = lockB.Request(journal.OperationRecovery)
	require.NoError(t, err)

	for _, e := range j.Events() {
		require.NoError(t, lockA.HandleEvent(context.Background(), ids.SessionId{}, e))
		require.NoError(t, lockB.HandleEvent(context.Background(), ids.SessionId{}, e))
	}

	winnerA, ok := lockA.Winner(journal.OperationRecovery)
	require.True(t, ok)
	winnerB, ok := lockB.Winner(journal.OperationRecovery)
	require.True(t, ok)
	require.Equal(t, winnerA, winnerB)

	prestateHash, _, _ := j.Head()
	p, err := lockA.ProposeGrant(journal.OperationRecovery, ids.Epoch(100))
	require.NoError(t, err)
	require.Equal(t, prestateHash, p.Event.ParentHash)

	message, err := p.SignableMessage()
	require.NoError(t, err)

	nonces := map[xcrypto.ParticipantID]xcrypto.Round1Nonces{}
	for device, id := range participants {
		n, commit, err := xcrypto.GenerateRound1(id, dealt.Shares[id].Secret, message)
		require.NoError(t, err)
		nonces[id] = n
		consensus.SubmitCommitment(prestateHash, id, commit)
		_ = device
	}

	var receipt *journal.Receipt
	for _, id := range []xcrypto.ParticipantID{participants[signerA.DeviceID()], participants[signerB.DeviceID()]} {
		sp, err := consensus.SigningPackage(prestateHash)
		require.NoError(t, err)
		share, err := xcrypto.SignRound2(id, nonces[id], dealt.Shares[id].Secret, dealt.GroupPublicKey, sp)
		require.NoError(t, err)
		receipt, err = consensus.SubmitShare(prestateHash, id, share)
		require.NoError(t, err)
	}
	require.NotNil(t, receipt)

	snap := j.Snapshot()
	lock, ok := snap.Locks[journal.OperationRecovery]
	require.True(t, ok)
	require.Equal(t, winnerA.DeviceID, lock.WinnerDevice)
}

func TestLockChoreographyProposeGrantFailsWhileWindowOpen(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	consensus := NewConsensus(NewBuilder(signerA.builder.J), [32]byte{}, 2)
	lockA := NewLockChoreography(signerA, consensus)

	_, err := lockA.ProposeGrant(journal.OperationCompaction, ids.Epoch(1))
	require.ErrorIs(t, err, ErrLockCollectionWindowOpen)
}
