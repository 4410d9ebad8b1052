package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

func TestCompactionProposeAcknowledgeCommitPrunesNothingBeforeEpochZero(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}
	participants := ParticipantIDs(group)
	idA, idB := participants[signerA.DeviceID()], participants[signerB.DeviceID()]

	dealt, err := xcrypto.DealerKeygen(2, 2, []xcrypto.ParticipantID{idA, idB})
	require.NoError(t, err)
	bootstrapGroupKey(t, j, dealt)

	compactionA := NewCompactionChoreography(signerA, j)
	compactionB := NewCompactionChoreography(signerB, j)
	sessionID := ids.NewSessionId()

	_, err = compactionA.Propose(sessionID, ids.Epoch(0), [][32]byte{{1, 2, 3}}, group)
	require.NoError(t, err)

	replay := func() {
		for _, e := range j.Events() {
			require.NoError(t, compactionA.HandleEvent(context.Background(), sessionID, e))
		}
	}
	replay()
	require.False(t, compactionA.ReadyToCommit(sessionID))

	_, err = compactionA.Acknowledge(sessionID)
	require.NoError(t, err)
	_, err = compactionB.Acknowledge(sessionID)
	require.NoError(t, err)
	replay()
	require.True(t, compactionA.ReadyToCommit(sessionID))

	consensus := NewConsensus(NewBuilder(j), dealt.GroupPublicKey, dealt.Threshold)
	prestateHash, _, _ := j.Head()
	resultingStateHash := xcrypto.Sum256([]byte("resulting state"))
	p, err := compactionA.ProposeCommit(consensus, sessionID, resultingStateHash)
	require.NoError(t, err)

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

	before := len(j.Events())
	require.NoError(t, compactionA.ApplyCommit(ids.Epoch(0)))
	require.Equal(t, before, len(j.Events()))
}

func TestCompactionProposeCommitFailsBeforeEveryAcknowledgement(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	compactionA := NewCompactionChoreography(signerA, j)
	sessionID := ids.NewSessionId()
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}

	_, err := compactionA.Propose(sessionID, ids.Epoch(0), nil, group)
	require.NoError(t, err)
	for _, e := range j.Events() {
		require.NoError(t, compactionA.HandleEvent(context.Background(), sessionID, e))
	}

	consensus := NewConsensus(NewBuilder(j), [32]byte{}, 2)
	_, err = compactionA.ProposeCommit(consensus, sessionID, [32]byte{})
	require.ErrorIs(t, err, ErrCompactionNotAcknowledged)
}
