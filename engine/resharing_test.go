package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

// thresholdSign runs a full Round1+Round2 for every id in set against
// message, producing an aggregated threshold signature under dealt's group
// key — the same construction a real committee performs independently for
// the outer event authorization and for any test signature embedded inside
// a payload.
func thresholdSign(t *testing.T, dealt xcrypto.DealerKeygenResult, set []xcrypto.ParticipantID, message []byte) xcrypto.ThresholdSignature {
	t.Helper()
	nonces := map[xcrypto.ParticipantID]xcrypto.Round1Nonces{}
	commitments := map[xcrypto.ParticipantID]xcrypto.Round1Commitment{}
	for _, id := range set {
		n, c, err := xcrypto.GenerateRound1(id, dealt.Shares[id].Secret, message)
		require.NoError(t, err)
		nonces[id] = n
		commitments[id] = c
	}
	sp := xcrypto.SigningPackage{Message: message, Commitments: commitments}
	var shares []xcrypto.SignatureShare
	for _, id := range set {
		share, err := xcrypto.SignRound2(id, nonces[id], dealt.Shares[id].Secret, dealt.GroupPublicKey, sp)
		require.NoError(t, err)
		shares = append(shares, share)
	}
	sig, err := xcrypto.AggregateSignatureShares(sp, shares)
	require.NoError(t, err)
	return sig
}

func TestResharingSealOpenSubShareRoundTrip(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	resharingA := NewResharingChoreography(signerA)

	recipient, err := xcrypto.GenerateHPKEKeyPair()
	require.NoError(t, err)
	sessionID := ids.NewSessionId()
	to := ids.NewDeviceId()

	receipt, err := resharingA.DistributeSubShare(sessionID, to, recipient.Public, []byte("sub-share secret bytes"))
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())

	events := signerA.builder.J.Events()
	d := events[len(events)-1].Payload.(*journal.DistributeSubShare)

	plaintext, err := resharingA.OpenSubShare(sessionID, *d, recipient.Private)
	require.NoError(t, err)
	require.Equal(t, []byte("sub-share secret bytes"), plaintext)
}

func TestResharingReadyToFinalizeOnceEveryRecipientAcksThenConsensusAppendsFinalize(t *testing.T) {
	j, signerA, signerB := bootstrapTwoDevices(t)
	group := []ids.DeviceId{signerA.DeviceID(), signerB.DeviceID()}
	participants := ParticipantIDs(group)
	idA, idB := participants[signerA.DeviceID()], participants[signerB.DeviceID()]

	dealt, err := xcrypto.DealerKeygen(2, 2, []xcrypto.ParticipantID{idA, idB})
	require.NoError(t, err)
	bootstrapGroupKey(t, j, dealt)

	sessionID := ids.NewSessionId()
	_, err = signerA.Append(&journal.InitiateResharing{SessionID: sessionID, NewParticipants: group, NewThreshold: 2})
	require.NoError(t, err)

	resharingA := NewResharingChoreography(signerA)
	resharingB := NewResharingChoreography(signerB)

	replayAll := func() {
		for _, e := range j.Events() {
			require.NoError(t, resharingA.HandleEvent(context.Background(), sessionID, e))
			require.NoError(t, resharingB.HandleEvent(context.Background(), sessionID, e))
		}
	}
	replayAll()
	require.False(t, resharingA.ReadyToFinalize(sessionID))

	_, err = resharingA.Acknowledge(sessionID, signerA.DeviceID())
	require.NoError(t, err)
	_, err = resharingB.Acknowledge(sessionID, signerB.DeviceID())
	require.NoError(t, err)
	replayAll()

	require.True(t, resharingA.ReadyToFinalize(sessionID))
	require.True(t, resharingB.ReadyToFinalize(sessionID))

	testMessage := append([]byte("aura-resharing-test-signature:"), sessionID[:]...)
	testSig := thresholdSign(t, dealt, []xcrypto.ParticipantID{idA, idB}, testMessage)

	consensus := NewConsensus(NewBuilder(j), dealt.GroupPublicKey, dealt.Threshold)
	prestateHash, _, _ := j.Head()
	p, err := resharingA.ProposeFinalize(consensus, sessionID, 2, dealt.GroupPublicKey, testSig)
	require.NoError(t, err)
	require.Equal(t, prestateHash, p.Event.ParentHash)

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

	snap := j.Snapshot()
	require.Equal(t, dealt.GroupPublicKey, snap.GroupPublicKey)
	require.Equal(t, 2, snap.Threshold)
}

func TestResharingAbortAndRollbackAppend(t *testing.T) {
	_, signerA, _ := bootstrapTwoDevices(t)
	resharingA := NewResharingChoreography(signerA)
	sessionID := ids.NewSessionId()

	receipt, err := resharingA.Abort(sessionID, journal.ResharingAbortReason{DeliveryFailure: []ids.DeviceId{signerA.DeviceID()}})
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())

	receipt, err = resharingA.Rollback(sessionID, ids.Epoch(3))
	require.NoError(t, err)
	require.False(t, receipt.PostAppendHash.IsZero())
}
