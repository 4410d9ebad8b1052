package xcrypto

import (
	"crypto/rand"
	"errors"
	"sort"

	"filippo.io/edwards25519"
)

// ParticipantID indexes a FROST participant by its Shamir x-coordinate. 0 is
// reserved (the secret lives at x=0); real participants start at 1.
type ParticipantID uint32

var (
	ErrThresholdTooLarge   = errors.New("xcrypto: threshold exceeds participant count")
	ErrThresholdTooSmall   = errors.New("xcrypto: threshold must be at least 1")
	ErrUnknownParticipant  = errors.New("xcrypto: participant id not part of this signing package")
	ErrCommitmentMissing   = errors.New("xcrypto: round1 commitment missing for a participant in the signing package")
	ErrNotEnoughShares     = errors.New("xcrypto: fewer signature shares than the declared signing set")
	ErrGroupKeyInvalid     = errors.New("xcrypto: group public key does not decode to a curve point")
	ErrThresholdSigInvalid = errors.New("xcrypto: aggregated threshold signature does not verify")
)

func scalarFromUint64(v uint64) *edwards25519.Scalar {
	var wide [64]byte
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	copy(wide[:8], b[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only fails on wrong-length input, which cannot
		// happen here since wide is fixed-size.
		panic(err)
	}
	return s
}

func randomScalar() (*edwards25519.Scalar, error) {
	var wide [64]byte
	if _, err := rand.Read(wide[:]); err != nil {
		return nil, err
	}
	return edwards25519.NewScalar().SetUniformBytes(wide[:])
}

// scalarFromWideHash reduces a >=64 byte hash into a scalar, used for
// deriving per-signer nonces and the FROST binding factor from Blake3 output.
func scalarFromWideHash(h []byte) (*edwards25519.Scalar, error) {
	wide := make([]byte, 64)
	copy(wide, h)
	return edwards25519.NewScalar().SetUniformBytes(wide)
}

// DealerKeyShare is one participant's share of a dealer-generated FROST key,
// used only for bootstrap keygen (§4.1); the trustless DKG path in the
// engine package never materializes these in one place.
type DealerKeyShare struct {
	ID           ParticipantID
	Secret       *edwards25519.Scalar
	VerifyingKey *edwards25519.Point // share_i * B, lets others check this share's consistency
}

// DealerKeygenResult is the output of a dealer-assisted bootstrap keygen.
type DealerKeygenResult struct {
	GroupPublicKey [32]byte
	Shares         map[ParticipantID]DealerKeyShare
	Threshold      int
}

// DealerKeygen samples a degree-(t-1) polynomial and evaluates it at each of
// the n participant x-coordinates, per the dealer-assisted bootstrap mode
// described in §4.1. This is the only place a full secret ever exists, and it
// does not leave this function.
func DealerKeygen(t, n int, participants []ParticipantID) (DealerKeygenResult, error) {
	if t < 1 {
		return DealerKeygenResult{}, ErrThresholdTooSmall
	}
	if t > n {
		return DealerKeygenResult{}, ErrThresholdTooLarge
	}

	coeffs := make([]*edwards25519.Scalar, t)
	for i := range coeffs {
		s, err := randomScalar()
		if err != nil {
			return DealerKeygenResult{}, err
		}
		coeffs[i] = s
	}

	groupPoint := edwards25519.NewIdentityPoint().ScalarBaseMult(coeffs[0])

	shares := make(map[ParticipantID]DealerKeyShare, n)
	for _, id := range participants {
		x := scalarFromUint64(uint64(id))
		y := polynomialEval(coeffs, x)
		shares[id] = DealerKeyShare{
			ID:           id,
			Secret:       y,
			VerifyingKey: edwards25519.NewIdentityPoint().ScalarBaseMult(y),
		}
	}

	var out DealerKeygenResult
	copy(out.GroupPublicKey[:], groupPoint.Bytes())
	out.Shares = shares
	out.Threshold = t
	return out, nil
}

// polynomialEval computes f(x) = sum(coeffs[i] * x^i) using Horner's method.
func polynomialEval(coeffs []*edwards25519.Scalar, x *edwards25519.Scalar) *edwards25519.Scalar {
	acc := edwards25519.NewScalar().Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = edwards25519.NewScalar().Multiply(acc, x)
		acc = edwards25519.NewScalar().Add(acc, coeffs[i])
	}
	return acc
}

// lagrangeCoefficient computes lambda_i for participant id, reconstructing
// the polynomial's value at x=0 from exactly the participants in set.
func lagrangeCoefficient(id ParticipantID, set []ParticipantID) (*edwards25519.Scalar, error) {
	xi := scalarFromUint64(uint64(id))
	num := edwards25519.NewScalar().Set(scalarOne())
	den := edwards25519.NewScalar().Set(scalarOne())
	found := false
	for _, other := range set {
		if other == id {
			found = true
			continue
		}
		xj := scalarFromUint64(uint64(other))
		num = edwards25519.NewScalar().Multiply(num, xj)
		diff := edwards25519.NewScalar().Subtract(xj, xi)
		den = edwards25519.NewScalar().Multiply(den, diff)
	}
	if !found {
		return nil, ErrUnknownParticipant
	}
	denInv := edwards25519.NewScalar().Invert(den)
	return edwards25519.NewScalar().Multiply(num, denInv), nil
}

func scalarOne() *edwards25519.Scalar {
	one := make([]byte, 64)
	one[0] = 1
	s, _ := edwards25519.NewScalar().SetUniformBytes(one)
	// SetUniformBytes reduces mod L; byte value 1 is already canonical and
	// reduces to the scalar 1.
	return s
}

// Round1Nonces is a participant's private first-round state: never
// transmitted, discarded after Round2.
type Round1Nonces struct {
	D *edwards25519.Scalar
	E *edwards25519.Scalar
}

// Round1Commitment is the public broadcast of Round1: D_i = d_i*B, E_i = e_i*B.
type Round1Commitment struct {
	ID ParticipantID
	D  [32]byte
	E  [32]byte
}

// GenerateRound1 draws hedged nonces the way the reference FROST round1
// implementation does: a domain-separated Blake3 digest of the secret share,
// the message, and fresh randomness, reduced to two scalars.
func GenerateRound1(id ParticipantID, secretShare *edwards25519.Scalar, message []byte) (Round1Nonces, Round1Commitment, error) {
	shareBytes := secretShare.Bytes()
	hashKey := DeriveKey("aura-core frost nonce derivation v1", shareBytes, 32)

	fresh := make([]byte, 32)
	if _, err := rand.Read(fresh); err != nil {
		return Round1Nonces{}, Round1Commitment{}, err
	}

	dDigest := Sum256(hashKey, message, fresh, []byte("d"))
	eDigest := Sum256(hashKey, message, fresh, []byte("e"))

	d, err := scalarFromWideHash(append(dDigest[:], dDigest[:]...))
	if err != nil {
		return Round1Nonces{}, Round1Commitment{}, err
	}
	e, err := scalarFromWideHash(append(eDigest[:], eDigest[:]...))
	if err != nil {
		return Round1Nonces{}, Round1Commitment{}, err
	}

	D := edwards25519.NewIdentityPoint().ScalarBaseMult(d)
	E := edwards25519.NewIdentityPoint().ScalarBaseMult(e)

	var commit Round1Commitment
	commit.ID = id
	copy(commit.D[:], D.Bytes())
	copy(commit.E[:], E.Bytes())
	return Round1Nonces{D: d, E: e}, commit, nil
}

// SigningPackage binds the message to the exact commitment set Round2 will
// sign against. Per §4.1, shares computed against one commitment set do not
// aggregate validly for any other subset; the caller must build a fresh
// SigningPackage (and re-run Round2) for each chosen subset.
type SigningPackage struct {
	Message     []byte
	Commitments map[ParticipantID]Round1Commitment
}

func (sp SigningPackage) sortedIDs() []ParticipantID {
	ids := make([]ParticipantID, 0, len(sp.Commitments))
	for id := range sp.Commitments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// bindingFactor computes rho_i, binding each participant's second nonce to
// the full commitment set and message so commitments cannot be reused or
// mixed across signing packages.
func (sp SigningPackage) bindingFactor(id ParticipantID) (*edwards25519.Scalar, error) {
	ids := sp.sortedIDs()
	h := Sum256(sp.Message, encodeCommitmentSet(sp.Commitments, ids), []byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)})
	return scalarFromWideHash(append(h[:], h[:]...))
}

func encodeCommitmentSet(commitments map[ParticipantID]Round1Commitment, ids []ParticipantID) []byte {
	var buf []byte
	for _, id := range ids {
		c := commitments[id]
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
		buf = append(buf, c.D[:]...)
		buf = append(buf, c.E[:]...)
	}
	return buf
}

// groupCommitment computes R = sum_i (D_i + rho_i * E_i) over the signing set.
func (sp SigningPackage) groupCommitment() (*edwards25519.Point, error) {
	R := edwards25519.NewIdentityPoint()
	for _, id := range sp.sortedIDs() {
		c := sp.Commitments[id]
		D, err := edwards25519.NewIdentityPoint().SetBytes(c.D[:])
		if err != nil {
			return nil, err
		}
		E, err := edwards25519.NewIdentityPoint().SetBytes(c.E[:])
		if err != nil {
			return nil, err
		}
		rho, err := sp.bindingFactor(id)
		if err != nil {
			return nil, err
		}
		term := edwards25519.NewIdentityPoint().Add(D, edwards25519.NewIdentityPoint().ScalarMult(rho, E))
		R = edwards25519.NewIdentityPoint().Add(R, term)
	}
	return R, nil
}

// challenge computes c = H(R || groupPublicKey || message), the Schnorr
// challenge binding the aggregated signature to the message and group key.
func challenge(R *edwards25519.Point, groupPublicKey [32]byte, message []byte) (*edwards25519.Scalar, error) {
	h := Sum256(R.Bytes(), groupPublicKey[:], message)
	return scalarFromWideHash(append(h[:], h[:]...))
}

// SignatureShare is a single participant's Round2 contribution.
type SignatureShare struct {
	ID ParticipantID
	Z  *edwards25519.Scalar
}

// SignRound2 produces participant id's signature share against sp. nonces
// and secretShare must correspond to the same id and the same Round1 call
// that produced the commitment present in sp.Commitments[id]. The signing
// set used for the Lagrange coefficient is the key set of sp.Commitments.
func SignRound2(id ParticipantID, nonces Round1Nonces, secretShare *edwards25519.Scalar, groupPublicKey [32]byte, sp SigningPackage) (SignatureShare, error) {
	if _, ok := sp.Commitments[id]; !ok {
		return SignatureShare{}, ErrCommitmentMissing
	}
	set := sp.sortedIDs()

	R, err := sp.groupCommitment()
	if err != nil {
		return SignatureShare{}, err
	}
	c, err := challenge(R, groupPublicKey, sp.Message)
	if err != nil {
		return SignatureShare{}, err
	}
	lambda, err := lagrangeCoefficient(id, set)
	if err != nil {
		return SignatureShare{}, err
	}
	rho, err := sp.bindingFactor(id)
	if err != nil {
		return SignatureShare{}, err
	}

	// z_i = d_i + (e_i * rho_i) + lambda_i * secret_i * c
	ern := edwards25519.NewScalar().Multiply(nonces.E, rho)
	z := edwards25519.NewScalar().Add(nonces.D, ern)
	ls := edwards25519.NewScalar().Multiply(lambda, secretShare)
	lsc := edwards25519.NewScalar().Multiply(ls, c)
	z = edwards25519.NewScalar().Add(z, lsc)

	return SignatureShare{ID: id, Z: z}, nil
}

// ThresholdSignature is the aggregated signature, structurally identical to
// a single-key Ed25519 signature: (R, z).
type ThresholdSignature struct {
	R [32]byte
	Z [32]byte
}

// AggregateSignatureShares combines Round2 shares collected against the same
// SigningPackage into a single threshold signature. Any participant (or an
// external coordinator) holding >=t shares for this package can do this; it
// is not itself a trust-sensitive step because every share is independently
// verifiable against the package it was produced for.
func AggregateSignatureShares(sp SigningPackage, shares []SignatureShare) (ThresholdSignature, error) {
	if len(shares) < len(sp.Commitments) {
		return ThresholdSignature{}, ErrNotEnoughShares
	}
	R, err := sp.groupCommitment()
	if err != nil {
		return ThresholdSignature{}, err
	}
	z := edwards25519.NewScalar()
	for _, s := range shares {
		z = edwards25519.NewScalar().Add(z, s.Z)
	}
	var out ThresholdSignature
	copy(out.R[:], R.Bytes())
	copy(out.Z[:], z.Bytes())
	return out, nil
}

// VerifyThresholdSignature checks [z]B == R + [c]Y, the Schnorr verification
// equation under the group public key Y. Per §4.1's correctness contract,
// this holds for a signature produced by any t-sized subset and fails for
// any subset smaller than the threshold, because the Lagrange coefficients
// used in SignRound2 only reconstruct the dealer's secret at x=0 when
// exactly a valid covering subset of shares contributed.
func VerifyThresholdSignature(groupPublicKey [32]byte, message []byte, sig ThresholdSignature) error {
	Y, err := edwards25519.NewIdentityPoint().SetBytes(groupPublicKey[:])
	if err != nil {
		return ErrGroupKeyInvalid
	}
	R, err := edwards25519.NewIdentityPoint().SetBytes(sig.R[:])
	if err != nil {
		return ErrThresholdSigInvalid
	}
	z, err := edwards25519.NewScalar().SetCanonicalBytes(sig.Z[:])
	if err != nil {
		return ErrThresholdSigInvalid
	}
	c, err := challenge(R, groupPublicKey, message)
	if err != nil {
		return err
	}

	lhs := edwards25519.NewIdentityPoint().ScalarBaseMult(z)
	rhs := edwards25519.NewIdentityPoint().Add(R, edwards25519.NewIdentityPoint().ScalarMult(c, Y))

	if lhs.Equal(rhs) != 1 {
		return ErrThresholdSigInvalid
	}
	return nil
}
