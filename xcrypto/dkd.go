package xcrypto

import (
	"crypto/rand"
	"errors"

	"filippo.io/edwards25519"
)

var ErrInvalidPoint = errors.New("xcrypto: not a valid curve point encoding")

// RandomDkdPoint draws a fresh random scalar r and returns R = r*B, one
// participant's secret contribution to a trustless distributed key
// derivation session (§4.5.2). The scalar itself is never returned or
// retained; only the derived group key (sum of every participant's point)
// is ever reconstructed, never any individual secret.
func RandomDkdPoint() ([32]byte, error) {
	s, err := randomScalar()
	if err != nil {
		return [32]byte{}, err
	}
	P := edwards25519.NewIdentityPoint().ScalarBaseMult(s)
	var out [32]byte
	copy(out[:], P.Bytes())
	return out, nil
}

// SumPoints adds two compressed Edwards points, used to fold DKD reveals
// into the session's derived public key one participant at a time. A zero
// input is treated as the curve identity so callers can fold starting from
// a zero-valued accumulator.
func SumPoints(a, b [32]byte) [32]byte {
	A := identityOrPoint(a)
	B := identityOrPoint(b)
	sum := edwards25519.NewIdentityPoint().Add(A, B)
	var out [32]byte
	copy(out[:], sum.Bytes())
	return out
}

func identityOrPoint(p [32]byte) *edwards25519.Point {
	if p == ([32]byte{}) {
		return edwards25519.NewIdentityPoint()
	}
	pt, err := edwards25519.NewIdentityPoint().SetBytes(p[:])
	if err != nil {
		// A zero-valued accumulator never decodes as anything but the
		// identity above; any other invalid encoding here is a caller bug
		// (an unreveal point never should have been recorded).
		panic(ErrInvalidPoint)
	}
	return pt
}
