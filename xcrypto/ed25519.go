package xcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

var ErrSignatureInvalid = errors.New("xcrypto: signature does not verify under the declared key")

// KeyPair is a single-device Ed25519 identity: enrollment certificates and
// lock-grant/guardian signatures are single-key, not threshold.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

func (k KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.Private, message)
}

func Verify(pub ed25519.PublicKey, message, sig []byte) error {
	if !ed25519.Verify(pub, message, sig) {
		return ErrSignatureInvalid
	}
	return nil
}
