package xcrypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

func newSHA256() hash.Hash { return sha256.New() }

// HPKE implements a Base-mode seal/open (RFC 9180 shape: X25519 KEM, HKDF-SHA256,
// ChaCha20-Poly1305 AEAD) sufficient for resharing's sub-share distribution and
// recovery's guardian-share encryption. Only the encryption-to-a-known-recipient
// direction is needed here (no PSK or auth mode).

var (
	ErrHPKEShortCiphertext = errors.New("xcrypto: hpke ciphertext too short to contain the encapsulated key and nonce")
	ErrHPKEDecryptFailed   = errors.New("xcrypto: hpke open failed authentication")
)

const hpkeInfo = "aura-core hpke v1"

// HPKEKeyPair is a recipient's static X25519 KEM key.
type HPKEKeyPair struct {
	Private *ecdh.PrivateKey
	Public  *ecdh.PublicKey
}

func GenerateHPKEKeyPair() (HPKEKeyPair, error) {
	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return HPKEKeyPair{}, err
	}
	return HPKEKeyPair{Private: priv, Public: priv.PublicKey()}, nil
}

// Seal encrypts plaintext to recipientPublic, returning a self-contained
// ciphertext: ephemeral-pubkey(32) || nonce(12) || aead-ciphertext.
func Seal(recipientPublic *ecdh.PublicKey, plaintext, aad []byte) ([]byte, error) {
	ephPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	shared, err := ephPriv.ECDH(recipientPublic)
	if err != nil {
		return nil, err
	}

	key, err := deriveAEADKey(shared, ephPriv.PublicKey().Bytes(), recipientPublic.Bytes())
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ct := aead.Seal(nil, nonce, plaintext, aad)

	out := make([]byte, 0, 32+len(nonce)+len(ct))
	out = append(out, ephPriv.PublicKey().Bytes()...)
	out = append(out, nonce...)
	out = append(out, ct...)
	return out, nil
}

// Open decrypts a ciphertext produced by Seal using the recipient's private key.
func Open(recipientPrivate *ecdh.PrivateKey, ciphertext, aad []byte) ([]byte, error) {
	const ephLen = 32
	if len(ciphertext) < ephLen+chacha20poly1305.NonceSize {
		return nil, ErrHPKEShortCiphertext
	}
	ephPubBytes := ciphertext[:ephLen]
	rest := ciphertext[ephLen:]
	nonce := rest[:chacha20poly1305.NonceSize]
	ct := rest[chacha20poly1305.NonceSize:]

	ephPub, err := ecdh.X25519().NewPublicKey(ephPubBytes)
	if err != nil {
		return nil, err
	}
	shared, err := recipientPrivate.ECDH(ephPub)
	if err != nil {
		return nil, err
	}

	key, err := deriveAEADKey(shared, ephPubBytes, recipientPrivate.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, ErrHPKEDecryptFailed
	}
	return pt, nil
}

func deriveAEADKey(sharedSecret, ephPub, recipientPub []byte) ([]byte, error) {
	salt := append(append([]byte{}, ephPub...), recipientPub...)
	kdf := hkdf.New(newSHA256, sharedSecret, salt, []byte(hpkeInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}
