package xcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

var (
	ErrDeviceCertificateMalformed    = errors.New("xcrypto: device certificate is not a well-formed COSE_Sign1 message")
	ErrDeviceCertificateUnverifiable = errors.New("xcrypto: device certificate signature does not verify")
)

// deviceCertBody is the self-certified claim a device makes about its own
// enrollment identity: "this device id and label speak for this public key".
// It is signed by the private half of PublicKey, so verifying it only
// confirms the claim is self-consistent, not that any authority vouches for
// it; the journal's AddDevice apply fold is what actually admits the device.
type deviceCertBody struct {
	DeviceID  [16]byte `cbor:"1,keyasint"`
	Label     string   `cbor:"2,keyasint"`
	PublicKey [32]byte `cbor:"3,keyasint"`
}

// IssueDeviceCertificate builds a COSE_Sign1 envelope binding deviceID and
// label to keys.Public, signed under keys.Private with EdDSA. The resulting
// bytes are what a new device presents during enrollment, ahead of the
// account appending AddDevice for it.
func IssueDeviceCertificate(deviceID [16]byte, label string, keys KeyPair) ([]byte, error) {
	body, err := cbor.Marshal(deviceCertBody{DeviceID: deviceID, Label: label, PublicKey: [32]byte(keys.Public)})
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(cose.AlgorithmEdDSA, keys.Private)
	if err != nil {
		return nil, err
	}

	msg := cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmEdDSA,
			},
		},
		Payload: body,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, err
	}
	return msg.MarshalCBOR()
}

// VerifyDeviceCertificate parses cert, checks its self-signature, and
// returns the bound device id, label, and public key. It does not consult
// the journal; callers still need an AddDevice apply-fold check (or, for
// recovery, the AddedBySession linkage) before treating the device as a
// journal member.
func VerifyDeviceCertificate(cert []byte) (deviceID [16]byte, label string, pub ed25519.PublicKey, err error) {
	var msg cose.Sign1Message
	if err = msg.UnmarshalCBOR(cert); err != nil {
		return deviceID, "", nil, ErrDeviceCertificateMalformed
	}

	var body deviceCertBody
	if err = cbor.Unmarshal(msg.Payload, &body); err != nil {
		return deviceID, "", nil, ErrDeviceCertificateMalformed
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmEdDSA, ed25519.PublicKey(body.PublicKey[:]))
	if err != nil {
		return deviceID, "", nil, err
	}
	if err = msg.Verify(nil, verifier); err != nil {
		return deviceID, "", nil, ErrDeviceCertificateUnverifiable
	}

	return body.DeviceID, body.Label, ed25519.PublicKey(body.PublicKey[:]), nil
}
