package engine

import (
	"errors"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

var ErrDeviceCertificateIDMismatch = errors.New("engine: device certificate subject does not match the enrolling device id")

// MembershipChoreography admits new devices from a self-issued certificate.
// It carries no session state: unlike resharing/recovery, enrolling a
// genesis or already-approved device is a single-shot append, not a
// multi-round protocol.
type MembershipChoreography struct {
	builder *Builder
}

func NewMembershipChoreography(b *Builder) *MembershipChoreography {
	return &MembershipChoreography{builder: b}
}

// EnrollDevice verifies the device's self-certified COSE_Sign1 enrollment
// certificate and appends the AddDevice admitting it. cert only proves the
// claimed public key and device id are self-consistent; it is the caller's
// responsibility to have already gated this call behind whatever
// out-of-band trust decision (genesis bootstrap, a completed recovery
// session, an approved DKD session) makes admitting deviceID legitimate
// here.
func (m *MembershipChoreography) EnrollDevice(deviceID ids.DeviceId, label string, cert []byte, sessionID ids.SessionId, hasSession bool) (journal.Receipt, error) {
	certDeviceID, certLabel, pub, err := xcrypto.VerifyDeviceCertificate(cert)
	if err != nil {
		return journal.Receipt{}, err
	}
	if ids.DeviceId(certDeviceID) != deviceID {
		return journal.Receipt{}, ErrDeviceCertificateIDMismatch
	}
	if certLabel != "" {
		label = certLabel
	}

	var pubArr [32]byte
	copy(pubArr[:], pub)

	payload := &journal.AddDevice{
		DeviceID:   deviceID,
		Label:      label,
		PublicKey:  pubArr,
		SessionID:  sessionID,
		HasSession: hasSession,
	}
	return m.builder.Append(payload, internalAuth(), 0)
}
