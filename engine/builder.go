package engine

import (
	"github.com/google/uuid"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
	"github.com/hxrts/aura/xcrypto"
)

// Builder constructs and appends journal.Events on behalf of the
// choreographies in this package, filling in parent_hash/epoch_at_write
// from the journal's current head so callers only need to supply the
// payload and its authorization (§4.1 event shape).
type Builder struct {
	J *journal.Journal
}

func NewBuilder(j *journal.Journal) *Builder {
	return &Builder{J: j}
}

// Append builds a full event around payload/auth and appends it, returning
// the receipt. nonce is the caller-tracked next nonce for the signing
// principal; events with AuthLifecycleInternal or AuthThreshold kind pass 0
// since those are not attributable to a single principal's nonce sequence.
func (b *Builder) Append(payload journal.Payload, auth journal.Authorization, nonce uint64) (journal.Receipt, error) {
	e := b.Build(payload, nonce)
	e.Authorization = auth
	return b.J.Append(e)
}

// Build constructs (but does not append) an event around payload, filling
// parent_hash/epoch_at_write/event_id from the journal's current head. Its
// Authorization is left zero-valued: SignableHash excludes that field, so
// callers that need to sign the event (e.g. the consensus protocol
// collecting FROST shares) can hash it before a signature exists and attach
// Authorization afterward without changing the hash they signed.
func (b *Builder) Build(payload journal.Payload, nonce uint64) journal.Event {
	head, hasHead, epoch := b.J.Head()
	return journal.Event{
		Version:      journal.MaxSupportedVersion,
		EventID:      uuid.New(),
		Nonce:        nonce,
		ParentHash:   head,
		HasParent:    hasHead,
		EpochAtWrite: epoch,
		Payload:      payload,
	}
}

func internalAuth() journal.Authorization {
	return journal.Authorization{Kind: journal.AuthLifecycleInternal}
}

// DeviceSigner authors device-attributed events: it signs an event's
// signable hash with the local device's enrollment key and tracks the
// per-principal nonce this process's own appends have consumed, mirroring
// the per-principal strictly-increasing nonce the journal itself enforces.
type DeviceSigner struct {
	builder  *Builder
	deviceID ids.DeviceId
	keys     xcrypto.KeyPair
	nextNonce uint64
}

func NewDeviceSigner(b *Builder, deviceID ids.DeviceId, keys xcrypto.KeyPair, nextNonce uint64) *DeviceSigner {
	return &DeviceSigner{builder: b, deviceID: deviceID, keys: keys, nextNonce: nextNonce}
}

// Append builds payload into an event, signs it under AuthDeviceCertificate,
// and appends it, advancing this signer's tracked nonce on success.
func (s *DeviceSigner) Append(payload journal.Payload) (journal.Receipt, error) {
	nonce := s.nextNonce
	e := s.builder.Build(payload, nonce)
	signable, err := e.SignableHash()
	if err != nil {
		return journal.Receipt{}, err
	}
	e.Authorization = journal.Authorization{
		Kind:      journal.AuthDeviceCertificate,
		DeviceID:  s.deviceID,
		Signature: s.keys.Sign(signable.Bytes()),
	}
	receipt, err := s.builder.J.Append(e)
	if err != nil {
		return journal.Receipt{}, err
	}
	s.nextNonce = nonce + 1
	return receipt, nil
}

func (s *DeviceSigner) DeviceID() ids.DeviceId { return s.deviceID }
