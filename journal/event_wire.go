package journal

import (
	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

// authorizationWire is Authorization's CBOR shape.
type authorizationWire struct {
	Kind               AuthorizationKind `cbor:"1,keyasint"`
	ThresholdR         [32]byte          `cbor:"2,keyasint"`
	ThresholdZ         [32]byte          `cbor:"3,keyasint"`
	HasThreshold       bool              `cbor:"4,keyasint"`
	DeviceID           [16]byte          `cbor:"5,keyasint"`
	GuardianID         [16]byte          `cbor:"6,keyasint"`
	Signature          []byte            `cbor:"7,keyasint"`
}

// eventWire is the canonical CBOR shape of an Event. version appears first
// (field tag 1) so a reader can fail fast on an unsupported version before
// attempting to decode the rest (§6 wire format).
type eventWire struct {
	Version      uint16            `cbor:"1,keyasint"`
	EventID      [16]byte          `cbor:"2,keyasint"`
	AccountID    [16]byte          `cbor:"3,keyasint"`
	Timestamp    uint64            `cbor:"4,keyasint"`
	Nonce        uint64            `cbor:"5,keyasint"`
	ParentHash   [32]byte          `cbor:"6,keyasint"`
	HasParent    bool              `cbor:"7,keyasint"`
	EpochAtWrite uint64            `cbor:"8,keyasint"`
	Payload      payloadWire       `cbor:"9,keyasint"`
	Authorization authorizationWire `cbor:"10,keyasint,omitempty"`
}

func (e Event) toWire() (eventWire, error) {
	pw, err := encodePayload(e.Payload)
	if err != nil {
		return eventWire{}, err
	}
	w := eventWire{
		Version:      e.Version,
		EventID:      e.EventID,
		AccountID:    [16]byte(e.AccountID),
		Timestamp:    e.Timestamp,
		Nonce:        e.Nonce,
		ParentHash:   e.ParentHash,
		HasParent:    e.HasParent,
		EpochAtWrite: uint64(e.EpochAtWrite),
		Payload:      pw,
	}
	w.Authorization = authorizationWireOf(e.Authorization)
	return w, nil
}

func authorizationWireOf(a Authorization) authorizationWire {
	aw := authorizationWire{Kind: a.Kind, DeviceID: [16]byte(a.DeviceID), GuardianID: [16]byte(a.GuardianID), Signature: a.Signature}
	if a.ThresholdSignature != nil {
		aw.HasThreshold = true
		aw.ThresholdR = a.ThresholdSignature.R
		aw.ThresholdZ = a.ThresholdSignature.Z
	}
	return aw
}

func authorizationOf(aw authorizationWire) Authorization {
	a := Authorization{
		Kind:       aw.Kind,
		DeviceID:   ids.DeviceId(aw.DeviceID),
		GuardianID: ids.GuardianId(aw.GuardianID),
		Signature:  aw.Signature,
	}
	if aw.HasThreshold {
		a.ThresholdSignature = &xcrypto.ThresholdSignature{R: aw.ThresholdR, Z: aw.ThresholdZ}
	}
	return a
}

// MarshalSignable encodes the wire event excluding Authorization, per
// invariant 5: the signable_hash must be computable before authorization
// exists.
func (w eventWire) MarshalSignable() ([]byte, error) {
	bare := w
	bare.Authorization = authorizationWire{}
	return wireCodec.enc.Marshal(bare)
}

// MarshalFull encodes the complete wire event, including authorization, used
// to derive the hash that becomes the next event's parent_hash.
func (w eventWire) MarshalFull() ([]byte, error) {
	return wireCodec.enc.Marshal(w)
}

// FromWire reconstructs an Event from its canonical encoding, failing safe
// (ErrUnsupportedVersion) before attempting to decode the payload if the
// version exceeds what this reader supports (invariant 4).
func FromWire(data []byte) (Event, error) {
	var w eventWire
	if err := wireCodec.dec.Unmarshal(data, &w); err != nil {
		return Event{}, err
	}
	if w.Version > MaxSupportedVersion {
		return Event{}, ErrUnsupportedVersion
	}
	payload, err := decodePayload(w.Payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Version:       w.Version,
		EventID:       w.EventID,
		AccountID:     ids.AccountId(w.AccountID),
		Timestamp:     w.Timestamp,
		Nonce:         w.Nonce,
		ParentHash:    w.ParentHash,
		HasParent:     w.HasParent,
		EpochAtWrite:  ids.Epoch(w.EpochAtWrite),
		Payload:       payload,
		Authorization: authorizationOf(w.Authorization),
	}, nil
}

// ToWire exposes the canonical encoding for transport/storage (§6).
func (e Event) ToWire() ([]byte, error) {
	w, err := e.toWire()
	if err != nil {
		return nil, err
	}
	return w.MarshalFull()
}
