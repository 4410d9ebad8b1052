package journal

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// codec holds the deterministic (sorted-map-keys, canonical) CBOR encode/
// decode modes required for signable hashing (§6, §9 "canonical
// serialization"), mirroring the teacher's NewCBORCodec pattern.
type codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var wireCodec = mustNewCodec()

func mustNewCodec() codec {
	encOpts := cbor.CanonicalEncOptions()
	enc, err := encOpts.EncMode()
	if err != nil {
		panic(err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	return codec{enc: enc, dec: dec}
}

// payloadWire is the tagged-union encoding of a Payload: the kind discriminant
// plus the CBOR encoding of the concrete struct, so a reader can dispatch
// before decoding the body (and fail safe on an unknown kind).
type payloadWire struct {
	Kind PayloadKind `cbor:"1,keyasint"`
	Body cbor.RawMessage `cbor:"2,keyasint"`
}

func encodePayload(p Payload) (payloadWire, error) {
	body, err := wireCodec.enc.Marshal(p)
	if err != nil {
		return payloadWire{}, err
	}
	return payloadWire{Kind: p.Kind(), Body: body}, nil
}

func decodePayload(w payloadWire) (Payload, error) {
	ctor, ok := payloadConstructors[w.Kind]
	if !ok {
		return nil, fmt.Errorf("journal: unknown payload kind %d", w.Kind)
	}
	p := ctor()
	if err := wireCodec.dec.Unmarshal(w.Body, p); err != nil {
		return nil, err
	}
	return p, nil
}
