package bus

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/hxrts/aura/ids"
)

// EncodeTransportOffer/EncodeTransportAnswer let a TransportOffer/Answer
// ride inside an Envelope's opaque payload, flooded like any other
// envelope until it reaches the intended peer (§4.6).
func EncodeTransportOffer(o TransportOffer) ([]byte, error) { return cbor.Marshal(o) }
func DecodeTransportOffer(data []byte) (TransportOffer, error) {
	var o TransportOffer
	err := cbor.Unmarshal(data, &o)
	return o, err
}

func EncodeTransportAnswer(a TransportAnswer) ([]byte, error) { return cbor.Marshal(a) }
func DecodeTransportAnswer(data []byte) (TransportAnswer, error) {
	var a TransportAnswer
	err := cbor.Unmarshal(data, &a)
	return a, err
}

// RespondToOffer builds the TransportAnswer a peer sends back after
// receiving a TransportOffer addressed to it, selecting the
// highest-preference method (QUIC > WebSocket > TCP).
func RespondToOffer(self ids.DeviceId, offer TransportOffer) (TransportAnswer, bool) {
	chosen, ok := SelectPreferred(offer.Methods)
	if !ok {
		return TransportAnswer{}, false
	}
	return TransportAnswer{FromDevice: self, ToDevice: offer.FromDevice, Selected: chosen}, true
}
