package engine

import (
	"bytes"
	"errors"
	"sort"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/xcrypto"
)

var ErrDeviceNotInGroup = errors.New("engine: device is not a member of the signing group")

// ParticipantIndex maps a device to its FROST x-coordinate: devices sorted
// lexicographically by id, indexed from 1 (x=0 is reserved for the
// reconstructed secret). Every caller computing this for the same group
// membership list gets the same assignment, so it needs no separate
// bookkeeping event of its own.
func ParticipantIndex(group []ids.DeviceId, device ids.DeviceId) (xcrypto.ParticipantID, error) {
	sorted := append([]ids.DeviceId(nil), group...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })
	for i, d := range sorted {
		if d == device {
			return xcrypto.ParticipantID(i + 1), nil
		}
	}
	return 0, ErrDeviceNotInGroup
}

// ParticipantIDs returns the full assignment for group, in the same order
// ParticipantIndex would produce it.
func ParticipantIDs(group []ids.DeviceId) map[ids.DeviceId]xcrypto.ParticipantID {
	sorted := append([]ids.DeviceId(nil), group...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })
	out := make(map[ids.DeviceId]xcrypto.ParticipantID, len(sorted))
	for i, d := range sorted {
		out[d] = xcrypto.ParticipantID(i + 1)
	}
	return out
}
