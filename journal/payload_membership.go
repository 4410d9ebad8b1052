package journal

import "github.com/hxrts/aura/ids"

type AddDevice struct {
	DeviceID  ids.DeviceId
	Label     string
	PublicKey [32]byte // device's Ed25519 certificate-signing key
	// SessionID links this AddDevice to the DKD/recovery session that minted
	// its key material, if any (CompleteRecovery requires this linkage).
	SessionID  ids.SessionId
	HasSession bool
}

func (AddDevice) Kind() PayloadKind { return KindAddDevice }
func (AddDevice) Monotone() bool    { return false }

type RemoveDevice struct {
	DeviceID ids.DeviceId
}

func (RemoveDevice) Kind() PayloadKind { return KindRemoveDevice }
func (RemoveDevice) Monotone() bool    { return false }

// UpdateDeviceNonce requires PreviousNonce to equal the device's recorded
// NextNonce and NewNonce to be strictly greater than PreviousNonce; NextNonce
// then becomes NewNonce, so forward jumps of more than one are accepted
// (§4.2, §9).
type UpdateDeviceNonce struct {
	DeviceID      ids.DeviceId
	PreviousNonce uint64
	NewNonce      uint64
}

func (UpdateDeviceNonce) Kind() PayloadKind { return KindUpdateDeviceNonce }
func (UpdateDeviceNonce) Monotone() bool    { return true }

type AddGuardian struct {
	GuardianID ids.GuardianId
	Label      string
	PublicKey  [32]byte // guardian's Ed25519 approval-signing key
}

func (AddGuardian) Kind() PayloadKind { return KindAddGuardian }
func (AddGuardian) Monotone() bool    { return false }

type RemoveGuardian struct {
	GuardianID ids.GuardianId
}

func (RemoveGuardian) Kind() PayloadKind { return KindRemoveGuardian }
func (RemoveGuardian) Monotone() bool    { return false }
