package mti

import "errors"

// Sentinel errors for the MTI protocol layer. Operations wrap these with
// detail via fmt.Errorf and %w; match with errors.Is.
var (
	// Session lifecycle errors.
	ErrAlreadyOpen = errors.New("mti: session already open")
	ErrNotOpen     = errors.New("mti: session not open")
	ErrPortBusy    = errors.New("mti: port already claimed by another session")
	ErrNoDevice    = errors.New("mti: no device answered sign-on")

	// Command guard errors. These fail before anything is transmitted.
	ErrDriveOn         = errors.New("mti: parameters are locked while the drive is on")
	ErrOutOfRange      = errors.New("mti: value out of range")
	ErrSettingsMissing = errors.New("mti: mirror parameters not fully set")

	// Protocol outcome errors.
	ErrUnexpectedResponse = errors.New("mti: unexpected device response")
	ErrExitRefused        = errors.New("mti: device refused to exit command mode")
)
