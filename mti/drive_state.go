package mti

// DriveState represents the high-voltage drive state of the driver board.
type DriveState uint32

// IsOn returns if the high-voltage drive is on.
func (ds DriveState) IsOn() bool { return ds == DriveOn }

// IsOff returns if the high-voltage drive is off.
func (ds DriveState) IsOff() bool { return ds == DriveOff }

// String returns string representation of the current state.
func (ds DriveState) String() string {
	switch ds {
	case DriveOff:
		return "off"
	case DriveOn:
		return "on"
	default:
		return "unknown"
	}
}

// Drive states of the MEMS driver board. The board has no intermediate
// state: the drive is either actuating the mirror or it is not.
const (
	// DriveOff indicates the high-voltage drive is off and the mirror sits
	// centered regardless of the last commanded position.
	DriveOff DriveState = iota
	// DriveOn indicates the high-voltage drive is actuating the mirror.
	DriveOn
)
