package mti

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is a point-in-time snapshot of the session's view of the board.
type Status struct {
	// Port is the serial device path the session is configured for.
	Port string
	// Drive is the high-voltage drive state.
	Drive DriveState
	// VBias, VDiffMax and FilterBW are the confirmed electrical
	// parameters, nil while unset.
	VBias    *int
	VDiffMax *int
	FilterBW *int
	// Position is the last commanded mirror position.
	Position Position
}

// Status returns a snapshot of the session state. The pointer slots are
// copies; mutating them does not touch the session.
func (s *Session) Status() Status {
	params := s.settings.clone()

	return Status{
		Port:     s.cfg.Port(),
		Drive:    s.drive,
		VBias:    params.VBias,
		VDiffMax: params.VDiffMax,
		FilterBW: params.FilterBW,
		Position: s.position,
	}
}

// String renders the driver status banner with the datasheet parameter
// names. It is a pure formatter and performs no I/O.
func (st Status) String() string {
	var b strings.Builder

	b.WriteString("==------MEMS DRIVER------==\n")
	fmt.Fprintf(&b, "Driver is currently %s\n", strings.ToUpper(st.Drive.String()))
	fmt.Fprintf(&b, "%16s = %s\n", "Vbias", formatParam(st.VBias))
	fmt.Fprintf(&b, "%16s = %s\n", "VdifferenceMax", formatParam(st.VDiffMax))
	fmt.Fprintf(&b, "%16s = %s\n", "HardwareFilterBW", formatParam(st.FilterBW))
	b.WriteString("==-----------------------==")

	return b.String()
}

func formatParam(v *int) string {
	if v == nil {
		return "unset"
	}

	return strconv.Itoa(*v)
}
