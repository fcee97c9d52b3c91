package mti

import (
	"errors"
	"fmt"
	"strconv"
)

// Valid ranges for the three electrical parameters. Values come from the
// mirror's datasheet and are validated host-side before transmission.
const (
	MinVBias = 0
	MaxVBias = 100

	MinVDiffMax = 0
	MaxVDiffMax = 200

	MinFilterBW = 50
	MaxFilterBW = 15000
)

// MirrorParams holds the three electrical parameters of a mirror, each nil
// until the board has confirmed it. All three must be set before the
// high-voltage drive may be enabled.
type MirrorParams struct {
	// VBias is the bias voltage in volts.
	VBias *int
	// VDiffMax is the maximum differential voltage across the control
	// lines, in volts.
	VDiffMax *int
	// FilterBW is the hardware low-pass filter bandwidth in hertz.
	FilterBW *int
}

// Complete reports whether all three parameters are set.
func (p MirrorParams) Complete() bool {
	return p.VBias != nil && p.VDiffMax != nil && p.FilterBW != nil
}

func (p MirrorParams) clone() MirrorParams {
	var out MirrorParams
	if p.VBias != nil {
		v := *p.VBias
		out.VBias = &v
	}
	if p.VDiffMax != nil {
		v := *p.VDiffMax
		out.VDiffMax = &v
	}
	if p.FilterBW != nil {
		v := *p.FilterBW
		out.FilterBW = &v
	}

	return out
}

// Position is a 2-axis normalized mirror position. Both axes run over the
// closed range [-1, 1]; (0, 0) is mechanical center.
type Position struct {
	X float64
	Y float64
}

// SetVBias sets the bias voltage in volts, range [MinVBias, MaxVBias].
func (s *Session) SetVBias(v int) error {
	return s.setParam("vbias", cmdSetVBias, v, MinVBias, MaxVBias, &s.settings.VBias)
}

// SetVDiffMax sets the maximum differential voltage across the control
// lines in volts, range [MinVDiffMax, MaxVDiffMax].
func (s *Session) SetVDiffMax(v int) error {
	return s.setParam("vdifference max", cmdSetVDiff, v, MinVDiffMax, MaxVDiffMax, &s.settings.VDiffMax)
}

// SetFilterBW sets the hardware filter bandwidth in hertz, range
// [MinFilterBW, MaxFilterBW].
func (s *Session) SetFilterBW(v int) error {
	return s.setParam("filter bandwidth", cmdSetBW, v, MinFilterBW, MaxFilterBW, &s.settings.FilterBW)
}

// setParam is the shared routine behind the three parameter setters: guard
// against the drive being on, validate the range, transmit, and commit the
// cache slot only on the exact acknowledgement.
func (s *Session) setParam(name, token string, v, lo, hi int, slot **int) error {
	if !s.open {
		return ErrNotOpen
	}
	if s.drive.IsOn() {
		return fmt.Errorf("%w: cannot set %s", ErrDriveOn, name)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d not in [%d, %d]", ErrOutOfRange, name, v, lo, hi)
	}

	s.logger.Info("mti: setting parameter", "param", name, "value", v)
	resp, err := s.exchange(token + " " + strconv.Itoa(v))
	if err != nil {
		return err
	}
	if resp != ackOK {
		return fmt.Errorf("%w: set %s: %q", ErrUnexpectedResponse, name, resp)
	}
	*slot = &v

	return nil
}

// SetMirrorParams sets all three parameters in one call, in the fixed
// order bias voltage, maximum differential voltage, filter bandwidth.
// Every setter runs regardless of earlier failures so that all range
// errors surface at once; the returned error joins the individual
// failures and is nil only when all three succeeded.
func (s *Session) SetMirrorParams(vbias, vdiffMax, filterBW int) error {
	return errors.Join(
		s.SetVBias(vbias),
		s.SetVDiffMax(vdiffMax),
		s.SetFilterBW(filterBW),
	)
}

// MirrorParams returns a copy of the confirmed parameters. Slots are nil
// until the board has acknowledged the corresponding setter.
func (s *Session) MirrorParams() MirrorParams {
	return s.settings.clone()
}

// SetMirrorPosition points the mirror at the normalized position (x, y).
// Both axes must lie in [-1, 1]. The board's motion command is 3-axis;
// only two axes are exposed here and the third is always sent as zero.
//
// The board accepts the command even while the drive is off, but the
// mirror does not physically move until the drive is enabled.
func (s *Session) SetMirrorPosition(x, y float64) error {
	return s.setPosition(x, y, false)
}

// setPosition implements SetMirrorPosition. The exit sequence re-centers
// through the quiet path, which skips the advisory logging.
func (s *Session) setPosition(x, y float64, quiet bool) error {
	if !s.open {
		return ErrNotOpen
	}
	if x < -1 || y < -1 || x > 1 || y > 1 {
		return fmt.Errorf("%w: position (%s, %s) not in [-1, 1]",
			ErrOutOfRange, formatAxis(x), formatAxis(y))
	}
	if !quiet {
		if s.drive.IsOff() {
			s.logger.Warn("mti: drive is off, mirror stays centered until enabled")
		}
		s.logger.Info("mti: moving mirror", "x", x, "y", y)
	}

	cmd := cmdGoTo + " " + formatAxis(x) + " " + formatAxis(y) + " 0"
	resp, err := s.exchange(cmd)
	if err != nil {
		return err
	}
	if resp != ackOK {
		return fmt.Errorf("%w: goto: %q", ErrUnexpectedResponse, resp)
	}
	s.position = Position{X: x, Y: y}

	return nil
}

// formatAxis renders an axis value the way the board parses it, with no
// trailing zeros.
func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// MirrorPosition returns the last commanded position and whether that
// position is live. With the drive off the physical mirror sits centered
// no matter what was last commanded, so live is false and the returned
// position is only the staged target.
func (s *Session) MirrorPosition() (Position, bool) {
	return s.position, s.drive.IsOn()
}

// EnableHV turns on the high-voltage drive. All three mirror parameters
// must have been confirmed first: driving a mirror without its datasheet
// limits in place can destroy it.
func (s *Session) EnableHV() error {
	if !s.open {
		return ErrNotOpen
	}
	if !s.settings.Complete() {
		return fmt.Errorf("%w: set vbias, vdifference max and filter bandwidth first",
			ErrSettingsMissing)
	}

	s.logger.Info("mti: enabling high-voltage drive")
	resp, err := s.exchange(cmdEnable)
	if err != nil {
		return err
	}
	if resp != ackOK {
		return fmt.Errorf("%w: enable: %q", ErrUnexpectedResponse, resp)
	}
	s.drive = DriveOn

	return nil
}

// DisableHV turns off the high-voltage drive, letting the mirror return
// to mechanical center. There is no precondition; disabling is always
// attemptable.
func (s *Session) DisableHV() error {
	if !s.open {
		return ErrNotOpen
	}

	s.logger.Info("mti: disabling high-voltage drive")
	resp, err := s.exchange(cmdDisable)
	if err != nil {
		return err
	}
	if resp != ackOK {
		return fmt.Errorf("%w: disable: %q", ErrUnexpectedResponse, resp)
	}
	s.drive = DriveOff

	return nil
}

// HVEnabled reports whether the high-voltage drive is on.
func (s *Session) HVEnabled() bool { return s.drive.IsOn() }

// EnableEcho turns the board's serial response echo on. Every
// confirmation this package does depends on responses being echoed, and
// boards ship with echo on; this exists to recover one whose echo was
// switched off elsewhere. The reply is not interpreted.
func (s *Session) EnableEcho() error {
	if !s.open {
		return ErrNotOpen
	}

	s.logger.Info("mti: enabling serial response echo")
	_, err := s.exchange(cmdEcho)

	return err
}

// Raw sends an arbitrary command line through the normal exchange and
// returns the board's raw reply. The command passes through normalization
// and the settle interval, but no guard, interpretation or cache update
// happens: state the board changes behind Raw is invisible to the
// session. Intended for bench diagnostics.
func (s *Session) Raw(cmd string) (string, error) {
	if !s.open {
		return "", ErrNotOpen
	}

	return s.exchange(cmd)
}
