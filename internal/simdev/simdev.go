// Package simdev emulates a MEMS driver board behind the transport
// interface. The Simulator parses the written command stream, walks the
// firmware's state machine and queues its replies for subsequent reads,
// so full sessions can run without hardware.
//
// Fault injection covers the paths hardware makes awkward: Mute turns
// the device into a dead port and Override pins the reply for a single
// command token.
//
// A Simulator is not goroutine-safe. Like the session that owns it, it
// is built for single-owner sequential use.
package simdev

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/DMQIS/MEMS-Ctrl/transport"
)

// ErrClosed is returned by transport operations after Close.
var ErrClosed = errors.New("simdev: transport closed")

// Firmware reply literals, CRLF-terminated like the real board's.
const (
	respEnter          = "MTI-Device Enter Command Mode\r\n"
	respExit           = "MTI-Device Exit Command Mode\r\n"
	respOK             = "MTI-OK\r\n"
	respInvalidCommand = "MTI-ERR InvalidCommand\r\n"
	respOutOfRange     = "MTI-ERR OutOfRange\r\n"
	respMissingParams  = "MTI-ERR MissingParams\r\n"
)

// Simulator is an in-memory MEMS driver board. It implements
// [transport.Transport]; writes feed the firmware state machine and
// reads drain the replies it queued.
type Simulator struct {
	signedIn bool
	driveOn  bool
	echo     bool

	vbias    *int
	vdiffMax *int
	filterBW *int

	x float64
	y float64

	pending []byte
	closed  bool
	muted   bool

	overrides map[string]string
}

var _ transport.Transport = (*Simulator)(nil)

// New returns a fresh board: signed out, drive off, no parameters set,
// mirror centered.
func New() *Simulator {
	return &Simulator{overrides: make(map[string]string)}
}

// --- Transport ---

// Write feeds one command line to the firmware. The reply, if any, is
// queued for the next read.
func (d *Simulator) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.muted {
		// A muted device is a dead port: bytes go out, nothing answers.
		return len(p), nil
	}

	line := strings.TrimSuffix(string(p), "\n")
	line = strings.TrimSuffix(line, "\r")
	d.dispatch(line)

	return len(p), nil
}

// ReadLine pops queued reply bytes through the first newline.
func (d *Simulator) ReadLine() ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}

	if i := bytes.IndexByte(d.pending, '\n'); i >= 0 {
		return d.pop(i + 1), nil
	}

	return d.pop(len(d.pending)), nil
}

// ReadUpTo pops at most n queued reply bytes, stopping after a newline.
func (d *Simulator) ReadUpTo(n int) ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}

	if n > len(d.pending) {
		n = len(d.pending)
	}
	if i := bytes.IndexByte(d.pending[:n], '\n'); i >= 0 {
		n = i + 1
	}

	return d.pop(n), nil
}

// Close shuts the simulated port. Further transport calls return
// [ErrClosed]; Close itself is idempotent.
func (d *Simulator) Close() error {
	d.closed = true
	return nil
}

func (d *Simulator) pop(n int) []byte {
	if n == 0 {
		return nil
	}

	out := make([]byte, n)
	copy(out, d.pending)
	d.pending = d.pending[n:]

	return out
}

func (d *Simulator) reply(resp string) {
	d.pending = append(d.pending, resp...)
}

// --- Firmware ---

func (d *Simulator) dispatch(line string) {
	fields := strings.Fields(line)
	token := ""
	if len(fields) > 0 {
		token = fields[0]
	}

	if resp, ok := d.overrides[token]; ok {
		d.reply(resp)
		return
	}

	if !d.signedIn {
		if token == "$MTI$" {
			d.signedIn = true
			d.reply(respEnter)
		}
		// A signed-out board answers nothing else.
		return
	}

	switch token {
	case "$MTI$":
		d.reply(respInvalidCommand)
	case "MTI+VB":
		// Parameter ranges mirror the datasheet limits.
		d.setParam(fields[1:], 0, 100, &d.vbias)
	case "MTI+VD":
		d.setParam(fields[1:], 0, 200, &d.vdiffMax)
	case "MTI+BW":
		d.setParam(fields[1:], 50, 15000, &d.filterBW)
	case "MTI+EN":
		d.enable()
	case "MTI+DI":
		d.driveOn = false
		d.reply(respOK)
	case "MTI+GT":
		d.goTo(fields[1:])
	case "MTI+EC":
		d.echo = true
		d.reply(respOK)
	case "MTI+EX":
		d.signedIn = false
		d.reply(respExit)
	default:
		d.reply(respInvalidCommand)
	}
}

func (d *Simulator) setParam(args []string, lo, hi int, slot **int) {
	if len(args) != 1 {
		d.reply(respInvalidCommand)
		return
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		d.reply(respInvalidCommand)
		return
	}
	if v < lo || v > hi {
		d.reply(respOutOfRange)
		return
	}

	*slot = &v
	d.reply(respOK)
}

func (d *Simulator) enable() {
	if d.vbias == nil || d.vdiffMax == nil || d.filterBW == nil {
		d.reply(respMissingParams)
		return
	}

	d.driveOn = true
	d.reply(respOK)
}

func (d *Simulator) goTo(args []string) {
	if len(args) != 3 {
		d.reply(respInvalidCommand)
		return
	}

	var axes [3]float64
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			d.reply(respInvalidCommand)
			return
		}
		if v < -1 || v > 1 {
			d.reply(respOutOfRange)
			return
		}
		axes[i] = v
	}

	d.x, d.y = axes[0], axes[1]
	d.reply(respOK)
}

// --- Inspection and fault injection ---

// SignedIn reports whether the board is in command mode.
func (d *Simulator) SignedIn() bool { return d.signedIn }

// DriveOn reports whether the high-voltage drive is on.
func (d *Simulator) DriveOn() bool { return d.driveOn }

// EchoOn reports whether the serial response echo was switched on.
func (d *Simulator) EchoOn() bool { return d.echo }

// Position returns the device-side mirror position.
func (d *Simulator) Position() (x, y float64) { return d.x, d.y }

// Mute controls whether the device answers at all. While muted, writes
// are accepted and discarded without touching device state, like a
// cable plugged into nothing.
func (d *Simulator) Mute(muted bool) { d.muted = muted }

// Override pins the reply for one command token, bypassing the state
// machine for that token entirely. An empty response removes the
// override.
func (d *Simulator) Override(token, response string) {
	if response == "" {
		delete(d.overrides, token)
		return
	}
	d.overrides[token] = response
}
