// Package mti implements the host side of the MTI ASCII command protocol
// spoken by MEMS mirror driver boards over a serial byte stream.
//
// The driver board exposes a line-oriented command mode: the host signs on
// with a fixed token, issues parameter and motion commands, and signs off.
// Commands are short ASCII lines; the board acknowledges most of them with
// an exact "MTI-OK" line, and any other reply means the command did not
// take effect.
//
// # Session Model
//
// A [Session] pairs one open transport with the host's view of the board:
// the three electrical parameters (bias voltage, maximum differential
// voltage, hardware filter bandwidth), the high-voltage drive state, and
// the last commanded mirror position. The session only mutates that view
// when the board acknowledges the corresponding command, so the cache
// tracks confirmed device state rather than attempted writes.
//
// Three rules govern command legality:
//
//   - Electrical parameters may only change while the drive is off.
//   - The drive may only be enabled after all three parameters are set.
//   - The commanded position is only live while the drive is on; with the
//     drive off the physical mirror sits centered regardless of the cache.
//
// # Timing
//
// The board needs settling time between receiving a command and producing
// its reply, so every exchange blocks for a fixed interval after writing
// before it reads. The interval is a hardware requirement, not a timeout:
// it is an uninterruptible sleep, and the session offers no cancellation.
// Expect each command to take at least the settle interval (200ms by
// default) end to end.
//
// # Shutdown
//
// [Session.Exit] runs a fixed best-effort sequence: re-center the mirror,
// disable the drive, log off. Step failures are logged and do not stop the
// sequence. The serial port is closed only when the board explicitly
// acknowledges the logout; otherwise the port stays open so the operator
// can recover by hand, reachable via [Session.Transport].
//
// A Session is NOT goroutine-safe. It assumes the single-owner, sequential
// use its synchronous blocking design implies.
package mti
