package mti

import (
	"fmt"
	"time"
)

// Outgoing command tokens. Every token passes through normalizeCommand
// before transmission, so each reaches the wire with a single trailing
// line-feed.
const (
	cmdSignOn   = "$MTI$"  // enter command mode
	cmdSetVBias = "MTI+VB" // set bias voltage, integer argument
	cmdSetVDiff = "MTI+VD" // set maximum differential voltage, integer argument
	cmdSetBW    = "MTI+BW" // set hardware filter bandwidth, integer argument
	cmdEnable   = "MTI+EN" // enable high-voltage drive
	cmdDisable  = "MTI+DI" // disable high-voltage drive
	cmdGoTo     = "MTI+GT" // move mirror, three axis arguments
	cmdEcho     = "MTI+EC" // enable serial response echo
	cmdLogout   = "MTI+EX" // leave command mode
)

// Device response literals. Acknowledgements are matched exactly, including
// the CR-LF terminator; anything else is treated as command failure.
const (
	// ackOK acknowledges parameter, drive and motion commands.
	ackOK = "MTI-OK\r\n"

	// ackExit acknowledges the logout command. The serial port may be
	// closed only after this exact reply.
	ackExit = "MTI-Device Exit Command Mode\r\n"

	// respInvalidCommand is the board's generic rejection. In reply to the
	// sign-on token it means a session is already active, which is benign.
	respInvalidCommand = "MTI-ERR InvalidCommand\r\n"
)

// normalizeCommand rewrites a command payload so it ends with exactly one
// line-feed:
//
//  1. strip a trailing CR-LF or LF-CR pair
//  2. strip a lone trailing CR
//  3. append an LF unless one is already present
//
// The board mixes terminator conventions across its responses, so callers
// are allowed to be sloppy about what they pass in; normalization is
// idempotent, and an empty payload becomes a bare LF.
func normalizeCommand(cmd []byte) []byte {
	if n := len(cmd); n >= 2 {
		t0, t1 := cmd[n-2], cmd[n-1]
		if (t0 == '\r' && t1 == '\n') || (t0 == '\n' && t1 == '\r') {
			cmd = cmd[:n-2]
		}
	}
	if n := len(cmd); n >= 1 && cmd[n-1] == '\r' {
		cmd = cmd[:n-1]
	}
	if n := len(cmd); n == 0 || cmd[n-1] != '\n' {
		cmd = append(cmd, '\n')
	}

	return cmd
}

// exchange transmits one command and reads the board's reply from the
// response window. It normalizes the payload, writes it, sleeps for the
// settle interval the board needs before its reply is readable, then reads
// up to the configured window size.
//
// The reply is returned verbatim and may be empty; interpretation against
// the expected acknowledgement literal is the caller's job.
func (s *Session) exchange(cmd string) (string, error) {
	payload := normalizeCommand([]byte(cmd))

	s.logger.Debug("mti: sending command", "command", string(payload))
	if _, err := s.transport.Write(payload); err != nil {
		return "", fmt.Errorf("mti: write failed: %w", err)
	}

	time.Sleep(s.cfg.SettleInterval())

	resp, err := s.transport.ReadUpTo(s.cfg.ResponseWindow())
	if err != nil {
		return "", fmt.Errorf("mti: read failed: %w", err)
	}
	s.logger.Debug("mti: received response", "response", string(resp))

	return string(resp), nil
}

// exchangeLine is the exchange variant for the sign-on and logout
// handshakes, which read exactly one response line instead of the general
// response window.
func (s *Session) exchangeLine(cmd string) (string, error) {
	payload := normalizeCommand([]byte(cmd))

	s.logger.Debug("mti: sending command", "command", string(payload))
	if _, err := s.transport.Write(payload); err != nil {
		return "", fmt.Errorf("mti: write failed: %w", err)
	}

	time.Sleep(s.cfg.SettleInterval())

	resp, err := s.transport.ReadLine()
	if err != nil {
		return "", fmt.Errorf("mti: read failed: %w", err)
	}
	s.logger.Debug("mti: received response", "response", string(resp))

	return string(resp), nil
}
