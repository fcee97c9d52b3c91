package mti

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DMQIS/MEMS-Ctrl/logger"
	"github.com/DMQIS/MEMS-Ctrl/transport"
	"github.com/google/uuid"
)

// Session is the host-side handle for one MEMS driver board.
//
// It owns exactly one transport for its lifetime and mirrors the board
// state the host has confirmed: the electrical parameters, the drive
// state, and the last commanded position. Create it with [NewSession],
// bring it up with [Session.Open], and shut it down with [Session.Exit].
//
// Session is NOT goroutine-safe; it is designed for single-owner,
// sequential use.
type Session struct {
	cfg    *SessionConfig
	logger logger.Logger

	transport transport.Transport
	open      bool

	drive    DriveState
	settings MirrorParams
	position Position
}

// NewSession creates a session for the board described by cfg. No I/O
// happens until [Session.Open].
func NewSession(cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("mti: session config is nil")
	}

	s := &Session{
		cfg:    cfg,
		logger: cfg.GetLogger().With("session_id", uuid.NewString(), "port", cfg.Port()),
		drive:  DriveOff,
	}

	return s, nil
}

// Open claims the port, opens the transport and signs on to the board.
//
// A sign-on that stays unanswered returns [ErrNoDevice], but the session
// is left open and usable: the port claim and transport are kept so the
// caller can retry commands, inspect the link, or close down, at their
// choice. Any reply at all counts as a successful sign-on; the board
// rejecting the token as an invalid command just means a session was
// already active, which is equivalent.
func (s *Session) Open() error {
	if s.open {
		return ErrAlreadyOpen
	}

	if err := claimPort(s.cfg.Port(), s); err != nil {
		return err
	}

	if t := s.cfg.Transport(); t != nil {
		s.transport = t
	} else {
		port, err := transport.Open(transport.Config{
			Path:        s.cfg.Port(),
			BaudRate:    transport.DefaultBaudRate,
			ReadTimeout: s.cfg.ReadTimeout(),
		})
		if err != nil {
			releasePort(s.cfg.Port())
			return err
		}
		s.transport = port
	}
	s.open = true

	return s.signOn()
}

func (s *Session) signOn() error {
	resp, err := s.exchangeLine(cmdSignOn)
	if err != nil {
		return err
	}

	switch resp {
	case "":
		s.logger.Error("mti: no device answered sign-on")
		return fmt.Errorf("%w on %s", ErrNoDevice, s.cfg.Port())
	case respInvalidCommand:
		s.logger.Info("mti: device already in command mode")
	default:
		s.logger.Info("mti: signed on", "response", strings.TrimRight(resp, "\r\n"))
	}

	return nil
}

// IsOpen reports whether the session holds an open transport.
func (s *Session) IsOpen() bool { return s.open }

// Transport returns the session's transport, nil before Open. It is
// exposed for manual recovery after a refused exit; see [Session.Exit].
func (s *Session) Transport() transport.Transport { return s.transport }

// Exit runs the safe shutdown sequence: re-center the mirror if it was
// commanded away from center, disable the high-voltage drive if it is on,
// then log off the board. The first two steps are best-effort; their
// failures are logged and the sequence continues.
//
// The transport is closed only when the board acknowledges the logout
// with its exact exit literal. On any other reply Exit returns
// [ErrExitRefused] and deliberately leaves the transport open so the port
// can be debugged by hand via [Session.Transport].
func (s *Session) Exit() error {
	if !s.open {
		return ErrNotOpen
	}
	s.logger.Info("mti: starting exit sequence")

	if s.position != (Position{}) {
		s.logger.Info("mti: returning mirror to center")
		if err := s.setPosition(0, 0, true); err != nil {
			s.logger.Warn("mti: could not return mirror to center", "error", err)
		}
	}

	if s.drive.IsOn() {
		if err := s.DisableHV(); err != nil {
			s.logger.Warn("mti: could not disable high-voltage drive", "error", err)
		}
	}

	s.logger.Info("mti: logging off")
	resp, err := s.exchangeLine(cmdLogout)
	if err != nil {
		return err
	}
	if resp != ackExit {
		s.logger.Error("mti: device refused logout, keeping port open for manual recovery",
			"response", resp)
		return fmt.Errorf("%w: got %q", ErrExitRefused, resp)
	}

	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("mti: close failed: %w", err)
	}
	s.open = false
	releasePort(s.cfg.Port())
	s.logger.Info("mti: disconnected")

	return nil
}

// ForceClose closes the transport unconditionally and releases the port
// claim, skipping the safe shutdown sequence entirely. Prefer
// [Session.Exit]; this is the last resort when the board no longer
// responds.
func (s *Session) ForceClose() error {
	if !s.open {
		return ErrNotOpen
	}

	err := s.transport.Close()
	s.open = false
	releasePort(s.cfg.Port())
	if err != nil {
		return fmt.Errorf("mti: close failed: %w", err)
	}
	s.logger.Info("mti: force-closed")

	return nil
}
