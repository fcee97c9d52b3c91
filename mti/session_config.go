package mti

import (
	"errors"
	"fmt"
	"time"

	"github.com/DMQIS/MEMS-Ctrl/logger"
	"github.com/DMQIS/MEMS-Ctrl/transport"
)

// Defaults for session timing and framing.
const (
	// DefaultSettleInterval is the pause between writing a command and
	// reading its reply. The board firmware needs this settling time; an
	// interval of zero makes every reply come back empty.
	DefaultSettleInterval = 200 * time.Millisecond

	// DefaultResponseWindow is the maximum reply size read per command.
	// Some board responses carry odd line-feed placement, so replies are
	// read by byte window rather than strictly line by line.
	DefaultResponseWindow = 250
)

// SessionConfig holds all configuration for a driver board session.
type SessionConfig struct {
	// port is the serial device path the board is attached to.
	port string

	// settleInterval is the post-write pause before each read.
	settleInterval time.Duration

	// responseWindow is the maximum reply size per command exchange.
	responseWindow int

	// readTimeout bounds each transport read.
	readTimeout time.Duration

	// transport, when non-nil, is used instead of opening the serial port.
	transport transport.Transport

	logger logger.Logger
}

// NewSessionConfig creates a new session configuration for the board on the
// given serial port.
//
// opts are functional options applied in order; see With* functions.
func NewSessionConfig(port string, opts ...SessionOption) (*SessionConfig, error) {
	if port == "" {
		return nil, errors.New("mti: port is empty")
	}

	cfg := &SessionConfig{
		port:           port,
		settleInterval: DefaultSettleInterval,
		responseWindow: DefaultResponseWindow,
		readTimeout:    transport.DefaultReadTimeout,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Port returns the configured serial device path.
func (cfg *SessionConfig) Port() string { return cfg.port }

// SettleInterval returns the post-write settling pause.
func (cfg *SessionConfig) SettleInterval() time.Duration { return cfg.settleInterval }

// ResponseWindow returns the maximum reply size per command exchange.
func (cfg *SessionConfig) ResponseWindow() int { return cfg.responseWindow }

// ReadTimeout returns the per-read timeout applied at the transport.
func (cfg *SessionConfig) ReadTimeout() time.Duration { return cfg.readTimeout }

// Transport returns the injected transport, or nil when the session opens
// the serial port itself.
func (cfg *SessionConfig) Transport() transport.Transport { return cfg.transport }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- SessionOption ---

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithSettleInterval sets the pause between writing a command and reading
// its reply. Must be positive; the board does not answer without settling
// time.
func WithSettleInterval(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d <= 0 {
			return errors.New("mti: settle interval must be positive")
		}
		cfg.settleInterval = d

		return nil
	})
}

// WithResponseWindow sets the maximum reply size per command exchange.
func WithResponseWindow(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < 1 {
			return fmt.Errorf("mti: response window %d must be >= 1", n)
		}
		cfg.responseWindow = n

		return nil
	})
}

// WithReadTimeout sets the per-read timeout applied when the session opens
// the serial port.
func WithReadTimeout(d time.Duration) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if d <= 0 {
			return errors.New("mti: read timeout must be positive")
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithTransport injects a transport to use instead of opening the serial
// port, e.g. a simulator or a test mock. The port string still identifies
// the session for claim tracking.
func WithTransport(t transport.Transport) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if t == nil {
			return errors.New("mti: transport must not be nil")
		}
		cfg.transport = t

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("mti: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
