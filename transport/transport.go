package transport

import (
	"errors"
	"fmt"
	"time"
)

// Default port parameters for the MTI driver board.
const (
	// DefaultBaudRate is the only rate the board's USB-serial bridge runs at.
	DefaultBaudRate = 115200

	// DefaultReadTimeout bounds how long a single read waits for data.
	DefaultReadTimeout = 500 * time.Millisecond
)

// Transport is a duplex byte channel to an MTI driver board.
//
// Implementations are not required to be goroutine-safe; a session owns its
// transport exclusively and serializes all access to it.
type Transport interface {
	// Write sends p to the device and returns the number of bytes written.
	Write(p []byte) (int, error)

	// ReadLine reads until a '\n' byte, the read timeout elapses, or the
	// channel fails. The returned slice includes the terminator when one was
	// seen. A timeout is not an error: ReadLine returns what was read so
	// far, possibly an empty slice, with a nil error.
	ReadLine() ([]byte, error)

	// ReadUpTo reads at most n bytes. It returns once n bytes have
	// accumulated, the data ends in a '\n' byte, or a read times out with
	// nothing further buffered. As with ReadLine, a timeout alone is not an
	// error.
	ReadUpTo(n int) ([]byte, error)

	// Close releases the underlying channel.
	Close() error
}

// Config holds the parameters for opening a serial port to the driver board.
type Config struct {
	// Path is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	Path string

	// BaudRate is the line rate. Zero selects DefaultBaudRate.
	BaudRate int

	// ReadTimeout bounds each read call. Zero selects DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Validate reports whether the config describes an openable port.
func (cfg *Config) Validate() error {
	if cfg.Path == "" {
		return errors.New("transport: port path is empty")
	}
	if cfg.BaudRate <= 0 {
		return fmt.Errorf("transport: baud rate %d must be positive", cfg.BaudRate)
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("transport: read timeout %v must be positive", cfg.ReadTimeout)
	}

	return nil
}
