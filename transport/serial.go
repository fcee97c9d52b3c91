package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialPort is the real-hardware [Transport] over a local serial device.
type SerialPort struct {
	cfg  Config
	port serial.Port
}

var _ Transport = (*SerialPort)(nil)

// Open opens the serial port described by cfg with 8N1 framing and the
// configured read timeout, then discards any stale bytes sitting in the
// input buffer so the first exchange starts clean.
func Open(cfg Config) (*SerialPort, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to open %s: %w", cfg.Path, err)
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("transport: failed to set read timeout on %s: %w", cfg.Path, err)
	}

	_ = port.ResetInputBuffer()

	return &SerialPort{cfg: cfg, port: port}, nil
}

// Write sends p to the device.
func (p *SerialPort) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	if err != nil {
		return n, fmt.Errorf("transport: write to %s failed: %w", p.cfg.Path, err)
	}

	return n, nil
}

// ReadLine reads byte-by-byte until '\n' or a timed-out read.
//
// go.bug.st/serial reports a read timeout as (0, nil), so a zero-byte read
// means the device went silent and whatever accumulated is the whole reply.
func (p *SerialPort) ReadLine() ([]byte, error) {
	line := make([]byte, 0, 64)
	buf := make([]byte, 1)

	for {
		n, err := p.port.Read(buf)
		if err != nil {
			return line, fmt.Errorf("transport: read from %s failed: %w", p.cfg.Path, err)
		}
		if n == 0 {
			return line, nil
		}

		line = append(line, buf[0])
		if buf[0] == '\n' {
			return line, nil
		}
	}
}

// ReadUpTo accumulates up to n bytes, returning early when the data ends in
// '\n' (device replies are single lines) or a read times out.
func (p *SerialPort) ReadUpTo(n int) ([]byte, error) {
	resp := make([]byte, 0, n)
	buf := make([]byte, n)

	for len(resp) < n {
		r, err := p.port.Read(buf[:n-len(resp)])
		if err != nil {
			return resp, fmt.Errorf("transport: read from %s failed: %w", p.cfg.Path, err)
		}
		if r == 0 {
			break
		}

		resp = append(resp, buf[:r]...)
		if resp[len(resp)-1] == '\n' {
			break
		}
	}

	return resp, nil
}

// Close closes the serial port.
func (p *SerialPort) Close() error {
	if err := p.port.Close(); err != nil {
		return fmt.Errorf("transport: close %s failed: %w", p.cfg.Path, err)
	}

	return nil
}
