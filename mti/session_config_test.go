package mti

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DMQIS/MEMS-Ctrl/logger"
	"github.com/DMQIS/MEMS-Ctrl/transport"
)

func TestNewSessionConfig_Defaults(t *testing.T) {
	cfg, err := NewSessionConfig("/dev/ttyUSB0")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port())
	assert.Equal(t, DefaultSettleInterval, cfg.SettleInterval())
	assert.Equal(t, DefaultResponseWindow, cfg.ResponseWindow())
	assert.Equal(t, transport.DefaultReadTimeout, cfg.ReadTimeout())
	assert.Nil(t, cfg.Transport())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewSessionConfig_WithOptions(t *testing.T) {
	ft := &fakeTransport{}
	ml := logger.NewMockLogger()

	cfg, err := NewSessionConfig("/dev/ttyUSB1",
		WithSettleInterval(50*time.Millisecond),
		WithResponseWindow(64),
		WithReadTimeout(100*time.Millisecond),
		WithTransport(ft),
		WithLogger(ml),
	)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Port())
	assert.Equal(t, 50*time.Millisecond, cfg.SettleInterval())
	assert.Equal(t, 64, cfg.ResponseWindow())
	assert.Equal(t, 100*time.Millisecond, cfg.ReadTimeout())
	assert.Same(t, ft, cfg.Transport())
	assert.Same(t, ml, cfg.GetLogger())
}

func TestNewSessionConfig_EmptyPort(t *testing.T) {
	_, err := NewSessionConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port is empty")
}

func TestWithSettleInterval_OutOfRange(t *testing.T) {
	_, err := NewSessionConfig("/dev/ttyUSB0", WithSettleInterval(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settle interval")

	_, err = NewSessionConfig("/dev/ttyUSB0", WithSettleInterval(-time.Second))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settle interval")
}

func TestWithResponseWindow_OutOfRange(t *testing.T) {
	_, err := NewSessionConfig("/dev/ttyUSB0", WithResponseWindow(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response window")
}

func TestWithReadTimeout_OutOfRange(t *testing.T) {
	_, err := NewSessionConfig("/dev/ttyUSB0", WithReadTimeout(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read timeout")
}

func TestWithTransport_Nil(t *testing.T) {
	_, err := NewSessionConfig("/dev/ttyUSB0", WithTransport(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestWithLogger_Nil(t *testing.T) {
	_, err := NewSessionConfig("/dev/ttyUSB0", WithLogger(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger")
}
