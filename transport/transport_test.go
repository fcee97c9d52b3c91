package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require := require.New(t)

	cfg := Config{Path: "/dev/ttyUSB0", BaudRate: DefaultBaudRate, ReadTimeout: DefaultReadTimeout}
	require.NoError(cfg.Validate())

	t.Run("empty path", func(t *testing.T) {
		bad := cfg
		bad.Path = ""
		require.Error(bad.Validate())
	})

	t.Run("non-positive baud rate", func(t *testing.T) {
		bad := cfg
		bad.BaudRate = -9600
		require.Error(bad.Validate())
	})

	t.Run("non-positive read timeout", func(t *testing.T) {
		bad := cfg
		bad.ReadTimeout = -time.Second
		require.Error(bad.Validate())
	})
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	require := require.New(t)

	// Defaults fill baud rate and timeout, so the empty path is the only
	// validation failure here; Open must not touch any device.
	port, err := Open(Config{})
	require.Error(err)
	require.Nil(port)
}
