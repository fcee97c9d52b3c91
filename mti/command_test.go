package mti

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCommand(t *testing.T) {
	require := require.New(t)

	t.Run("terminator variants collapse to one LF", func(t *testing.T) {
		cases := map[string]string{
			"MTI+VB 10":     "MTI+VB 10\n",
			"MTI+VB 10\n":   "MTI+VB 10\n",
			"MTI+VB 10\r":   "MTI+VB 10\n",
			"MTI+VB 10\r\n": "MTI+VB 10\n",
			"MTI+VB 10\n\r": "MTI+VB 10\n",
		}
		for in, want := range cases {
			require.Equal(want, string(normalizeCommand([]byte(in))), "input %q", in)
		}
	})

	t.Run("empty payload becomes bare LF", func(t *testing.T) {
		require.Equal("\n", string(normalizeCommand(nil)))
		require.Equal("\n", string(normalizeCommand([]byte(""))))
		require.Equal("\n", string(normalizeCommand([]byte("\r\n"))))
		require.Equal("\n", string(normalizeCommand([]byte("\n"))))
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{"$MTI$", "MTI+EX\r\n", "MTI+GT 0.5 -0.5 0", "", "\r"}
		for _, in := range inputs {
			once := normalizeCommand([]byte(in))
			twice := normalizeCommand(append([]byte(nil), once...))
			require.Equal(string(once), string(twice), "input %q", in)
		}
	})

	t.Run("interior terminators untouched", func(t *testing.T) {
		require.Equal("a\r\nb\n", string(normalizeCommand([]byte("a\r\nb"))))
	})
}
