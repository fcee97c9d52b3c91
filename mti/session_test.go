package mti

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/DMQIS/MEMS-Ctrl/internal/simdev"
	"github.com/DMQIS/MEMS-Ctrl/logger"
	"github.com/DMQIS/MEMS-Ctrl/transport"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// signOnBanner is the reply a board gives the first sign-on of a session.
const signOnBanner = "MTI-Device Enter Command Mode\r\n"

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.SetLevel(logger.ParseLevel(logLevel))

	os.Exit(m.Run())
}

// --- Test transport ---

// fakeTransport scripts responses in FIFO order and records every write.
// An exhausted script reads as an empty reply, which is how a silent port
// looks to the session.
type fakeTransport struct {
	writes    [][]byte
	responses []string
	closed    bool
}

var _ transport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) queue(responses ...string) {
	f.responses = append(f.responses, responses...)
}

func (f *fakeTransport) pop() []byte {
	if len(f.responses) == 0 {
		return nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]

	return []byte(resp)
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)

	return len(p), nil
}

func (f *fakeTransport) ReadLine() ([]byte, error) {
	return f.pop(), nil
}

func (f *fakeTransport) ReadUpTo(n int) ([]byte, error) {
	return f.pop(), nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// --- Helpers ---

func newTestSession(t *testing.T, port string, ft transport.Transport) *Session {
	t.Helper()
	r := require.New(t)

	cfg, err := NewSessionConfig(port,
		WithTransport(ft),
		WithSettleInterval(time.Millisecond),
	)
	r.NoError(err)

	s, err := NewSession(cfg)
	r.NoError(err)

	t.Cleanup(func() {
		if s.IsOpen() {
			_ = s.ForceClose()
		}
	})

	return s
}

// openTestSession returns a signed-on session backed by ft.
func openTestSession(t *testing.T, port string, ft *fakeTransport) *Session {
	t.Helper()

	ft.queue(signOnBanner)
	s := newTestSession(t, port, ft)
	require.NoError(t, s.Open())

	return s
}

// --- Lifecycle ---

func TestSessionOpen(t *testing.T) {
	require := require.New(t)

	t.Run("sign-on success", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "open-success", ft)

		require.True(s.IsOpen())
		require.Len(ft.writes, 1)
		require.Equal("$MTI$\n", string(ft.writes[0]))
	})

	t.Run("already in command mode is benign", func(t *testing.T) {
		ft := &fakeTransport{}
		ft.queue(respInvalidCommand)
		s := newTestSession(t, "open-already", ft)

		require.NoError(s.Open())
		require.True(s.IsOpen())
	})

	t.Run("silent port reports no device but session stays usable", func(t *testing.T) {
		ft := &fakeTransport{} // empty script: every reply is empty
		s := newTestSession(t, "open-silent", ft)

		err := s.Open()
		require.ErrorIs(err, ErrNoDevice)
		require.True(s.IsOpen())

		// The link is kept so the caller can still poke the port.
		ft.queue("pong\r\n")
		resp, err := s.Raw("MTI+EC")
		require.NoError(err)
		require.Equal("pong\r\n", resp)
	})

	t.Run("double open", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "open-double", ft)

		require.ErrorIs(s.Open(), ErrAlreadyOpen)
	})

	t.Run("nil config", func(t *testing.T) {
		s, err := NewSession(nil)
		require.Error(err)
		require.Nil(s)
	})
}

func TestPortClaims(t *testing.T) {
	require := require.New(t)

	ft := &fakeTransport{}
	s := openTestSession(t, "claims-port", ft)
	require.Contains(OpenPorts(), "claims-port")

	// A second session cannot claim the same port while the first holds it.
	other := newTestSession(t, "claims-port", &fakeTransport{})
	require.ErrorIs(other.Open(), ErrPortBusy)

	require.NoError(s.ForceClose())
	require.NotContains(OpenPorts(), "claims-port")

	// Released claims are reusable.
	ft2 := &fakeTransport{}
	ft2.queue(signOnBanner)
	reopened := newTestSession(t, "claims-port", ft2)
	require.NoError(reopened.Open())
}

func TestSessionOpenWriteError(t *testing.T) {
	require := require.New(t)

	mt := transport.NewMockTransport()
	mt.On("Write", mock.Anything).Return(0, io.ErrClosedPipe)
	mt.On("Close").Return(nil).Maybe() // cleanup force-closes after the test body

	s := newTestSession(t, "open-write-error", mt)
	require.ErrorIs(s.Open(), io.ErrClosedPipe)
	mt.AssertExpectations(t)
}

// --- Exit sequence ---

func TestSessionExit(t *testing.T) {
	require := require.New(t)

	t.Run("full sequence closes the port", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "exit-full", ft)

		ft.queue(ackOK, ackOK, ackOK, ackOK, ackOK) // 3 params, enable, move
		require.NoError(s.SetMirrorParams(50, 120, 800))
		require.NoError(s.EnableHV())
		require.NoError(s.SetMirrorPosition(0.5, -0.5))

		ft.queue(ackOK, ackOK, ackExit) // center, disable, logout
		require.NoError(s.Exit())

		require.True(ft.closed)
		require.False(s.IsOpen())

		n := len(ft.writes)
		require.Equal("MTI+GT 0 0 0\n", string(ft.writes[n-3]))
		require.Equal("MTI+DI\n", string(ft.writes[n-2]))
		require.Equal("MTI+EX\n", string(ft.writes[n-1]))

		pos, live := s.MirrorPosition()
		require.Equal(Position{}, pos)
		require.False(live)
	})

	t.Run("failed disable does not stop the logout", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "exit-partial", ft)

		ft.queue(ackOK, ackOK, ackOK, ackOK, ackOK)
		require.NoError(s.SetMirrorParams(50, 120, 800))
		require.NoError(s.EnableHV())
		require.NoError(s.SetMirrorPosition(0.5, -0.5))

		ft.queue(ackOK, "MTI-ERR Busy\r\n", ackExit) // disable refused
		require.NoError(s.Exit())

		// Logout acked, so the port still closed; the cache keeps the
		// last confirmed drive state.
		require.True(ft.closed)
		require.False(s.IsOpen())
		require.True(s.HVEnabled())
	})

	t.Run("refused logout keeps the port open", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "exit-refused", ft)

		ft.queue(respInvalidCommand) // logout rejected
		require.ErrorIs(s.Exit(), ErrExitRefused)

		require.False(ft.closed)
		require.True(s.IsOpen())
		require.NotNil(s.Transport())

		// The port claim is still held for the stuck session.
		other := newTestSession(t, "exit-refused", &fakeTransport{})
		require.ErrorIs(other.Open(), ErrPortBusy)
	})

	t.Run("no recentering from origin with drive off", func(t *testing.T) {
		ft := &fakeTransport{}
		s := openTestSession(t, "exit-clean", ft)

		ft.queue(ackExit)
		require.NoError(s.Exit())

		// Only the sign-on and the logout ever hit the wire.
		require.Len(ft.writes, 2)
		require.Equal("MTI+EX\n", string(ft.writes[1]))
	})

	t.Run("not open", func(t *testing.T) {
		s := newTestSession(t, "exit-unopened", &fakeTransport{})
		require.ErrorIs(s.Exit(), ErrNotOpen)
	})
}

// --- Simulator round-trip ---

func TestSessionAgainstSimulator(t *testing.T) {
	require := require.New(t)

	dev := simdev.New()
	s := newTestSession(t, "sim-roundtrip", dev)

	require.NoError(s.Open())
	require.True(dev.SignedIn())

	require.NoError(s.SetMirrorParams(50, 120, 800))
	require.NoError(s.EnableHV())
	require.True(dev.DriveOn())

	require.NoError(s.SetMirrorPosition(0.25, -0.75))
	x, y := dev.Position()
	require.InDelta(0.25, x, 1e-9)
	require.InDelta(-0.75, y, 1e-9)

	require.NoError(s.Exit())
	require.False(dev.SignedIn())
	require.False(dev.DriveOn())
	require.False(s.IsOpen())
}

func TestSessionSimulatorFaults(t *testing.T) {
	require := require.New(t)

	t.Run("muted device looks absent", func(t *testing.T) {
		dev := simdev.New()
		dev.Mute(true)

		s := newTestSession(t, "sim-muted", dev)
		require.ErrorIs(s.Open(), ErrNoDevice)
		require.True(s.IsOpen())
	})

	t.Run("refused logout leaves the simulator session up", func(t *testing.T) {
		dev := simdev.New()
		dev.Override("MTI+EX", "MTI-ERR Busy\r\n")

		s := newTestSession(t, "sim-stuck", dev)
		require.NoError(s.Open())
		require.ErrorIs(s.Exit(), ErrExitRefused)
		require.True(dev.SignedIn())
		require.True(s.IsOpen())
	})
}
