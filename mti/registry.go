package mti

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// openSessions tracks which serial ports are claimed by open sessions, so
// two sessions cannot fight over one board. Claims are keyed by the port
// path the session was configured with. Sessions themselves are
// single-owner, but separate sessions may be opened from separate
// goroutines, so the claim map must be safe for concurrent use.
var openSessions = xsync.NewMapOf[string, *Session]()

func claimPort(path string, s *Session) error {
	if _, loaded := openSessions.LoadOrStore(path, s); loaded {
		return fmt.Errorf("%w: %s", ErrPortBusy, path)
	}

	return nil
}

func releasePort(path string) {
	openSessions.Delete(path)
}

// OpenPorts returns the port paths currently claimed by open sessions,
// sorted for stable output.
func OpenPorts() []string {
	ports := make([]string, 0)
	openSessions.Range(func(path string, _ *Session) bool {
		ports = append(ports, path)
		return true
	})
	slices.Sort(ports)

	return ports
}
