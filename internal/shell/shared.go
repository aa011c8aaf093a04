package shell

import "sync"

// Shared serialises access to a Session so several goroutines can use it
// without interleaving their commands.
type Shared struct {
	mu      sync.Mutex
	session *Session
}

// NewShared wraps session.
func NewShared(session *Session) *Shared {
	return &Shared{session: session}
}

// Run runs command while holding the session lock.
func (s *Shared) Run(command string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Run(command)
}

// Close closes the underlying session once any in-flight command finishes.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Close()
}
