package worker

import "sync"

// SessionGuard allows at most one in-flight conversation turn per session.
// Callers must pair every successful TryAcquire with a Release on every exit
// path, or the session stays locked out forever.
type SessionGuard struct {
	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewSessionGuard() *SessionGuard {
	return &SessionGuard{inflight: make(map[int64]struct{})}
}

// TryAcquire claims the session. It returns false when a turn is already
// running there.
func (g *SessionGuard) TryAcquire(sessionID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[sessionID]; busy {
		return false
	}
	g.inflight[sessionID] = struct{}{}
	return true
}

// Release frees the session. Releasing a session that is not held is a no-op.
func (g *SessionGuard) Release(sessionID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, sessionID)
}

// Busy reports whether a turn is currently running for the session.
func (g *SessionGuard) Busy(sessionID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[sessionID]
	return busy
}
