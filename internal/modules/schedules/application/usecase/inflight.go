package usecase

import "sync"

// inflightGuard rejects a second reconciliation for the same (session, merchant) pair while one
// is running. It never blocks: callers that lose the race get false and report the conflict.
type inflightGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{running: make(map[string]struct{})}
}

func inflightKey(sessionID, merchantID string) string {
	return sessionID + "\x00" + merchantID
}

func (g *inflightGuard) tryAcquire(sessionID, merchantID string) bool {
	key := inflightKey(sessionID, merchantID)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[key]; busy {
		return false
	}
	g.running[key] = struct{}{}
	return true
}

func (g *inflightGuard) release(sessionID, merchantID string) {
	g.mu.Lock()
	delete(g.running, inflightKey(sessionID, merchantID))
	g.mu.Unlock()
}

func (g *inflightGuard) busy(sessionID, merchantID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[inflightKey(sessionID, merchantID)]
	return ok
}
