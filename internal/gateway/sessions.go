package gateway

import (
	"context"
	"sync"
	"time"
)

// sessionTracker follows the open sessions of a gateway and the tool calls
// running in each. Closing a session cancels its calls: transports that
// detach request handling from the connection (SSE) would otherwise let a
// call outlive its caller.
type sessionTracker struct {
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*trackedSession
	nextCall uint64
}

type trackedSession struct {
	lastSeen time.Time
	calls    map[uint64]context.CancelFunc
}

func newSessionTracker(now func() time.Time) *sessionTracker {
	if now == nil {
		now = time.Now
	}
	return &sessionTracker{now: now, sessions: make(map[string]*trackedSession)}
}

func (st *sessionTracker) open(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; ok {
		return
	}
	st.sessions[id] = &trackedSession{lastSeen: st.now(), calls: make(map[uint64]context.CancelFunc)}
}

// close forgets the session and cancels every call still running in it.
func (st *sessionTracker) close(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return
	}
	for _, cancel := range s.calls {
		cancel()
	}
}

// touch records activity on a session.
func (st *sessionTracker) touch(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		s.lastSeen = st.now()
	}
}

// track derives a call context that is cancelled when session id closes.
// The returned release must be called when the call ends. Calls outside a
// known session get a plain cancellable context.
func (st *sessionTracker) track(ctx context.Context, id string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	st.mu.Lock()
	s, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return ctx, cancel
	}
	key := st.nextCall
	st.nextCall++
	s.calls[key] = cancel
	s.lastSeen = st.now()
	st.mu.Unlock()

	return ctx, func() {
		st.mu.Lock()
		if s, ok := st.sessions[id]; ok {
			delete(s.calls, key)
			s.lastSeen = st.now()
		}
		st.mu.Unlock()
		cancel()
	}
}

// idle returns the sessions with no running call and no activity for ttl.
func (st *sessionTracker) idle(ttl time.Duration) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-ttl)
	var ids []string
	for id, s := range st.sessions {
		if len(s.calls) == 0 && s.lastSeen.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (st *sessionTracker) inFlight(id string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return len(s.calls)
	}
	return 0
}
