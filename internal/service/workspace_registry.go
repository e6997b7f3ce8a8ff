package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type workspaceKey struct {
	sessionID string
	reviewID  string
}

type workspace struct {
	store     *ReviewStateStore
	openedAt  time.Time
	touchedAt time.Time
}

// WorkspaceRegistry keeps the open review stores of every session in memory.
// A store belongs to exactly one (session, review) pair and is never shared.
type WorkspaceRegistry struct {
	mu    sync.Mutex
	items map[workspaceKey]*workspace
	now   func() time.Time
}

// NewWorkspaceRegistry constructs an empty registry.
func NewWorkspaceRegistry() *WorkspaceRegistry {
	return &WorkspaceRegistry{
		items: make(map[workspaceKey]*workspace),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Put registers store for the session, replacing any previous store of the same review.
func (r *WorkspaceRegistry) Put(sessionID string, store *ReviewStateStore) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[workspaceKey{sessionID, store.ReviewID()}] = &workspace{store: store, openedAt: now, touchedAt: now}
}

// Get returns the open store and refreshes its idle timer.
func (r *WorkspaceRegistry) Get(sessionID, reviewID string) (*ReviewStateStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[workspaceKey{sessionID, reviewID}]
	if !ok {
		return nil, false
	}
	ws.touchedAt = r.now()
	return ws.store, true
}

// Discard drops the store of one review. It reports whether one was open.
func (r *WorkspaceRegistry) Discard(sessionID, reviewID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := workspaceKey{sessionID, reviewID}
	_, ok := r.items[key]
	delete(r.items, key)
	return ok
}

// DiscardSession drops every store opened by the session.
func (r *WorkspaceRegistry) DiscardSession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key := range r.items {
		if key.sessionID == sessionID {
			delete(r.items, key)
			removed++
		}
	}
	return removed
}

// CountSession returns the number of workspaces the session has open.
func (r *WorkspaceRegistry) CountSession(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.items {
		if key.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Len returns the number of open workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep drops workspaces untouched for longer than idle.
func (r *WorkspaceRegistry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, ws := range r.items {
		if ws.touchedAt.Before(cutoff) {
			delete(r.items, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *WorkspaceRegistry) RunSweeper(ctx context.Context, interval, idle time.Duration, logger *zap.Logger) {
	if interval <= 0 || idle <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				logger.Info("evicted idle review workspaces", zap.Int("count", n))
			}
		}
	}
}
