// Package session holds the per-login permission cache. An entry is written
// exactly once at login, read on every gated action, and removed at logout or
// expiry. Permission membership is never re-resolved from storage while an
// entry lives; changes to roles or overrides apply at the next login.
package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry is the cached authentication context for one logged-in actor.
// Entries are immutable after construction; replacing a session means
// writing a brand-new Entry.
type Entry struct {
	UserID      int64
	RoleID      int64
	DisplayName string
	CreatedAt   time.Time

	perms map[string]struct{}
	names []string
}

// NewEntry builds an immutable Entry from the resolved permission names.
// Duplicates are collapsed.
func NewEntry(userID, roleID int64, displayName string, permissions []string) Entry {
	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}
	names := make([]string, 0, len(perms))
	for p := range perms {
		names = append(names, p)
	}
	sort.Strings(names)
	return Entry{
		UserID:      userID,
		RoleID:      roleID,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
		perms:       perms,
		names:       names,
	}
}

// Has reports whether the entry's permission set contains name.
func (e Entry) Has(name string) bool {
	_, ok := e.perms[name]
	return ok
}

// Permissions returns a sorted copy of the cached permission names.
func (e Entry) Permissions() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Store abstracts where session entries live so a single-process deployment
// can use the in-memory map and a multi-instance one can point at Redis.
type Store interface {
	// Put stores the entry, replacing any prior entry for the session id.
	Put(ctx context.Context, sessionID string, entry Entry) error
	// Get returns the entry for the session id, or ok=false when absent.
	Get(ctx context.Context, sessionID string) (Entry, bool, error)
	// Invalidate removes the entry. Removing an absent entry is a no-op.
	Invalidate(ctx context.Context, sessionID string) error
}

// MemoryStore keeps entries in a mutex-guarded map. Entries themselves are
// immutable, so concurrent readers never observe a partially written set.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Put stores or replaces the entry for sessionID.
func (s *MemoryStore) Put(_ context.Context, sessionID string, entry Entry) error {
	s.mu.Lock()
	s.entries[sessionID] = entry
	s.mu.Unlock()
	return nil
}

// Get returns the entry for sessionID if present.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (Entry, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	return entry, ok, nil
}

// Invalidate removes the entry for sessionID.
func (s *MemoryStore) Invalidate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

// EvictBefore removes entries created before cutoff and returns how many
// were dropped. Expiry policy belongs to the caller; this is the eviction
// hook it drives.
func (s *MemoryStore) EvictBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.entries {
		if entry.CreatedAt.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// Sweep evicts entries older than ttl every interval until ctx is cancelled.
// The memory store needs this driven explicitly; the Redis store leans on
// native key expiry instead.
func (s *MemoryStore) Sweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.EvictBefore(now.Add(-ttl))
		}
	}
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
