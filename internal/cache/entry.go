package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

// Entry is one registered model instance's cache slot. It is opaque to
// callers beyond the accessors below; construction happens only through
// Registry.Register.
//
// entry_lock (mu below) guards session and serializes reservations against
// eviction on this entry. The reference design calls for a recursive lock
// so that re-entrant construction (a Loader that calls back into the cache
// on the same instance) cannot self-deadlock. This implementation takes the
// alternative the spec explicitly sanctions: construction never re-enters
// the cache, so mu is a plain, non-recursive sync.Mutex. See DESIGN.md
// (internal/cache ledger entry).
type Entry struct {
	key        string
	descriptor Descriptor

	hotness  atomic.Int64
	pinned   atomic.Bool
	priority atomic.Int64

	mu          sync.Mutex
	session     Session
	lastLoadErr error

	reg *Registry
}

// Name returns the entry's stable registry key.
func (e *Entry) Name() string { return e.key }

// Hotness returns the entry's usage counter. Read without locks: it is a
// relaxed view and may race with a concurrent increment during admission.
func (e *Entry) Hotness() int64 { return e.hotness.Load() }

// Pinned reports whether the entry is currently excluded from eviction.
func (e *Entry) Pinned() bool { return e.pinned.Load() }

// SetPinned marks or unmarks the entry as ineligible for eviction. Pinning
// is an operability supplement sourced from the policy store; it does not
// change the two-phase eviction algorithm, only which peers are candidates.
func (e *Entry) SetPinned(p bool) { e.pinned.Store(p) }

// Priority returns the entry's eviction tie-break value. Higher survives
// longer when hotness ties; the zero value is the default priority.
func (e *Entry) Priority() int64 { return e.priority.Load() }

// SetPriority sets the entry's eviction tie-break value, sourced from the
// policy store.
func (e *Entry) SetPriority(p int64) { e.priority.Store(p) }

// Descriptor returns the entry's immutable construction data.
func (e *Entry) Descriptor() Descriptor { return e.descriptor }

// loaded reports whether session is currently present. Callers must hold
// mu.
func (e *Entry) loaded() bool { return e.session != nil }

// Reserve guarantees e's session is present and exclusive to the caller
// until the returned Handle is released, evicting a colder peer if the
// registry's pool is full. See Registry.Reserve for the full algorithm.
func (e *Entry) Reserve(ctx context.Context) *Handle {
	return e.reg.Reserve(ctx, e)
}
