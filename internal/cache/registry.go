package cache

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Observer receives best-effort notifications of registry activity. All
// methods must be fast and non-blocking; all but Registered are called
// while the registry (and sometimes an entry) lock is held. A nil Observer is valid;
// Registry no-ops in that case.
type Observer interface {
	Registered(key string)
	Unregistered(key string)
	Loaded(key string, dur time.Duration)
	LoadFailed(key string, err error)
	Evicted(victim, forKey string)
	EvictionExhausted(forKey string)
}

// Config controls admission behavior.
type Config struct {
	// MaxLoaded is the maximum number of concurrently loaded sessions.
	// Must be positive; reference value 4.
	MaxLoaded int

	// SkipWarmCache disables the cache entirely: every entry eagerly
	// loads at registration and never evicts; Reserve becomes a no-op
	// pass-through. Included for A/B comparison and emergency fallback.
	SkipWarmCache bool
}

// Registry is the process-wide bounded pool of loaded sessions. The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	cfg    Config
	loader Loader
	obs    Observer

	mu          sync.Mutex // global_lock
	entries     map[string]*Entry
	loadedCount int
}

// NewRegistry constructs an empty registry backed by loader. obs may be
// nil.
func NewRegistry(loader Loader, cfg Config, obs Observer) *Registry {
	if cfg.MaxLoaded <= 0 {
		cfg.MaxLoaded = 4
	}
	if obs == nil {
		obs = noopObserver{}
	}
	return &Registry{
		cfg:     cfg,
		loader:  loader,
		obs:     obs,
		entries: make(map[string]*Entry),
	}
}

// Register creates a new unloaded entry for key. Fails with ErrDuplicateKey
// if key is already present, or ErrLoaderConfigInvalid if d cannot possibly
// produce a session.
//
// When the registry runs with SkipWarmCache, the entry is loaded eagerly,
// synchronously, before Register returns.
func (r *Registry) Register(ctx context.Context, key string, d Descriptor) (*Entry, error) {
	d.Key = key
	if err := d.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.entries[key]; exists {
		r.mu.Unlock()
		return nil, ErrDuplicateKey
	}
	e := &Entry{key: key, descriptor: d, reg: r}
	r.entries[key] = e
	r.mu.Unlock()

	r.obs.Registered(key)

	if r.cfg.SkipWarmCache {
		r.mu.Lock()
		e.mu.Lock()
		r.loadLocked(ctx, e)
		e.mu.Unlock()
		r.mu.Unlock()
	}

	return e, nil
}

// Unregister removes e from the registry and destroys it, unloading its
// session if one is present. Blocks for any in-flight reservation on e.
func (r *Registry) Unregister(ctx context.Context, e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, e.key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded() {
		// Normal teardown: free the session and keep loaded_count
		// consistent with the number of loaded entries.
		if err := r.loader.Unload(ctx, e.session); err != nil {
			log.Printf("cache: unload during unregister key=%s: %v", e.key, err)
		}
		e.session = nil
		r.loadedCount--
	}

	r.obs.Unregistered(e.key)
}

// Lookup returns the entry registered under key, if any.
func (r *Registry) Lookup(key string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}

// LoadedCount returns the number of entries currently holding a session,
// observed under global_lock.
func (r *Registry) LoadedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadedCount
}

// MaxLoaded returns the configured capacity, for dashboard/gauge reporting.
func (r *Registry) MaxLoaded() int {
	return r.cfg.MaxLoaded
}

// EntryCount returns the number of currently registered entries, loaded or
// not, observed under global_lock.
func (r *Registry) EntryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// HotEntry pairs an entry with its hotness and priority at snapshot time.
type HotEntry struct {
	Hotness  int64
	Priority int64
	Entry    *Entry
}

// SnapshotHotness returns the relaxed hotness of every registered entry.
// Order is undefined. Safe to call from any goroutine; internally takes
// global_lock for the duration of the snapshot.
func (r *Registry) SnapshotHotness() []HotEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotHotnessLocked()
}

// snapshotHotnessLocked requires global_lock to already be held.
func (r *Registry) snapshotHotnessLocked() []HotEntry {
	out := make([]HotEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, HotEntry{Hotness: e.Hotness(), Priority: e.Priority(), Entry: e})
	}
	return out
}

// EntryView is a read-only projection of an entry for admin/dashboard use.
type EntryView struct {
	Key     string
	Hotness int64
	Loaded  bool
	Pinned  bool
	Path    string
}

// SnapshotEntries returns a point-in-time view of every registered entry.
func (r *Registry) SnapshotEntries() []EntryView {
	r.mu.Lock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, EntryView{
			Key:     e.key,
			Hotness: e.Hotness(),
			Loaded:  e.loaded(),
			Pinned:  e.Pinned(),
			Path:    e.descriptor.Path,
		})
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Reserve is the heart of the engine. It guarantees e.session is present
// and exclusive to the caller until the returned Handle is released,
// evicting the coldest unpinned peer it can lock if the pool is full.
//
// Order of operations (spec.md §4.D):
//  1. Acquire global_lock, then entry_lock.
//  2. Fast path: session already present — release global_lock, bump
//     hotness, return.
//  3. Admission path: session absent. If loaded_count < MaxLoaded, fall
//     through to load. Otherwise run the two-phase eviction loop.
//  4. Call Loader.Load. On success, install the session, bump loaded_count
//     and hotness. On failure, return a degraded handle: entry_lock held,
//     session nil, error attached. loaded_count is not incremented.
//  5. Release global_lock; return the handle.
func (r *Registry) Reserve(ctx context.Context, e *Entry) *Handle {
	if r.cfg.SkipWarmCache {
		r.mu.Lock()
		e.mu.Lock()
		if !e.loaded() {
			r.loadLocked(ctx, e)
		}
		r.mu.Unlock()
		if e.session == nil {
			return &Handle{entry: e, err: &LoaderError{Key: e.key, Err: e.lastLoadErr}}
		}
		return &Handle{entry: e, session: e.session}
	}

	r.mu.Lock()
	e.mu.Lock()

	if e.loaded() {
		r.mu.Unlock()
		e.hotness.Add(1)
		return &Handle{entry: e, session: e.session}
	}

	if r.loadedCount >= r.cfg.MaxLoaded {
		r.evictForLocked(ctx, e)
	}

	r.loadLocked(ctx, e)
	r.mu.Unlock()

	if e.session == nil {
		return &Handle{entry: e, err: &LoaderError{Key: e.key, Err: e.lastLoadErr}}
	}
	return &Handle{entry: e, session: e.session}
}

// loadLocked calls the loader for e and installs the result. Requires
// global_lock and e.mu to already be held by the caller.
func (r *Registry) loadLocked(ctx context.Context, e *Entry) {
	start := time.Now()
	sess, err := r.loader.Load(ctx, e.descriptor)
	dur := time.Since(start)
	if err != nil {
		e.lastLoadErr = err
		e.session = nil
		r.obs.LoadFailed(e.key, err)
		log.Printf("cache: load failed key=%s: %v", e.key, err)
		return
	}
	e.lastLoadErr = nil
	e.session = sess
	r.loadedCount++
	e.hotness.Add(1)
	r.obs.Loaded(e.key, dur)
}

// evictForLocked runs the two-phase eviction loop on behalf of e. Requires
// global_lock and e.mu (for e itself) to already be held by the caller.
func (r *Registry) evictForLocked(ctx context.Context, e *Entry) {
	victims := r.snapshotHotnessLocked()
	// Ascending by hotness (coldest first); priority breaks hotness ties,
	// lower priority evicted first.
	sort.Slice(victims, func(i, j int) bool {
		if victims[i].Hotness != victims[j].Hotness {
			return victims[i].Hotness < victims[j].Hotness
		}
		return victims[i].Priority < victims[j].Priority
	})

	if r.tryEvictPass(ctx, e, victims, true) {
		return
	}
	if r.tryEvictPass(ctx, e, victims, false) {
		return
	}

	r.obs.EvictionExhausted(e.key)
	log.Printf("cache: eviction exhausted for key=%s, loaded_count=%d will exceed MaxLoaded=%d", e.key, r.loadedCount, r.cfg.MaxLoaded)
}

// tryEvictPass iterates victims once, either try-locking (blocking=false)
// or blocking on each candidate's entry_lock, and evicts the first loaded,
// unpinned peer it can lock. Returns true if it evicted something.
func (r *Registry) tryEvictPass(ctx context.Context, self *Entry, victims []HotEntry, nonBlocking bool) bool {
	for _, v := range victims {
		victim := v.Entry
		if victim == self || victim.Pinned() {
			continue
		}

		if nonBlocking {
			if !victim.mu.TryLock() {
				continue
			}
		} else {
			victim.mu.Lock()
		}

		if victim.loaded() {
			if err := r.loader.Unload(ctx, victim.session); err != nil {
				log.Printf("cache: unload failed during eviction victim=%s: %v", victim.key, err)
			}
			victim.session = nil
			r.loadedCount--
			victim.mu.Unlock()
			r.obs.Evicted(victim.key, self.key)
			return true
		}
		victim.mu.Unlock()
	}
	return false
}

type noopObserver struct{}

func (noopObserver) Registered(string)            {}
func (noopObserver) Unregistered(string)          {}
func (noopObserver) Loaded(string, time.Duration) {}
func (noopObserver) LoadFailed(string, error)     {}
func (noopObserver) Evicted(string, string)       {}
func (noopObserver) EvictionExhausted(string)     {}
