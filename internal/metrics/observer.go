package metrics

import "time"

// ObserverAdapter implements cache.Observer by feeding registry events into
// a LoadTimeTracker. Defined without importing internal/cache to avoid a
// dependency cycle; the cache package accepts any value satisfying its
// Observer interface structurally.
type ObserverAdapter struct {
	Tracker *LoadTimeTracker
}

// NewObserverAdapter returns an adapter that records into tracker.
func NewObserverAdapter(tracker *LoadTimeTracker) *ObserverAdapter {
	return &ObserverAdapter{Tracker: tracker}
}

func (o *ObserverAdapter) Registered(key string)   {}
func (o *ObserverAdapter) Unregistered(key string) { o.Tracker.Delete(key) }

func (o *ObserverAdapter) Loaded(key string, dur time.Duration) {
	o.Tracker.ObserveLoad(key, dur)
}

func (o *ObserverAdapter) LoadFailed(key string, err error) {
	o.Tracker.ObserveLoadFailed(key)
}

func (o *ObserverAdapter) Evicted(victim, forKey string) {
	o.Tracker.ObserveEvicted(victim)
}

func (o *ObserverAdapter) EvictionExhausted(forKey string) {}
