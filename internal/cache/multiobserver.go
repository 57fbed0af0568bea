package cache

import "time"

// MultiObserver fans out registry events to every observer in Observers,
// in order. A nil entry is skipped.
type MultiObserver struct {
	Observers []Observer
}

func (m MultiObserver) Registered(key string) {
	for _, o := range m.Observers {
		if o != nil {
			o.Registered(key)
		}
	}
}

func (m MultiObserver) Unregistered(key string) {
	for _, o := range m.Observers {
		if o != nil {
			o.Unregistered(key)
		}
	}
}

func (m MultiObserver) Loaded(key string, dur time.Duration) {
	for _, o := range m.Observers {
		if o != nil {
			o.Loaded(key, dur)
		}
	}
}

func (m MultiObserver) LoadFailed(key string, err error) {
	for _, o := range m.Observers {
		if o != nil {
			o.LoadFailed(key, err)
		}
	}
}

func (m MultiObserver) Evicted(victim, forKey string) {
	for _, o := range m.Observers {
		if o != nil {
			o.Evicted(victim, forKey)
		}
	}
}

func (m MultiObserver) EvictionExhausted(forKey string) {
	for _, o := range m.Observers {
		if o != nil {
			o.EvictionExhausted(forKey)
		}
	}
}
