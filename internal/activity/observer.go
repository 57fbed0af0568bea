package activity

import "time"

// ObserverAdapter implements cache.Observer by recording every registry
// event into a Log. It holds no other state and is safe to share across a
// single Registry.
type ObserverAdapter struct {
	Log *Log
}

// NewObserverAdapter returns an adapter that appends into log.
func NewObserverAdapter(log *Log) *ObserverAdapter {
	return &ObserverAdapter{Log: log}
}

func (o *ObserverAdapter) Registered(key string) {
	o.Log.Add(Event{At: time.Now(), Type: EventRegistered, Key: key})
}

func (o *ObserverAdapter) Unregistered(key string) {
	o.Log.Add(Event{At: time.Now(), Type: EventUnregistered, Key: key})
}

func (o *ObserverAdapter) Loaded(key string, dur time.Duration) {
	o.Log.Add(Event{At: time.Now(), Type: EventLoaded, Key: key, Note: dur.String()})
}

func (o *ObserverAdapter) LoadFailed(key string, err error) {
	o.Log.Add(Event{At: time.Now(), Type: EventLoadFailed, Key: key, Note: err.Error()})
}

func (o *ObserverAdapter) Evicted(victim, forKey string) {
	o.Log.Add(Event{At: time.Now(), Type: EventEvicted, Key: victim, Note: "for " + forKey})
}

func (o *ObserverAdapter) EvictionExhausted(forKey string) {
	o.Log.Add(Event{At: time.Now(), Type: EventEvictionExhausted, Key: forKey})
}
