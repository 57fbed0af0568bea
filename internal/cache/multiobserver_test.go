package cache

import (
	"errors"
	"testing"
	"time"
)

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) Registered(key string)            { r.calls = append(r.calls, "registered:"+key) }
func (r *recordingObserver) Unregistered(key string)          { r.calls = append(r.calls, "unregistered:"+key) }
func (r *recordingObserver) Loaded(key string, d time.Duration) {
	r.calls = append(r.calls, "loaded:"+key)
}
func (r *recordingObserver) LoadFailed(key string, err error) {
	r.calls = append(r.calls, "load_failed:"+key)
}
func (r *recordingObserver) Evicted(victim, forKey string) {
	r.calls = append(r.calls, "evicted:"+victim+"->"+forKey)
}
func (r *recordingObserver) EvictionExhausted(forKey string) {
	r.calls = append(r.calls, "exhausted:"+forKey)
}

func TestMultiObserver_FansOutToEveryObserver(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	m := MultiObserver{Observers: []Observer{a, b}}

	m.Registered("k")
	m.Loaded("k", time.Millisecond)
	m.LoadFailed("k", errors.New("boom"))
	m.Evicted("k", "other")
	m.EvictionExhausted("other")
	m.Unregistered("k")

	if len(a.calls) != 6 || len(b.calls) != 6 {
		t.Fatalf("expected 6 calls on each observer, got a=%v b=%v", a.calls, b.calls)
	}
	for i := range a.calls {
		if a.calls[i] != b.calls[i] {
			t.Fatalf("observers diverged at %d: %q vs %q", i, a.calls[i], b.calls[i])
		}
	}
}

func TestMultiObserver_SkipsNilObservers(t *testing.T) {
	a := &recordingObserver{}
	m := MultiObserver{Observers: []Observer{nil, a, nil}}

	m.Registered("k")
	m.Evicted("k", "other")

	if len(a.calls) != 2 {
		t.Fatalf("expected 2 calls, got %v", a.calls)
	}
}

func TestMultiObserver_EmptyIsSafe(t *testing.T) {
	m := MultiObserver{}
	m.Registered("k")
	m.Loaded("k", time.Millisecond)
	m.LoadFailed("k", errors.New("boom"))
	m.Evicted("k", "other")
	m.EvictionExhausted("other")
	m.Unregistered("k")
}
