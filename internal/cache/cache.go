// Package cache implements the warm-cache admission/eviction engine that
// sits between a model-serving host and a heavyweight inference session.
//
// A Registry holds a bounded number of loaded sessions. Callers obtain a
// Handle through Entry.Reserve, which guarantees the entry's session is
// present and exclusive to the holder for as long as the handle is held. If
// the pool is full, Reserve evicts the coldest peer it can lock without
// risking deadlock against in-flight reservations; see the doc comment on
// Registry.Reserve for the exact two-phase algorithm.
package cache

import (
	"context"
	"errors"
)

// Session is the heavyweight resource a Loader produces. The cache never
// inspects it; it is opaque and exclusively owned by whichever goroutine
// currently holds the entry's reservation.
type Session any

// Descriptor is immutable data sufficient for a Loader to build a Session.
// Exactly one of Path or Blob should be populated; InMemory records which.
type Descriptor struct {
	// Key is the stable, process-unique name under which this descriptor
	// was registered. Duplicated here (rather than only in the registry's
	// map) so log lines and error messages never need the registry lock.
	Key string

	// Path is a filesystem path to the model, used when InMemory is false.
	Path string

	// Blob is an in-memory model image, used when InMemory is true.
	Blob []byte

	// InMemory selects between Path and Blob.
	InMemory bool

	// Options is an opaque, pre-serialized session-options blob passed to
	// the Loader verbatim. The cache never interprets it.
	Options []byte
}

func (d Descriptor) validate() error {
	if d.Key == "" {
		return errors.New("cache: descriptor key must not be empty")
	}
	if d.InMemory && len(d.Blob) == 0 {
		return ErrLoaderConfigInvalid
	}
	if !d.InMemory && d.Path == "" {
		return ErrLoaderConfigInvalid
	}
	return nil
}

// Loader is the external collaborator that actually builds and tears down
// sessions. Implementations must be safe to call concurrently for distinct
// sessions; the registry never calls Load/Unload for the same session
// concurrently with itself.
type Loader interface {
	// Load constructs a new session from d. May be slow and memory-heavy.
	Load(ctx context.Context, d Descriptor) (Session, error)

	// Unload releases all resources held by s. Must tolerate other Load
	// or Unload calls for distinct sessions running concurrently.
	Unload(ctx context.Context, s Session) error
}

// Errors returned by Register and surfaced through a degraded Handle.
var (
	// ErrDuplicateKey is returned by Register when the key already exists.
	ErrDuplicateKey = errors.New("cache: duplicate key")

	// ErrLoaderConfigInvalid is returned by Register when the descriptor
	// is not sufficient for a Loader to build a session from.
	ErrLoaderConfigInvalid = errors.New("cache: invalid loader configuration")

	// ErrUnknownEntry names the case of a key that was never registered or
	// has already been unregistered. Registry.Lookup does not return it; it
	// reports that case with ok == false.
	ErrUnknownEntry = errors.New("cache: unknown entry")
)

// LoaderError wraps an error returned by Loader.Load, attached to a
// degraded Handle. The entry remains unloaded and loaded_count is not
// incremented; a later Reserve retries the load.
type LoaderError struct {
	Key string
	Err error
}

func (e *LoaderError) Error() string {
	return "cache: load " + e.Key + ": " + e.Err.Error()
}

func (e *LoaderError) Unwrap() error { return e.Err }
