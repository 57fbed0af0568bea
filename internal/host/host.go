// Package host defines the narrow contract a model-serving host must
// satisfy to drive internal/cache: a stable key generator and a way to
// turn a model-instance handle into a loader descriptor.
package host

import "github.com/mcules/ortwarmcache/internal/cache"

// Instance is an opaque (model, device) handle owned by the host. The
// cache never inspects it; it is passed back to Host verbatim.
type Instance any

// Host is implemented by whatever is driving the cache (a Triton-style
// backend). cmd/loadgen does not implement it: it builds its keys and
// descriptors inline.
type Host interface {
	// Name returns the stable, process-unique key for instance.
	Name(instance Instance) string

	// BuildDescriptor produces the loader input for instance.
	BuildDescriptor(instance Instance) cache.Descriptor
}
