package host

import (
	"testing"

	"github.com/mcules/ortwarmcache/internal/cache"
)

type modelDevice struct {
	model  string
	device int
}

type fakeHost struct{}

func (fakeHost) Name(instance Instance) string {
	md := instance.(modelDevice)
	return md.model
}

func (fakeHost) BuildDescriptor(instance Instance) cache.Descriptor {
	md := instance.(modelDevice)
	return cache.Descriptor{Key: md.model, Path: md.model}
}

var _ Host = fakeHost{}

func TestHost_NameAndDescriptorAgreeOnInstance(t *testing.T) {
	h := fakeHost{}
	inst := modelDevice{model: "resnet50", device: 0}

	if got := h.Name(inst); got != "resnet50" {
		t.Fatalf("Name() = %q, want resnet50", got)
	}

	d := h.BuildDescriptor(inst)
	if d.Key != "resnet50" {
		t.Fatalf("BuildDescriptor().Key = %q, want resnet50", d.Key)
	}
}
