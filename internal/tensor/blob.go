package tensor

import (
	"fmt"

	"github.com/samcharles93/loom/internal/device"
)

// Blob is the built-in Handle used by in-process backends and tooling.
// Embedders that link a real tensor library supply their own Factory and
// never see this type.
type Blob struct {
	meta Meta
	data device.Ptr
}

func (b *Blob) Meta() Meta { return b.meta }

// HostBytes returns the host-resident storage, or nil when the tensor lives
// in device memory (or has no storage at all).
func (b *Blob) HostBytes() []byte { return b.data.Host }

// BlobFactory creates Blob handles over raw storage.
type BlobFactory struct{}

func (BlobFactory) FromBlob(data device.Ptr, meta Meta) (Handle, error) {
	if len(meta.Stride) != 0 && len(meta.Stride) != len(meta.Shape) {
		return nil, fmt.Errorf("stride rank %d does not match shape rank %d", len(meta.Stride), len(meta.Shape))
	}
	for i, d := range meta.Shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d at axis %d", d, i)
		}
	}
	if meta.Numel() > 0 && data.IsNil() {
		return nil, fmt.Errorf("no storage for %d elements", meta.Numel())
	}
	return &Blob{meta: meta, data: data}, nil
}
