package rt

import (
	"fmt"

	"github.com/samcharles93/loom/internal/constants"
	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/tensor"
)

// LoadConstants materializes every registry constant into the shared map
// and rebuilds the handle array. Device-targeted models allocate one packed
// blob even when weights are skipped, so that a later UpdateConstantsMap
// has storage to point at. Any failure aborts the load and leaves the
// instance in the unloaded state.
func (m *Model) LoadConstants() error {
	n := m.registry.Len()

	var offsets []uint64
	if m.desc.Kind != device.CPU {
		packed, total := constants.Pack(m.registry)
		buf, err := m.backend.Alloc(total)
		if err != nil {
			return fmt.Errorf("rt: allocate %d-byte constant blob: %w", total, err)
		}
		m.blob = buf
		offsets = packed
	}

	if m.skipWeights {
		m.log.Debug("constant data skipped, weights arrive via map update", "constants", n)
		m.loaded = true
		return nil
	}

	if m.source == nil {
		return ErrNoWeightsSource
	}
	src := m.source.Bytes()

	// bytesRead tracks the cursor into the packed weights segment. It
	// advances by DataSize for every constant, including ones whose tensor
	// is not materialized, so later constants stay addressable.
	var bytesRead uint64
	for i := 0; i < n; i++ {
		d, err := m.registry.At(i)
		if err != nil {
			return err
		}

		// The end offset is validated even for constants that are never
		// materialized, since the cursor advances past their bytes. The
		// wrap check guards against manifest sizes near the uint64 limit.
		end := bytesRead + d.DataSize
		if end < bytesRead || end > uint64(len(src)) {
			return fmt.Errorf("rt: weights segment exhausted at constant %q (need %d bytes at offset %d, have %d)",
				d.Name, d.DataSize, bytesRead, len(src))
		}

		// Folded constants on a synchronous host are produced by the fold
		// pass at run time, never read from the segment.
		skip := d.FromFolded && m.desc.Kind == device.CPU
		if !skip {
			var ptr device.Ptr
			if d.DataSize > 0 {
				ptr, err = m.constantPtr(src, offsets, i, bytesRead, d)
				if err != nil {
					return err
				}
			}

			h, err := m.tensors.FromBlob(ptr, tensor.Meta{
				Shape:          d.Shape,
				Stride:         d.Stride,
				StorageOffset:  d.Offset,
				DType:          d.DType,
				Device:         m.desc,
				Layout:         d.Layout,
				OpaqueMetadata: d.OpaqueMetadata,
			})
			if err != nil {
				return fmt.Errorf("rt: create tensor for constant %q: %w", d.Name, err)
			}
			m.cmap.Insert(d.Name, h)
		}
		bytesRead = end
	}

	if err := m.UpdateConstantsArrayFromMap(); err != nil {
		return err
	}
	m.loaded = true
	m.log.Debug("constants loaded", "constants", n, "bytes", bytesRead)
	return nil
}

// constantPtr resolves the storage address for one constant. On a device
// target it points into the packed blob and stages the bytes there unless
// the constant is folded (the fold pass fills the slot later); on the host
// it aliases the weights segment directly, so skip-copy has no meaning.
func (m *Model) constantPtr(src []byte, offsets []uint64, i int, bytesRead uint64, d *constants.Descriptor) (device.Ptr, error) {
	if m.desc.Kind != device.CPU {
		ptr, err := m.blob.Ptr(offsets[i])
		if err != nil {
			return device.Ptr{}, fmt.Errorf("rt: constant %q: %w", d.Name, err)
		}
		if !d.FromFolded {
			if err := m.backend.CopyToDevice(ptr, src[bytesRead:bytesRead+d.DataSize]); err != nil {
				return device.Ptr{}, fmt.Errorf("rt: stage constant %q: %w", d.Name, err)
			}
		}
		return ptr, nil
	}
	if d.FromFolded {
		return device.Ptr{}, fmt.Errorf("%w: constant %q", ErrSkipCopyOnHost, d.Name)
	}
	return device.Ptr{Host: src[bytesRead : bytesRead+d.DataSize : bytesRead+d.DataSize]}, nil
}
