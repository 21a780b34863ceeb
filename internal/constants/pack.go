package constants

// BlobAlign is the alignment of each constant inside a device-resident
// constant blob.
const BlobAlign = 64

// Pack computes the offset of every constant inside the device blob and the
// total allocation size. Offsets are assigned in registry order; each
// constant's size is padded up to the next BlobAlign boundary. Host-resident
// layouts never go through Pack, their bytes are used exactly as packed in
// the weights segment.
func Pack(r *Registry) (offsets []uint64, total uint64) {
	offsets = make([]uint64, r.Len())
	for i := range offsets {
		offsets[i] = total
		total += alignUp(r.entries[i].DataSize, BlobAlign)
	}
	return offsets, total
}

func alignUp(n, align uint64) uint64 {
	if rem := n % align; rem != 0 {
		return n + align - rem
	}
	return n
}
