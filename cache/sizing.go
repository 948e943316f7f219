package cache

const (
	// FillFactor is the share of a memory budget given to entries; the rest
	// is left for map growth and allocator slack.
	FillFactor = 0.92

	// EntryOverhead estimates the bookkeeping bytes of one entry: its map
	// slot, list element and boxed entry header.
	EntryOverhead = 88

	MiB = 1 << 20
)

// CapacityFor returns how many entries with the given key and value sizes
// fit in sizeMB megabytes. It is never less than 1.
func CapacityFor(sizeMB int, keySize, valueSize uintptr) int {
	perEntry := float64(keySize + valueSize + EntryOverhead)
	n := int(FillFactor * float64(sizeMB) * MiB / perEntry)
	return max(1, n)
}
