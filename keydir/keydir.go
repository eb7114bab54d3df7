package keydir

// Keydir maps a key to the file offset of its current record.
// You can use some other data structure once you implement this interface.
type Keydir interface {
	// Put records the offset for key, overwriting any prior entry.
	Put(key string, offset uint64)

	// Get returns the offset for key, false when absent.
	Get(key string) (uint64, bool)

	// Delete removes the entry and returns its prior offset, false when absent.
	Delete(key string) (uint64, bool)

	Len() int

	// Keys returns all keys in ascending order.
	Keys() []string

	// Snapshot copies the whole mapping, for persistence.
	Snapshot() map[string]uint64
}
