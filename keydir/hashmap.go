package keydir

import "sort"

var _ Keydir = (*HashMap)(nil)

// HashMap implement the keydir with a plain map, no ordering kept beyond
// key uniqueness
type HashMap struct {
	entries map[string]uint64
}

func NewHashMap() *HashMap {
	return &HashMap{entries: make(map[string]uint64)}
}

// Load replaces the current mapping with a persisted one.
func (hm *HashMap) Load(entries map[string]uint64) {
	hm.entries = make(map[string]uint64, len(entries))
	for k, v := range entries {
		hm.entries[k] = v
	}
}

func (hm *HashMap) Put(key string, offset uint64) {
	hm.entries[key] = offset
}

func (hm *HashMap) Get(key string) (uint64, bool) {
	offset, ok := hm.entries[key]
	return offset, ok
}

func (hm *HashMap) Delete(key string) (uint64, bool) {
	offset, ok := hm.entries[key]
	if ok {
		delete(hm.entries, key)
	}
	return offset, ok
}

func (hm *HashMap) Len() int {
	return len(hm.entries)
}

func (hm *HashMap) Keys() []string {
	keys := make([]string, 0, len(hm.entries))
	for k := range hm.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (hm *HashMap) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, len(hm.entries))
	for k, v := range hm.entries {
		out[k] = v
	}
	return out
}
