package freespace

import (
	"encoding/binary"
	"errors"

	"github.com/google/btree"
)

var (
	// ErrOverlap reports an interval colliding with one already tracked.
	// The store treats it as corruption.
	ErrOverlap = errors.New("freespace: interval overlaps a tracked interval")

	// ErrBadPayload reports a persisted table whose payload is not a
	// whole number of {start, length} pairs.
	ErrBadPayload = errors.New("freespace: malformed table payload")
)

const pairSize = 16

const defaultDegree = 32

// Interval is a reclaimed span of length contiguous bytes starting at
// Start, including the 4-byte record prefix region.
type Interval struct {
	Start  uint64
	Length uint64
}

// item implement the btree.Item interface, ordered by start offset
type item struct {
	start  uint64
	length uint64
}

func (i *item) Less(than btree.Item) bool {
	return i.start < than.(*item).start
}

// Table is an ordered set of non-overlapping, non-adjacent free intervals.
// Adjacent intervals are merged as they are added, so after any completed
// mutation no two entries touch.
type Table struct {
	tree *btree.BTree
}

func NewTable() *Table {
	return &Table{tree: btree.New(defaultDegree)}
}

// Add inserts a reclaimed interval, merging it with a neighbor that ends
// exactly at start (left) and/or one that begins exactly at start+length
// (right). Overlapping or duplicate spans are rejected with ErrOverlap.
func (t *Table) Add(start, length uint64) error {
	if length == 0 {
		return nil
	}
	end := start + length

	var left *item
	t.tree.DescendLessOrEqual(&item{start: start}, func(it btree.Item) bool {
		left = it.(*item)
		return false
	})
	if left != nil {
		if left.start == start || left.start+left.length > start {
			return ErrOverlap
		}
		if left.start+left.length != start {
			left = nil
		}
	}

	var right *item
	t.tree.AscendGreaterOrEqual(&item{start: start + 1}, func(it btree.Item) bool {
		right = it.(*item)
		return false
	})
	if right != nil {
		if right.start < end {
			return ErrOverlap
		}
		if right.start != end {
			right = nil
		}
	}

	switch {
	case left != nil && right != nil:
		// new span bridges both neighbors into a single interval
		t.tree.Delete(right)
		left.length += length + right.length
	case left != nil:
		left.length += length
	case right != nil:
		t.tree.Delete(right)
		t.tree.ReplaceOrInsert(&item{start: start, length: length + right.length})
	default:
		t.tree.ReplaceOrInsert(&item{start: start, length: length})
	}
	return nil
}

// TakeFirstFit returns the start of the first interval, in ascending
// offset order, whose length is at least need, shrinking or removing it.
// The second result is false when no interval qualifies and the caller
// must append at end-of-file instead.
func (t *Table) TakeFirstFit(need uint64) (uint64, bool) {
	if need == 0 {
		return 0, false
	}
	var found *item
	t.tree.Ascend(func(it btree.Item) bool {
		iv := it.(*item)
		if iv.length >= need {
			found = iv
			return false
		}
		return true
	})
	if found == nil {
		return 0, false
	}

	offset := found.start
	t.tree.Delete(found)
	if found.length > need {
		// start is the sort key, so the shrunk remainder is reinserted
		t.tree.ReplaceOrInsert(&item{start: found.start + need, length: found.length - need})
	}
	return offset, true
}

func (t *Table) Len() int {
	return t.tree.Len()
}

// Intervals returns a snapshot of all intervals in ascending start order.
func (t *Table) Intervals() []Interval {
	out := make([]Interval, 0, t.tree.Len())
	t.tree.Ascend(func(it btree.Item) bool {
		iv := it.(*item)
		out = append(out, Interval{Start: iv.start, Length: iv.length})
		return true
	})
	return out
}

// MarshalBinary encodes the table as big-endian {u64 start, u64 length}
// pairs in ascending start order, with no count prefix.
func (t *Table) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, t.tree.Len()*pairSize)
	var pair [pairSize]byte
	t.tree.Ascend(func(it btree.Item) bool {
		iv := it.(*item)
		binary.BigEndian.PutUint64(pair[:8], iv.start)
		binary.BigEndian.PutUint64(pair[8:], iv.length)
		data = append(data, pair[:]...)
		return true
	})
	return data, nil
}

// UnmarshalBinary rebuilds the table from a persisted payload, replacing
// any current contents. Intervals go through Add so the non-adjacency
// invariant is re-checked on load.
func (t *Table) UnmarshalBinary(data []byte) error {
	if len(data)%pairSize != 0 {
		return ErrBadPayload
	}
	t.tree.Clear(false)
	for i := 0; i < len(data); i += pairSize {
		start := binary.BigEndian.Uint64(data[i : i+8])
		length := binary.BigEndian.Uint64(data[i+8 : i+pairSize])
		if err := t.Add(start, length); err != nil {
			return err
		}
	}
	return nil
}
