package bdd

import (
	"errors"
	"fmt"

	"github.com/pandi-pandou/ProjetBDD/freespace"
)

// allocator decides where records live in the file. It reserves offsets
// by first-fit over the free-space table, falling back to end-of-file,
// and returns vacated spans to the table on release. It never writes
// record bytes itself.
type allocator struct {
	file *recordFile
	free *freespace.Table
}

// allocate reserves a span for a record of the given payload length and
// returns its offset. reused is true when the span comes from the
// free-space table rather than the end of the file.
func (a *allocator) allocate(payloadLength uint64) (offset uint64, reused bool, err error) {
	need := payloadLength + prefixSize
	if offset, ok := a.free.TakeFirstFit(need); ok {
		return offset, true, nil
	}
	size, err := a.file.size()
	if err != nil {
		return 0, false, err
	}
	return size, false, nil
}

// unallocate puts a span reserved by allocate back, used when the record
// write fails. Appends need no bookkeeping: the file never grew.
func (a *allocator) unallocate(offset, payloadLength uint64, reused bool) {
	if reused {
		_ = a.free.Add(offset, payloadLength+prefixSize)
	}
}

// release reclaims the record at offset. A span ending exactly at the
// end of the file is cut off by truncation instead of being tracked, so
// trailing gaps never accumulate. truncated reports which path was taken.
func (a *allocator) release(offset uint64) (truncated bool, err error) {
	length, err := a.file.payloadLength(offset)
	if err != nil {
		return false, err
	}
	size, err := a.file.size()
	if err != nil {
		return false, err
	}

	end := offset + prefixSize + length
	if end == size {
		if err = a.file.io.Truncate(int64(offset)); err != nil {
			return false, fmt.Errorf("truncate database file: %w", err)
		}
		return true, nil
	}

	if err = a.free.Add(offset, prefixSize+length); err != nil {
		if errors.Is(err, freespace.ErrOverlap) {
			return false, ErrCorrupted
		}
		return false, err
	}
	return false, nil
}
