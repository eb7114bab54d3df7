package bdd

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pandi-pandou/ProjetBDD/fio"
)

const (
	// header layout: two u64 slots pointing at the persisted key index
	// and free-space table records
	headerSize    = 16
	keydirSlot    = 0
	freespaceSlot = 8

	prefixSize = 4

	// noRecord marks an empty header slot
	noRecord = ^uint64(0)

	maxPayloadSize = math.MaxUint32
)

// recordFile wraps the IOManager with the on-disk record layout:
// a 16-byte header followed by { u32 length, payload } records.
// All integers are big-endian.
type recordFile struct {
	io fio.IOManager
}

func (rf *recordFile) size() (uint64, error) {
	size, err := rf.io.Size()
	if err != nil {
		return 0, fmt.Errorf("stat database file: %w", err)
	}
	return uint64(size), nil
}

// writeHeader initializes a fresh file with both slots empty.
func (rf *recordFile) writeHeader() error {
	var header [headerSize]byte
	binary.BigEndian.PutUint64(header[keydirSlot:], noRecord)
	binary.BigEndian.PutUint64(header[freespaceSlot:], noRecord)
	if _, err := rf.io.Write(header[:], 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (rf *recordFile) readHeaderSlot(slot int64) (uint64, error) {
	var buf [8]byte
	if _, err := rf.io.Read(buf[:], slot); err != nil {
		return 0, fmt.Errorf("read header slot: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func (rf *recordFile) writeHeaderSlot(slot int64, offset uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], offset)
	if _, err := rf.io.Write(buf[:], slot); err != nil {
		return fmt.Errorf("write header slot: %w", err)
	}
	return nil
}

// writeRecord puts a length-prefixed record at offset in a single write,
// growing the file when offset is at its end.
func (rf *recordFile) writeRecord(offset uint64, payload []byte) error {
	if uint64(len(payload)) > maxPayloadSize {
		return ErrBigValue
	}
	buf := make([]byte, prefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:prefixSize], uint32(len(payload)))
	copy(buf[prefixSize:], payload)
	if _, err := rf.io.Write(buf, int64(offset)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// payloadLength reads and bounds-checks the length prefix at offset.
// A prefix pointing past the end of the file is corruption.
func (rf *recordFile) payloadLength(offset uint64) (uint64, error) {
	size, err := rf.size()
	if err != nil {
		return 0, err
	}
	if offset < headerSize || offset > size || size-offset < prefixSize {
		return 0, ErrCorrupted
	}
	var buf [prefixSize]byte
	if _, err = rf.io.Read(buf[:], int64(offset)); err != nil {
		return 0, fmt.Errorf("read record prefix: %w", err)
	}
	length := uint64(binary.BigEndian.Uint32(buf[:]))
	if length > size-offset-prefixSize {
		return 0, ErrCorrupted
	}
	return length, nil
}

// readRecord returns the payload of the record at offset.
func (rf *recordFile) readRecord(offset uint64) ([]byte, error) {
	length, err := rf.payloadLength(offset)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length == 0 {
		return payload, nil
	}
	if _, err = rf.io.Read(payload, int64(offset+prefixSize)); err != nil {
		return nil, fmt.Errorf("read record payload: %w", err)
	}
	return payload, nil
}
