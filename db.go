package bdd

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pandi-pandou/ProjetBDD/fio"
	"github.com/pandi-pandou/ProjetBDD/freespace"
)

// DB is a key/value store persisted in a single file. Records are
// length-prefixed spans placed by first-fit over reclaimed space, and the
// key index and free-space table are saved in the same file on Close,
// referenced from the fixed header.
//
// All operations are synchronous and guarded by one mutex; the in-memory
// index and free-space table always match the file when a call returns.
type DB struct {
	mu sync.Mutex

	path  string
	file  *recordFile
	alloc *allocator

	// offsets of the currently persisted metadata records, noRecord
	// when the file holds none
	keydirRecordOff    uint64
	freespaceRecordOff uint64

	fileLock fio.FileLocker
	logger   zerolog.Logger
	options  options
	closed   bool
}

// Open opens or creates the store file at path. A sidecar flock guards
// against a second process opening the same file.
func Open(path string, opts ...Option) (*DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.fileLock == nil {
		o.fileLock = fio.NewFlock(path)
	}

	ok, err := o.fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock database file: %w", err)
	}
	if !ok {
		return nil, ErrDatabaseIsUsing
	}

	ioManager, err := o.ioManagerCreator(path)
	if err != nil {
		_ = o.fileLock.Unlock()
		return nil, fmt.Errorf("open database file: %w", err)
	}

	file := &recordFile{io: ioManager}
	db := &DB{
		path:               path,
		file:               file,
		alloc:              &allocator{file: file, free: freespace.NewTable()},
		keydirRecordOff:    noRecord,
		freespaceRecordOff: noRecord,
		fileLock:           o.fileLock,
		logger:             o.logger,
		options:            o,
	}

	if err = db.loadMetadata(); err != nil {
		_ = ioManager.Close()
		_ = o.fileLock.Unlock()
		return nil, err
	}

	db.logger.Debug().
		Str("path", path).
		Int("keys", db.options.keydir.Len()).
		Int("freeIntervals", db.alloc.free.Len()).
		Msg("database opened")
	return db, nil
}

// loadMetadata reads the header and rebuilds the key index and
// free-space table, or initializes a fresh file.
func (db *DB) loadMetadata() error {
	size, err := db.file.size()
	if err != nil {
		return err
	}
	if size == 0 {
		return db.file.writeHeader()
	}
	if size < headerSize {
		return ErrCorrupted
	}

	keydirOff, err := db.file.readHeaderSlot(keydirSlot)
	if err != nil {
		return err
	}
	freespaceOff, err := db.file.readHeaderSlot(freespaceSlot)
	if err != nil {
		return err
	}

	if keydirOff != noRecord {
		data, err := db.file.readRecord(keydirOff)
		if err != nil {
			return err
		}
		entries := make(map[string]uint64)
		if err = db.options.codec.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("%w: %v", ErrCodec, err)
		}
		for key, offset := range entries {
			db.options.keydir.Put(key, offset)
		}
		db.keydirRecordOff = keydirOff
	}

	if freespaceOff != noRecord {
		data, err := db.file.readRecord(freespaceOff)
		if err != nil {
			return err
		}
		if err = db.alloc.free.UnmarshalBinary(data); err != nil {
			return ErrCorrupted
		}
		db.freespaceRecordOff = freespaceOff
	}
	return nil
}

// Put stores value under key, replacing any previous value. The previous
// record is reclaimed first so its space can be reused for the new one.
func (db *DB) Put(key string, value any) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}

	data, err := db.options.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if uint64(len(data)) > maxPayloadSize {
		return ErrBigValue
	}

	if oldOffset, ok := db.options.keydir.Get(key); ok {
		if _, err = db.alloc.release(oldOffset); err != nil {
			return err
		}
		// the entry must not point at freed space, even transiently
		db.options.keydir.Delete(key)
	}

	offset, reused, err := db.alloc.allocate(uint64(len(data)))
	if err != nil {
		return err
	}
	if err = db.file.writeRecord(offset, data); err != nil {
		db.alloc.unallocate(offset, uint64(len(data)), reused)
		return err
	}
	db.options.keydir.Put(key, offset)

	db.logger.Debug().
		Str("key", key).
		Uint64("offset", offset).
		Int("size", len(data)).
		Bool("reused", reused).
		Msg("record written")
	return nil
}

// Get reads the value stored under key into out, which must be a pointer
// the codec can decode into. Returns ErrKeyNotFound for an absent key.
func (db *DB) Get(key string, out any) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}

	offset, ok := db.options.keydir.Get(key)
	if !ok {
		return ErrKeyNotFound
	}
	data, err := db.file.readRecord(offset)
	if err != nil {
		return err
	}
	if err = db.options.codec.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return nil
}

// Remove deletes the record stored under key and reclaims its space.
// Removing an absent key is a no-op returning false, with no I/O done.
func (db *DB) Remove(key string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false, ErrDatabaseClosed
	}

	offset, ok := db.options.keydir.Get(key)
	if !ok {
		return false, nil
	}
	truncated, err := db.alloc.release(offset)
	if err != nil {
		return false, err
	}
	db.options.keydir.Delete(key)

	db.logger.Debug().
		Str("key", key).
		Uint64("offset", offset).
		Bool("truncated", truncated).
		Msg("record removed")
	return true, nil
}

// Has reports whether key currently has a record. A closed store holds
// no accessible records and always answers false.
func (db *DB) Has(key string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return false
	}
	_, ok := db.options.keydir.Get(key)
	return ok
}

// Keys returns all keys in ascending order, nil once the store is closed.
func (db *DB) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	return db.options.keydir.Keys()
}

// Len returns the number of stored records, zero once the store is closed.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return 0
	}
	return db.options.keydir.Len()
}

func (db *DB) Path() string {
	return db.path
}

// Fold calls fn for every key with the raw encoded payload of its
// record, in ascending key order, stopping at the first error.
func (db *DB) Fold(fn func(key string, data []byte) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}

	for _, key := range db.options.keydir.Keys() {
		offset, ok := db.options.keydir.Get(key)
		if !ok {
			continue
		}
		data, err := db.file.readRecord(offset)
		if err != nil {
			return err
		}
		if err = fn(key, data); err != nil {
			return err
		}
	}
	return nil
}

// Sync flushes the file to stable storage.
func (db *DB) Sync() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrDatabaseClosed
	}
	return db.file.io.Sync()
}

// Close persists the key index and free-space table into the file,
// updates the header slots and releases the file handle and lock.
// Close is idempotent; every other operation fails afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	err := db.saveMetadata()
	if err == nil {
		err = db.file.io.Sync()
	}

	// the handle and lock go away even when persisting failed
	if closeErr := db.file.io.Close(); err == nil {
		err = closeErr
	}
	if unlockErr := db.fileLock.Unlock(); err == nil {
		err = unlockErr
	}
	if err == nil {
		db.logger.Debug().Str("path", db.path).Msg("database closed")
	}
	return err
}

// saveMetadata writes the key index and free-space table as ordinary
// records and points the header slots at them. Previous copies are
// reclaimed first so they don't leak as unreachable space.
func (db *DB) saveMetadata() error {
	if db.keydirRecordOff != noRecord {
		if _, err := db.alloc.release(db.keydirRecordOff); err != nil {
			return err
		}
		db.keydirRecordOff = noRecord
	}
	if db.freespaceRecordOff != noRecord {
		if _, err := db.alloc.release(db.freespaceRecordOff); err != nil {
			return err
		}
		db.freespaceRecordOff = noRecord
	}

	data, err := db.options.codec.Marshal(db.options.keydir.Snapshot())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	offset, reused, err := db.alloc.allocate(uint64(len(data)))
	if err != nil {
		return err
	}
	if err = db.file.writeRecord(offset, data); err != nil {
		db.alloc.unallocate(offset, uint64(len(data)), reused)
		return err
	}
	db.keydirRecordOff = offset

	// encoded after every allocation above and appended at end-of-file,
	// so writing the table cannot invalidate its own snapshot
	tableData, err := db.alloc.free.MarshalBinary()
	if err != nil {
		return err
	}
	end, err := db.file.size()
	if err != nil {
		return err
	}
	if err = db.file.writeRecord(end, tableData); err != nil {
		return err
	}
	db.freespaceRecordOff = end

	if err = db.file.writeHeaderSlot(keydirSlot, db.keydirRecordOff); err != nil {
		return err
	}
	return db.file.writeHeaderSlot(freespaceSlot, db.freespaceRecordOff)
}
