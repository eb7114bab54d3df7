package fio

// IOManager is the random-access file abstraction the store runs on.
// It can be custom in options, e.g. to inject faults in tests.
type IOManager interface {
	// Read fills buf with bytes starting at offset.
	Read(buf []byte, offset int64) (int, error)

	// Write puts data at offset, growing the file when writing past its end.
	Write(data []byte, offset int64) (int, error)

	// Size returns the current file length in bytes.
	Size() (int64, error)

	// Truncate cuts the file to the given length.
	Truncate(size int64) error

	Sync() error
	Close() error
}
