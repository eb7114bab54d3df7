package fio

import "github.com/gofrs/flock"

// FileLocker guards a store file against concurrent processes
type FileLocker interface {
	TryLock() (bool, error)
	Unlock() error
}

const lockSuffix = ".lock"

// NewFlock creates a sidecar lock next to the store file
func NewFlock(file string) *flock.Flock {
	return flock.New(file + lockSuffix)
}
