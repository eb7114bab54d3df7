package bdd

import (
	"fmt"
)

var (
	ErrEmptyKey    = addPrefix("the key is empty")
	ErrBigValue    = addPrefix("value is too big")
	ErrKeyNotFound = addPrefix("no record for key")

	ErrDatabaseClosed  = addPrefix("database is closed")
	ErrDatabaseIsUsing = addPrefix("database file is using")
	ErrCorrupted       = addPrefix("database file may be corrupted")

	ErrCodec = addPrefix("codec failed")
)

func addPrefix(errStr string) error {
	return fmt.Errorf("bdd err: %s", errStr)
}
