package fio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestFileIO(t *testing.T) *FileIO {
	t.Helper()
	fio, err := NewFileIO(filepath.Join(t.TempDir(), "data"))
	assert.Nil(t, err)
	t.Cleanup(func() {
		_ = fio.Close()
	})
	return fio
}

func TestFileIO_Write(t *testing.T) {
	fio := newTestFileIO(t)

	n, err := fio.Write([]byte("hello"), 0)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)

	// writing past the end grows the file
	n, err = fio.Write([]byte("world"), 10)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)

	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(15), size)
}

func TestFileIO_Read(t *testing.T) {
	fio := newTestFileIO(t)

	_, err := fio.Write([]byte("hello"), 0)
	assert.Nil(t, err)

	buf := make([]byte, 5)
	n, err := fio.Read(buf, 0)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	buf = make([]byte, 3)
	_, err = fio.Read(buf, 2)
	assert.Nil(t, err)
	assert.Equal(t, "llo", string(buf))
}

func TestFileIO_Truncate(t *testing.T) {
	fio := newTestFileIO(t)

	_, err := fio.Write([]byte("hello world"), 0)
	assert.Nil(t, err)

	err = fio.Truncate(5)
	assert.Nil(t, err)

	size, err := fio.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(5), size)
}

func TestNewFlock(t *testing.T) {
	file := filepath.Join(t.TempDir(), "data")
	fl := NewFlock(file)

	ok, err := fl.TryLock()
	assert.Nil(t, err)
	assert.True(t, ok)

	other := NewFlock(file)
	ok, err = other.TryLock()
	assert.Nil(t, err)
	assert.False(t, ok)

	assert.Nil(t, fl.Unlock())
	_ = os.Remove(file + lockSuffix)
}
