package bdd

import (
	"github.com/rs/zerolog"

	"github.com/pandi-pandou/ProjetBDD/codec"
	"github.com/pandi-pandou/ProjetBDD/fio"
	"github.com/pandi-pandou/ProjetBDD/keydir"
)

type options struct {
	codec  codec.Codec
	keydir keydir.Keydir
	logger zerolog.Logger

	ioManagerCreator func(path string) (fio.IOManager, error)
	fileLock         fio.FileLocker
}

type Option func(*options)

var defaultIOManagerCreator = func(path string) (fio.IOManager, error) {
	return fio.NewFileIO(path)
}

func defaultOptions() options {
	return options{
		codec:            codec.NewGobCodec(),
		keydir:           keydir.NewHashMap(),
		logger:           zerolog.Nop(),
		ioManagerCreator: defaultIOManagerCreator,
	}
}

// WithCodec swaps the value codec, gob by default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithKeydir swaps the in-memory key index implementation.
func WithKeydir(kd keydir.Keydir) Option {
	return func(o *options) {
		o.keydir = kd
	}
}

// WithLogger enables structured debug logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithIOManagerCreator(fn func(path string) (fio.IOManager, error)) Option {
	return func(o *options) {
		o.ioManagerCreator = fn
	}
}

// WithFileLock replaces the default flock sidecar next to the store file.
func WithFileLock(fl fio.FileLocker) Option {
	return func(o *options) {
		o.fileLock = fl
	}
}
