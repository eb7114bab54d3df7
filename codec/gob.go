package codec

import (
	"bytes"
	"encoding/gob"
)

var _ Codec = (*GobCodec)(nil)

// GobCodec is the default codec, backed by encoding/gob
type GobCodec struct{}

func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

func (gc *GobCodec) Marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gc *GobCodec) Unmarshal(data []byte, out any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
