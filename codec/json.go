package codec

import "encoding/json"

var _ Codec = (*JSONCodec)(nil)

// JSONCodec stores values as JSON, handy when the file should stay
// readable by other tooling
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (jc *JSONCodec) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (jc *JSONCodec) Unmarshal(data []byte, out any) error {
	return json.Unmarshal(data, out)
}
