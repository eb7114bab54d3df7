package codec

// Codec turns arbitrary values into the byte payloads the store persists.
// The store never inspects payload contents, only their length, so any
// scheme works as long as Unmarshal inverts Marshal.
type Codec interface {
	Marshal(value any) ([]byte, error)

	// Unmarshal decodes data into the value pointed to by out.
	Unmarshal(data []byte, out any) error
}
