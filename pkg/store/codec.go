package store

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode keeps sub-second precision; the library default encodes whole
// Unix seconds.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339Nano,
		Sort: cbor.SortCanonical,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Marshal encodes a record for the embedded backends.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a record written by Marshal.
func Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
