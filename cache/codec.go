package cache

import (
	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes a cached value. Values round trip through msgpack so a
// cached result never aliases memory owned by the caller or the storage.
func Encode[T any](value T) ([]byte, error) {
	return msgpack.Marshal(value)
}

// Decode is the inverse of Encode.
func Decode[T any](data []byte) (T, error) {
	var value T
	if err := msgpack.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}
