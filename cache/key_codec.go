package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Method discriminates the cached read operations of a repository.
type Method string

// Cached read methods.
const (
	MethodAll            Method = "ALL"
	MethodFind           Method = "FIND"
	MethodFindWhere      Method = "FIND_WHERE"
	MethodFindWhereEmail Method = "FIND_WHERE_EMAIL"
	MethodFindWhereFirst Method = "FIND_WHERE_FIRST"
	MethodDataTable      Method = "DATATABLE"
	MethodOrder          Method = "ORDER"
)

var methods = [...]Method{
	MethodAll,
	MethodFind,
	MethodFindWhere,
	MethodFindWhereEmail,
	MethodFindWhereFirst,
	MethodDataTable,
	MethodOrder,
}

// Methods returns the cached read methods in declaration order.
func Methods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods[:])
	return out
}

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	for _, known := range methods {
		if known == m {
			return true
		}
	}
	return false
}

func (m Method) String() string { return string(m) }

// Key segments.
const (
	KeyPrefix     = "/"
	KeySeparator  = "_"
	TrashedSuffix = "_TRASHED"
)

// KeyCodec derives cache keys from a method, its arguments and the
// soft-delete visibility of the read.
type KeyCodec interface {
	DeriveKey(method Method, args []any, trashed bool) string
}

type keyCodec struct{}

// NewKeyCodec returns the default codec.
//
// Keys have the shape "/METHOD[_<sha256 of the JSON args>][_TRASHED]". The
// digest is only present when args is not empty.
func NewKeyCodec() KeyCodec {
	return keyCodec{}
}

// DeriveKey derives a key with the default codec.
func DeriveKey(method Method, args []any, trashed bool) string {
	return keyCodec{}.DeriveKey(method, args, trashed)
}

func (keyCodec) DeriveKey(method Method, args []any, trashed bool) string {
	var b strings.Builder
	b.Grow(len(KeyPrefix) + len(method) + len(KeySeparator) + sha256.Size*2 + len(TrashedSuffix))

	b.WriteString(KeyPrefix)
	b.WriteString(string(method))

	if len(args) > 0 {
		b.WriteString(KeySeparator)
		b.WriteString(digestArgs(args))
	}

	if trashed {
		b.WriteString(TrashedSuffix)
	}

	return b.String()
}

// digestArgs hashes the canonical JSON encoding of args. Values JSON cannot
// encode (funcs, channels, cycles) fall back to the reflective serializer so
// key derivation never fails; those keys are only stable within a process.
func digestArgs(args []any) string {
	payload, err := json.Marshal(args)
	if err != nil {
		payload = []byte("reflect:" + serializeArgs(args))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
