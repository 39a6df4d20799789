// Package keycodec turns caller supplied cache keys into the string keys engines store.
//
// String keys pass through unchanged. Every other key is encoded with canonical CBOR, so equal
// keys always produce the same bytes (map keys are sorted, integers use their shortest form),
// and is tagged with its Go type so that, for instance, int32(1) and uint8(1) stay distinct.
// Non-string keys start with a NUL byte, which keeps them apart from ordinary string keys.
//
// CBOR only sees exported struct fields, so key types holding unexported fields are rejected:
// two such keys that differ only in a hidden field would otherwise encode to the same bytes.
// time.Time and types implementing encoding.BinaryMarshaler encode themselves and are accepted.
package keycodec

import (
	"encoding"
	"reflect"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/ugorji/go/codec"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

const typeSeparator = "\x00"

// Codec encodes cache keys.
type Codec interface {
	// Encode returns the engine key for key. A nil key fails with sentinel.ErrInvalidKey.
	Encode(key any) (string, error)
}

// CBOR is the default Codec.
type CBOR struct {
	handle *codec.CborHandle
	// checked caches the verdict of checkType per key type.
	checked sync.Map
}

// New returns a canonical CBOR key codec.
func New() *CBOR {
	handle := &codec.CborHandle{}
	handle.Canonical = true

	return &CBOR{handle: handle}
}

// Encode implements Codec.
func (c *CBOR) Encode(key any) (string, error) {
	if isNil(key) {
		return "", sentinel.ErrInvalidKey
	}

	if s, ok := key.(string); ok {
		return s, nil
	}

	err := c.check(reflect.TypeOf(key))
	if err != nil {
		return "", err
	}

	var buf []byte

	err = codec.NewEncoderBytes(&buf, c.handle).Encode(key)
	if err != nil {
		return "", ewrap.Wrapf(sentinel.ErrInvalidArgument, "key of type %T is not encodable: %v", key, err)
	}

	return typeSeparator + reflect.TypeOf(key).String() + typeSeparator + string(buf), nil
}

func (c *CBOR) check(t reflect.Type) error {
	if verdict, ok := c.checked.Load(t); ok {
		if verdict == nil {
			return nil
		}

		return verdict.(error) //nolint:forcetypeassert
	}

	err := checkType(t, map[reflect.Type]bool{})
	c.checked.Store(t, err)

	return err
}

//nolint:gochecknoglobals
var (
	timeType            = reflect.TypeFor[time.Time]()
	binaryMarshalerType = reflect.TypeFor[encoding.BinaryMarshaler]()
)

// checkType reports whether every value of t encodes all of its state.
func checkType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] || t == timeType || t.Implements(binaryMarshalerType) {
		return nil
	}

	seen[t] = true

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return checkType(t.Elem(), seen)
	case reflect.Map:
		err := checkType(t.Key(), seen)
		if err != nil {
			return err
		}

		return checkType(t.Elem(), seen)
	case reflect.Struct:
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				return ewrap.Wrapf(sentinel.ErrInvalidArgument, "key type %s has unexported field %s", t, field.Name)
			}

			err := checkType(field.Type, seen)
			if err != nil {
				return err
			}
		}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return ewrap.Wrapf(sentinel.ErrInvalidArgument, "key type %s is not encodable", t)
	default:
	}

	return nil
}

func isNil(key any) bool {
	if key == nil {
		return true
	}

	value := reflect.ValueOf(key)

	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return value.IsNil()
	default:
		return false
	}
}
