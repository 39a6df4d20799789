package serializer

import (
	"reflect"
	"sync"
	"time"
)

// TypeRegistry maps the type names stored next to encoded values back to Go types, so values
// decode to the type they were written with instead of the serializer's generic form.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

//nolint:gochecknoglobals
var defaultTypes = NewTypeRegistry()

// NewTypeRegistry returns a registry holding the builtin scalar, slice, map and time types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]reflect.Type)}

	r.Register(
		false, "", []byte(nil),
		int(0), int8(0), int16(0), int32(0), int64(0),
		uint(0), uint8(0), uint16(0), uint32(0), uint64(0),
		float32(0), float64(0),
		time.Time{}, time.Duration(0),
		[]string(nil), []int(nil), []int64(nil), []float64(nil), []any(nil),
		map[string]string(nil), map[string]int(nil), map[string]any(nil),
	)

	return r
}

// DefaultTypes returns the process-wide registry engines use unless configured otherwise.
func DefaultTypes() *TypeRegistry { return defaultTypes }

// RegisterType adds the types of samples to the process-wide registry.
func RegisterType(samples ...any) { defaultTypes.Register(samples...) }

// Register adds the types of samples. Nil samples are ignored.
func (r *TypeRegistry) Register(samples ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sample := range samples {
		if sample == nil {
			continue
		}

		t := reflect.TypeOf(sample)
		r.types[typeName(t)] = t
	}
}

// Name returns the name value is recorded under, or "" for nil.
func (*TypeRegistry) Name(value any) string {
	if value == nil {
		return ""
	}

	return typeName(reflect.TypeOf(value))
}

// Decode unmarshals data with s into the type registered under name. Unknown or blank names decode
// into the serializer's generic form.
func (r *TypeRegistry) Decode(s ISerializer, name string, data []byte) (any, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		var value any

		err := s.Unmarshal(data, &value)
		if err != nil {
			return nil, err
		}

		return value, nil
	}

	ptr := reflect.New(t)

	err := s.Unmarshal(data, ptr.Interface())
	if err != nil {
		return nil, err
	}

	return ptr.Elem().Interface(), nil
}

func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}

	return t.String()
}
