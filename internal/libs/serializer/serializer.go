// Package serializer converts cache values to and from the byte form stored by remote engines.
// msgpack is the default; JSON is available for stores shared with non-Go readers.
package serializer

import (
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

const (
	// Msgpack is the registry name of the msgpack serializer.
	Msgpack = "msgpack"
	// JSON is the registry name of the JSON serializer.
	JSON = "json"
	// Default is the serializer used when none is configured.
	Default = Msgpack
)

// ISerializer is the interface that wraps the basic serializer methods.
type ISerializer interface {
	// Marshal serializes the given value into a byte slice.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes the given byte slice into the value pointed to by v.
	Unmarshal(data []byte, v any) error
}

// Registry manages serializer constructors.
type Registry struct {
	serializers map[string]func() ISerializer
}

func getDefaultSerializers() map[string]func() ISerializer {
	return map[string]func() ISerializer{
		Msgpack: func() ISerializer { return &MsgpackSerializer{} },
		JSON:    func() ISerializer { return &JSONSerializer{} },
	}
}

// NewSerializerRegistry creates a registry with the msgpack and JSON serializers registered.
func NewSerializerRegistry() *Registry {
	registry := NewEmptySerializerRegistry()

	for name, createFunc := range getDefaultSerializers() {
		registry.Register(name, createFunc)
	}

	return registry
}

// NewEmptySerializerRegistry creates a registry without serializers.
func NewEmptySerializerRegistry() *Registry {
	return &Registry{
		serializers: make(map[string]func() ISerializer),
	}
}

// Register registers a serializer under name. Names are case-insensitive.
func (r *Registry) Register(name string, createFunc func() ISerializer) {
	r.serializers[strings.ToLower(name)] = createFunc
}

// New returns the serializer registered under name. A blank name selects Default.
func (r *Registry) New(name string) (ISerializer, error) {
	if strings.TrimSpace(name) == "" {
		name = Default
	}

	createFunc, ok := r.serializers[strings.ToLower(name)]
	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrSerializerNotFound, name)
	}

	return createFunc(), nil
}

// New returns a serializer from a registry holding the default serializers.
func New(name string) (ISerializer, error) {
	return NewSerializerRegistry().New(name)
}
