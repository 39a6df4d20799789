package serializer

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

type order struct {
	ID    string
	Items int
}

func TestRegistry_New(t *testing.T) {
	registry := NewSerializerRegistry()

	s, err := registry.New("")
	assert.Nil(t, err)

	_, ok := s.(*MsgpackSerializer)
	assert.True(t, ok)

	s, err = registry.New("JSON")
	assert.Nil(t, err)

	_, ok = s.(*JSONSerializer)
	assert.True(t, ok)

	_, err = registry.New("gob")
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))
	assert.True(t, errors.Is(err, sentinel.ErrUnsupportedOperation))

	_, err = NewEmptySerializerRegistry().New(Msgpack)
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))
}

func TestSerializers_RoundTrip(t *testing.T) {
	for _, name := range []string{Msgpack, JSON} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			assert.Nil(t, err)

			data, err := s.Marshal(order{ID: "o-1", Items: 3})
			assert.Nil(t, err)

			var decoded order

			err = s.Unmarshal(data, &decoded)
			assert.Nil(t, err)
			assert.Equal(t, order{ID: "o-1", Items: 3}, decoded)
		})
	}
}

func TestSerializers_GenericDecode(t *testing.T) {
	s, err := New(JSON)
	assert.Nil(t, err)

	data, err := s.Marshal("hello")
	assert.Nil(t, err)

	var decoded any

	err = s.Unmarshal(data, &decoded)
	assert.Nil(t, err)
	assert.Equal(t, "hello", decoded)

	err = s.Unmarshal([]byte("{"), &decoded)
	assert.True(t, err != nil)
}

func TestTypeRegistry_DecodesRegisteredTypes(t *testing.T) {
	types := NewTypeRegistry()
	types.Register(order{})

	for _, name := range []string{Msgpack, JSON} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			assert.Nil(t, err)

			for _, in := range []any{42, int64(-7), uint16(9), 2.5, "text", true, order{ID: "o-1", Items: 3}} {
				data, err := s.Marshal(in)
				assert.Nil(t, err)

				out, err := types.Decode(s, types.Name(in), data)
				assert.Nil(t, err)
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestTypeRegistry_UnknownTypeDecodesGenerically(t *testing.T) {
	s, err := New(JSON)
	assert.Nil(t, err)

	data, err := s.Marshal(order{ID: "o-1", Items: 3})
	assert.Nil(t, err)

	types := NewTypeRegistry()

	out, err := types.Decode(s, types.Name(order{}), data)
	assert.Nil(t, err)
	assert.Equal(t, map[string]any{"ID": "o-1", "Items": float64(3)}, out)

	out, err = types.Decode(s, types.Name(nil), []byte("null"))
	assert.Nil(t, err)
	assert.Nil(t, out)
}
