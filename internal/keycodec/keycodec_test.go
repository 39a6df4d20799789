package keycodec

import (
	"errors"
	"testing"
	"time"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

type orderKey struct {
	Tenant string
	ID     int
}

func TestCBOR_Encode(t *testing.T) {
	c := New()

	key, err := c.Encode("plain")
	assert.Nil(t, err)
	assert.Equal(t, "plain", key)

	first, err := c.Encode(orderKey{Tenant: "acme", ID: 7})
	assert.Nil(t, err)

	second, err := c.Encode(orderKey{Tenant: "acme", ID: 7})
	assert.Nil(t, err)
	assert.Equal(t, first, second)

	other, err := c.Encode(orderKey{Tenant: "acme", ID: 8})
	assert.Nil(t, err)
	assert.True(t, first != other)
}

func TestCBOR_DistinguishesTypes(t *testing.T) {
	c := New()

	asInt32, err := c.Encode(int32(1))
	assert.Nil(t, err)

	asUint8, err := c.Encode(uint8(1))
	assert.Nil(t, err)

	asString, err := c.Encode("1")
	assert.Nil(t, err)

	assert.True(t, asInt32 != asUint8)
	assert.True(t, asInt32 != asString)
}

func TestCBOR_MapKeysAreCanonical(t *testing.T) {
	c := New()

	first, err := c.Encode(map[string]int{"a": 1, "b": 2, "c": 3})
	assert.Nil(t, err)

	for range 20 {
		again, err := c.Encode(map[string]int{"c": 3, "b": 2, "a": 1})
		assert.Nil(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCBOR_NilKeys(t *testing.T) {
	c := New()

	var (
		ptr   *orderKey
		slice []byte
	)

	for _, key := range []any{nil, ptr, slice} {
		_, err := c.Encode(key)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
	}
}

type sessionKey struct {
	Tenant string
	id     int
}

type wrappedKey struct {
	Inner []sessionKey
}

type stampedKey struct {
	At   time.Time
	Name string
}

func TestCBOR_RejectsHiddenFields(t *testing.T) {
	c := New()

	for _, key := range []any{sessionKey{Tenant: "acme", id: 1}, wrappedKey{}, &sessionKey{}, map[string]sessionKey{}} {
		_, err := c.Encode(key)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
	}

	// the verdict is cached per type
	_, err := c.Encode(sessionKey{Tenant: "acme", id: 2})
	assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
}

func TestCBOR_AcceptsSelfEncodingFields(t *testing.T) {
	c := New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := c.Encode(stampedKey{At: at, Name: "a"})
	assert.Nil(t, err)

	later, err := c.Encode(stampedKey{At: at.Add(time.Second), Name: "a"})
	assert.Nil(t, err)
	assert.True(t, first != later)

	_, err = c.Encode(func() {})
	assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
}
