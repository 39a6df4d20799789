package config

import (
	"errors"
	"testing"

	"github.com/longbridgeapp/assert"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

func TestNewKeys(t *testing.T) {
	keys, err := NewKeys("redis.")
	assert.Nil(t, err)
	assert.Equal(t, "redis.name", keys.Name())
	assert.Equal(t, "redis.config", keys.Config())
	assert.Equal(t, "redis.cacheMode", keys.CacheMode())
	assert.Equal(t, "redis.replicationMode", keys.ReplicationMode())
	assert.Equal(t, "redis.maxEntries", keys.MaxEntries())
	assert.Equal(t, "", keys.Instance())

	keys, err = NewKeys("redis.", WithInstance("orders"))
	assert.Nil(t, err)
	assert.Equal(t, "redis.orders.name", keys.Name())
	assert.Equal(t, "redis.orders.maxEntries", keys.MaxEntries())
	assert.Equal(t, "orders", keys.Instance())
	assert.Equal(t, "redis.orders.*", keys.String())
}

func TestNewKeys_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		opts   []KeysOption
	}{
		{name: "empty prefix", prefix: ""},
		{name: "blank prefix", prefix: "  "},
		{name: "empty instance", prefix: "cache.", opts: []KeysOption{WithInstance("")}},
		{name: "whitespace instance", prefix: "cache.", opts: []KeysOption{WithInstance(" \t")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeys(tt.prefix, tt.opts...)
			assert.True(t, errors.Is(err, sentinel.ErrInvalidArgument))
		})
	}
}

func TestKeys_InstancesAreDisjoint(t *testing.T) {
	instances := []string{"orders", "sessions", "orders.archive", "a", "b"}
	seen := make(map[string]string)

	for _, prefix := range []string{"cache.", "redis."} {
		base := MustKeys(prefix)
		for _, key := range base.All() {
			assert.Equal(t, "", seen[key])
			seen[key] = prefix
		}

		for _, instance := range instances {
			keys := MustKeys(prefix, WithInstance(instance))
			for _, key := range keys.All() {
				owner, taken := seen[key]
				assert.False(t, taken)

				if taken {
					t.Logf("%s collides with %s", key, owner)
				}

				seen[key] = prefix + instance
			}
		}
	}

	assert.Equal(t, 2*(1+len(instances))*5, len(seen))
}

func TestKeys_IsPure(t *testing.T) {
	a := MustKeys("cache.", WithInstance("orders"))
	b := MustKeys("cache.", WithInstance("orders"))

	assert.Equal(t, a.All(), b.All())
	assert.Equal(t, a.Name(), a.Name())
}

func TestKeys_Rebind(t *testing.T) {
	keys := MustKeys("redis.")

	shop := keys.Rebind("shop")
	assert.Equal(t, "shop.redis.maxEntries", shop.MaxEntries())
	assert.Equal(t, "shop.redis.maxEntries", keys.Rebind("shop.").MaxEntries())
	assert.Equal(t, "tenant.shop.redis.name", shop.Rebind("tenant").Name())

	// the receiver is untouched
	assert.Equal(t, "redis.maxEntries", keys.MaxEntries())
	assert.Equal(t, keys, keys.Rebind("  "))

	named := MustKeys("redis.", WithInstance("orders")).Rebind("shop")
	assert.Equal(t, "shop.redis.orders.config", named.Config())
}
