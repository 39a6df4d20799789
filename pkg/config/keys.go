// Package config derives the namespaced configuration keys of a cache instance and loads the
// instance settings from external configuration sources.
//
// Every key is prefix [+ instance + "."] + leaf, for the leaves config, name, cacheMode,
// replicationMode and maxEntries. Named instances under one prefix never share a key.
package config

import (
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// Keys is the key set of one cache configuration. The zero value is not usable; use NewKeys.
type Keys struct {
	prefix   string
	instance string
	outer    string
}

// KeysOption configures Keys.
type KeysOption func(*keysOptions)

type keysOptions struct {
	instance    string
	hasInstance bool
}

// WithInstance inserts the instance name between the prefix and the leaf keys.
func WithInstance(name string) KeysOption {
	return func(o *keysOptions) {
		o.instance = name
		o.hasInstance = true
	}
}

// NewKeys builds the key set rooted at prefix, e.g. "redis.". A blank prefix, or an instance
// name given blank, fails with sentinel.ErrInvalidArgument.
func NewKeys(prefix string, opts ...KeysOption) (Keys, error) {
	if strings.TrimSpace(prefix) == "" {
		return Keys{}, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "prefix")
	}

	var o keysOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.hasInstance && strings.TrimSpace(o.instance) == "" {
		return Keys{}, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "instance name")
	}

	return Keys{prefix: prefix, instance: o.instance}, nil
}

// MustKeys is NewKeys for static prefixes; it panics on error.
func MustKeys(prefix string, opts ...KeysOption) Keys {
	keys, err := NewKeys(prefix, opts...)
	if err != nil {
		panic(err)
	}

	return keys
}

// Prefix returns the root the keys were built from.
func (k Keys) Prefix() string { return k.prefix }

// Instance returns the instance name, empty for the base keys.
func (k Keys) Instance() string { return k.instance }

// Config returns the key of the engine bootstrap handle.
func (k Keys) Config() string { return k.key(constants.ConfigSuffix) }

// Name returns the key of the logical cache name.
func (k Keys) Name() string { return k.key(constants.NameSuffix) }

// CacheMode returns the key of the eviction strategy.
func (k Keys) CacheMode() string { return k.key(constants.CacheModeSuffix) }

// ReplicationMode returns the key of the replication mode.
func (k Keys) ReplicationMode() string { return k.key(constants.ReplicationModeSuffix) }

// MaxEntries returns the key of the entry count bound.
func (k Keys) MaxEntries() string { return k.key(constants.MaxEntriesSuffix) }

// All returns every key, in leaf order config, name, cacheMode, replicationMode, maxEntries.
func (k Keys) All() []string {
	return []string{k.Config(), k.Name(), k.CacheMode(), k.ReplicationMode(), k.MaxEntries()}
}

// Rebind returns the same keys resolved under the outer namespace: Rebind("shop") of
// "redis." resolves "shop.redis.maxEntries". A blank outer returns k.
func (k Keys) Rebind(outer string) Keys {
	outer = strings.TrimSuffix(strings.TrimSpace(outer), ".")
	if outer == "" {
		return k
	}

	if k.outer != "" {
		outer += "." + k.outer
	}

	k.outer = outer

	return k
}

// String implements fmt.Stringer.
func (k Keys) String() string {
	return k.key("*")
}

func (k Keys) key(leaf string) string {
	var b strings.Builder

	if k.outer != "" {
		b.WriteString(k.outer)
		b.WriteByte('.')
	}

	b.WriteString(k.prefix)

	if k.instance != "" {
		b.WriteString(k.instance)
		b.WriteByte('.')
	}

	b.WriteString(leaf)

	return b.String()
}
