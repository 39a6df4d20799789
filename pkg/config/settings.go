package config

import (
	"strconv"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/eviction"
)

// Settings is the configuration of one cache instance. Nil optional fields leave the engine default.
type Settings struct {
	// Config is the engine bootstrap handle, e.g. a URL to a bootstrap document.
	Config string
	// Name is the logical cache (region) name.
	Name string
	// CacheMode is the eviction strategy.
	CacheMode *eviction.Strategy
	// ReplicationMode is the engine replication mode token, validated when the cache is built.
	ReplicationMode *string
	// MaxEntries bounds the entry count; ignored by the Unlimited strategy.
	MaxEntries *int
}

// Load reads the settings under keys from src.
func Load(src Source, keys Keys) (Settings, error) {
	if src == nil {
		return Settings{}, ewrap.Wrap(sentinel.ErrInvalidArgument, "nil configuration source")
	}

	var (
		s   Settings
		err error
	)

	s.Config, err = required(src, keys.Config())
	if err != nil {
		return Settings{}, err
	}

	s.Name, err = required(src, keys.Name())
	if err != nil {
		return Settings{}, err
	}

	if raw, ok := optional(src, keys.CacheMode()); ok {
		strategy, err := eviction.Parse(raw)
		if err != nil {
			return Settings{}, ewrap.Wrapf(err, "key %s", keys.CacheMode())
		}

		s.CacheMode = &strategy
	}

	if raw, ok := optional(src, keys.ReplicationMode()); ok {
		s.ReplicationMode = &raw
	}

	if raw, ok := optional(src, keys.MaxEntries()); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Settings{}, ewrap.Wrapf(sentinel.ErrInvalidArgument, "key %s: %q is not an integer", keys.MaxEntries(), raw)
		}

		if n < 0 {
			return Settings{}, ewrap.Wrapf(sentinel.ErrInvalidMaxEntries, "key %s: %d", keys.MaxEntries(), n)
		}

		s.MaxEntries = &n
	}

	return s, nil
}

// Validate checks the required fields and the value ranges.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Config) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "config")
	}

	if strings.TrimSpace(s.Name) == "" {
		return ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "name")
	}

	if s.CacheMode != nil && !s.CacheMode.Valid() {
		return ewrap.Wrapf(sentinel.ErrUnknownStrategy, "cacheMode %s", s.CacheMode)
	}

	if s.MaxEntries != nil && *s.MaxEntries < 0 {
		return ewrap.Wrapf(sentinel.ErrInvalidMaxEntries, "maxEntries %d", *s.MaxEntries)
	}

	return nil
}

func required(src Source, key string) (string, error) {
	v, ok := optional(src, key)
	if !ok {
		return "", ewrap.Wrapf(sentinel.ErrParamCannotBeEmpty, "key %s", key)
	}

	return v, nil
}

// optional returns the trimmed value under key; blank values count as unset.
func optional(src Source, key string) (string, bool) {
	v, ok := src.Lookup(key)
	if !ok {
		return "", false
	}

	v = strings.TrimSpace(v)

	return v, v != ""
}
