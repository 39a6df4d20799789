package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Source resolves configuration values by fully-qualified key.
type Source interface {
	// Lookup returns the value under key and whether it was set.
	Lookup(key string) (string, bool)
}

// MapSource serves values from a map.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]

	return v, ok
}

// EnvSource serves values from the process environment. A key maps to an upper-case variable
// name with '.' and '-' turned into '_', behind the optional Prefix: with Prefix "APP",
// "cache.maxEntries" reads APP_CACHE_MAXENTRIES.
type EnvSource struct {
	Prefix string
}

// Lookup implements Source.
func (e EnvSource) Lookup(key string) (string, bool) {
	return os.LookupEnv(e.Variable(key))
}

// Variable returns the environment variable name of key.
func (e EnvSource) Variable(key string) string {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if e.Prefix == "" {
		return name
	}

	return strings.ToUpper(strings.TrimSuffix(e.Prefix, "_")) + "_" + name
}

// ViperSource serves values from a viper instance; dotted keys resolve nested documents.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource wraps v. A nil v uses the viper global instance.
func NewViperSource(v *viper.Viper) ViperSource {
	if v == nil {
		v = viper.GetViper()
	}

	return ViperSource{v: v}
}

// Lookup implements Source.
func (s ViperSource) Lookup(key string) (string, bool) {
	if !s.v.IsSet(key) {
		return "", false
	}

	return s.v.GetString(key), true
}

// Chain returns a Source that asks each source in order and serves the first hit.
func Chain(sources ...Source) Source {
	return chain(sources)
}

type chain []Source

func (c chain) Lookup(key string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}

		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}

	return "", false
}
