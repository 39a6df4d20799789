// Package bootstrap opens cache engines from bootstrap documents.
//
// A bootstrap document names the engine driver, its connection settings and, optionally,
// predefined region configurations:
//
//	engine: redis
//	redis:
//	  addrs: ["localhost:6379"]
//	  keyPrefix: shop
//	  nearCache: { maxEntries: 1000, ttl: 5s }
//	caches:
//	  orders: { eviction: LRU, maxEntries: 500, mode: REPL_SYNC }
//
// Documents are located by URL (file://, http://, https:// or a plain path) and parsed as YAML
// or JSON.
package bootstrap

import (
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/constants"
	"github.com/hyp3rd/cacheservice/internal/sentinel"
	"github.com/hyp3rd/cacheservice/pkg/engine"
)

// Document is a parsed bootstrap document.
type Document struct {
	Engine   string                          `json:"engine"   yaml:"engine"`
	InMemory InMemory                        `json:"inMemory" yaml:"inMemory"`
	Redis    Redis                           `json:"redis"    yaml:"redis"`
	Caches   map[string]engine.Configuration `json:"caches"   yaml:"caches"`
}

// InMemory holds the in-memory engine settings.
type InMemory struct {
	// ReapInterval is how often expired entries are swept; "0s" disables the sweep.
	ReapInterval *Duration `json:"reapInterval" yaml:"reapInterval"`
}

// Redis holds the redis engine settings.
type Redis struct {
	Addrs        []string  `json:"addrs"        yaml:"addrs"`
	MasterName   string    `json:"masterName"   yaml:"masterName"`
	Username     string    `json:"username"     yaml:"username"`
	Password     string    `json:"password"     yaml:"password"`
	DB           int       `json:"db"           yaml:"db"`
	KeyPrefix    string    `json:"keyPrefix"    yaml:"keyPrefix"`
	Serializer   string    `json:"serializer"   yaml:"serializer"`
	WaitReplicas *int      `json:"waitReplicas" yaml:"waitReplicas"`
	WaitTimeout  Duration  `json:"waitTimeout"  yaml:"waitTimeout"`
	NearCache    NearCache `json:"nearCache"    yaml:"nearCache"`
}

// NearCache holds the redis engine near cache settings. A zero MaxEntries disables it.
type NearCache struct {
	MaxEntries int64    `json:"maxEntries" yaml:"maxEntries"`
	TTL        Duration `json:"ttl"        yaml:"ttl"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "duration %q", text)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Validate fills the engine default and checks every predefined region.
func (d *Document) Validate() error {
	d.Engine = strings.ToLower(strings.TrimSpace(d.Engine))
	if d.Engine == "" {
		d.Engine = constants.InMemoryEngine
	}

	for name, cfg := range d.Caches {
		if strings.TrimSpace(name) == "" {
			return ewrap.Wrap(sentinel.ErrBootstrapInvalid, "blank cache name")
		}

		err := cfg.Validate()
		if err != nil {
			return ewrap.Wrapf(sentinel.ErrBootstrapInvalid, "cache %q: %v", name, err)
		}
	}

	return nil
}
