// Package eviction defines the engine-neutral eviction strategies a cache service can be
// configured with. Every engine must either interpret a Strategy or reject it; translation to
// engine-specific policies happens at a single boundary in the cacheservice package.
package eviction

import (
	"strconv"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// Strategy is the policy governing which entries are discarded when a capacity bound is reached.
type Strategy int

const (
	// LRU discards the least recently used entry first.
	LRU Strategy = iota
	// FIFO discards the oldest inserted entry first.
	FIFO
	// Unlimited enforces no capacity bound; a max entries setting is ignored.
	Unlimited

	strategyCount
)

var strategyNames = [strategyCount]string{
	LRU:       "LRU",
	FIFO:      "FIFO",
	Unlimited: "UNLIMITED",
}

// Strategies returns the closed set of strategies.
func Strategies() []Strategy {
	return []Strategy{LRU, FIFO, Unlimited}
}

// Valid reports whether s is a member of the closed set.
func (s Strategy) Valid() bool {
	return s >= 0 && s < strategyCount
}

// String returns the configuration token of the strategy.
func (s Strategy) String() string {
	if !s.Valid() {
		return "Strategy(" + strconv.Itoa(int(s)) + ")"
	}

	return strategyNames[s]
}

// Parse converts a configuration token into a Strategy. Matching ignores case and surrounding
// whitespace; anything else fails with sentinel.ErrUnsupportedOperation.
func Parse(token string) (Strategy, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))

	for _, s := range Strategies() {
		if strategyNames[s] == normalized {
			return s, nil
		}
	}

	return 0, ewrap.Wrapf(sentinel.ErrUnknownStrategy, "%q", token)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ewrap.Wrap(sentinel.ErrUnknownStrategy, s.String())
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
