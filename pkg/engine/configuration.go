package engine

import (
	"strconv"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// EvictionPolicy is the engine-native eviction policy of a region.
type EvictionPolicy int

const (
	// EvictionNone disables capacity based eviction.
	EvictionNone EvictionPolicy = iota
	// EvictionLRU evicts the least recently used entry.
	EvictionLRU
	// EvictionFIFO evicts the oldest inserted entry.
	EvictionFIFO
)

var evictionPolicyNames = map[EvictionPolicy]string{
	EvictionNone: "NONE",
	EvictionLRU:  "LRU",
	EvictionFIFO: "FIFO",
}

// String returns the bootstrap document token of the policy.
func (p EvictionPolicy) String() string {
	if name, ok := evictionPolicyNames[p]; ok {
		return name
	}

	return "EvictionPolicy(" + strconv.Itoa(int(p)) + ")"
}

// ParseEvictionPolicy converts a bootstrap document token into an EvictionPolicy.
func ParseEvictionPolicy(token string) (EvictionPolicy, error) {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	for policy, name := range evictionPolicyNames {
		if name == normalized {
			return policy, nil
		}
	}

	return EvictionNone, ewrap.Wrapf(sentinel.ErrUnknownStrategy, "engine policy %q", token)
}

// MarshalText implements encoding.TextMarshaler.
func (p EvictionPolicy) MarshalText() ([]byte, error) {
	if _, ok := evictionPolicyNames[p]; !ok {
		return nil, ewrap.Wrap(sentinel.ErrUnknownStrategy, p.String())
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *EvictionPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseEvictionPolicy(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// ReplicationMode describes how a write is propagated to other nodes.
type ReplicationMode int

const (
	// Local keeps entries on the writing node only.
	Local ReplicationMode = iota
	// ReplSync replicates every write to all nodes and waits for acknowledgement.
	ReplSync
	// ReplAsync replicates every write to all nodes without waiting.
	ReplAsync
	// InvalidationSync invalidates remote copies and waits for acknowledgement.
	InvalidationSync
	// InvalidationAsync invalidates remote copies without waiting.
	InvalidationAsync
	// DistSync distributes entries to their owners and waits for acknowledgement.
	DistSync
	// DistAsync distributes entries to their owners without waiting.
	DistAsync
)

var replicationModeNames = map[ReplicationMode]string{
	Local:             "LOCAL",
	ReplSync:          "REPL_SYNC",
	ReplAsync:         "REPL_ASYNC",
	InvalidationSync:  "INVALIDATION_SYNC",
	InvalidationAsync: "INVALIDATION_ASYNC",
	DistSync:          "DIST_SYNC",
	DistAsync:         "DIST_ASYNC",
}

// ReplicationModes returns the closed set of modes, in declaration order.
func ReplicationModes() []ReplicationMode {
	return []ReplicationMode{Local, ReplSync, ReplAsync, InvalidationSync, InvalidationAsync, DistSync, DistAsync}
}

// String returns the configuration token of the mode.
func (m ReplicationMode) String() string {
	if name, ok := replicationModeNames[m]; ok {
		return name
	}

	return "ReplicationMode(" + strconv.Itoa(int(m)) + ")"
}

// Synchronous reports whether writes in this mode wait for remote acknowledgement.
func (m ReplicationMode) Synchronous() bool {
	return m == ReplSync || m == InvalidationSync || m == DistSync
}

// ParseReplicationMode converts a configuration token into a ReplicationMode.
// Matching ignores case, surrounding whitespace and treats '-' like '_'.
func ParseReplicationMode(token string) (ReplicationMode, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(token)), "-", "_")
	for _, mode := range ReplicationModes() {
		if replicationModeNames[mode] == normalized {
			return mode, nil
		}
	}

	return Local, ewrap.Wrapf(sentinel.ErrUnknownReplicationMode, "%q", token)
}

// MarshalText implements encoding.TextMarshaler.
func (m ReplicationMode) MarshalText() ([]byte, error) {
	if _, ok := replicationModeNames[m]; !ok {
		return nil, ewrap.Wrap(sentinel.ErrUnknownReplicationMode, m.String())
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ReplicationMode) UnmarshalText(text []byte) error {
	parsed, err := ParseReplicationMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Configuration is the engine-native configuration of one region.
type Configuration struct {
	Eviction   EvictionPolicy  `json:"eviction"   yaml:"eviction"`
	MaxEntries int             `json:"maxEntries" yaml:"maxEntries"`
	Mode       ReplicationMode `json:"mode"       yaml:"mode"`
}

// DefaultConfiguration returns an unbounded, local configuration.
func DefaultConfiguration() Configuration {
	return Configuration{Eviction: EvictionNone, Mode: Local}
}

// Validate checks the configuration is self-consistent.
func (c Configuration) Validate() error {
	if _, ok := evictionPolicyNames[c.Eviction]; !ok {
		return ewrap.Wrap(sentinel.ErrUnknownStrategy, c.Eviction.String())
	}

	if _, ok := replicationModeNames[c.Mode]; !ok {
		return ewrap.Wrap(sentinel.ErrUnknownReplicationMode, c.Mode.String())
	}

	if c.MaxEntries < 0 {
		return ewrap.Wrapf(sentinel.ErrInvalidMaxEntries, "%d", c.MaxEntries)
	}

	return nil
}

// Bounded reports whether the region enforces an entry count bound.
func (c Configuration) Bounded() bool {
	return c.Eviction != EvictionNone && c.MaxEntries > 0
}
