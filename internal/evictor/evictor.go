// Package evictor implements the entry ordering algorithms used by the in-memory engine to pick
// eviction victims once a region reaches its entry bound.
package evictor

import (
	"maps"
	"strings"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// IAlgorithm is the interface that must be implemented by ordering algorithms.
// Implementations are safe for concurrent use.
type IAlgorithm interface {
	// Set tracks key. When tracking a new key would exceed the capacity, the victim chosen by the
	// algorithm is dropped and returned.
	Set(key string) (evicted string, ok bool)
	// Get records an access to key and reports whether it is tracked.
	Get(key string) bool
	// Evict drops and returns the next victim.
	Evict() (string, bool)
	// Delete stops tracking key.
	Delete(key string)
	// Len returns the number of tracked keys.
	Len() int
}

// AlgorithmRegistry manages ordering algorithm constructors.
type AlgorithmRegistry struct {
	algorithms map[string]func(capacity int) (IAlgorithm, error)
}

// getDefaultAlgorithms returns the default set of ordering algorithms.
func getDefaultAlgorithms() map[string]func(capacity int) (IAlgorithm, error) {
	return map[string]func(capacity int) (IAlgorithm, error){
		"lru": func(capacity int) (IAlgorithm, error) {
			return NewLRU(capacity)
		},
		"fifo": func(capacity int) (IAlgorithm, error) {
			return NewFIFO(capacity)
		},
	}
}

// NewAlgorithmRegistry creates a new algorithm registry.
func NewAlgorithmRegistry() *AlgorithmRegistry {
	registry := &AlgorithmRegistry{
		algorithms: make(map[string]func(capacity int) (IAlgorithm, error)),
	}
	// Register the default algorithms
	registry.RegisterMultiple(getDefaultAlgorithms())

	return registry
}

// Register registers a new ordering algorithm with the given name.
func (r *AlgorithmRegistry) Register(name string, createFunc func(capacity int) (IAlgorithm, error)) {
	r.algorithms[strings.ToLower(name)] = createFunc
}

// RegisterMultiple registers a set of ordering algorithms.
func (r *AlgorithmRegistry) RegisterMultiple(algorithms map[string]func(capacity int) (IAlgorithm, error)) {
	maps.Copy(r.algorithms, algorithms)
}

// NewAlgorithm creates a new ordering algorithm with the given capacity.
func (r *AlgorithmRegistry) NewAlgorithm(algorithmName string, capacity int) (IAlgorithm, error) {
	// Check the parameters.
	if strings.TrimSpace(algorithmName) == "" {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "algorithmName")
	}

	if capacity < 0 {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidMaxEntries, "%d", capacity)
	}

	createFunc, ok := r.algorithms[strings.ToLower(algorithmName)]
	if !ok {
		return nil, ewrap.Wrap(sentinel.ErrAlgorithmNotFound, algorithmName)
	}

	return createFunc(capacity)
}

// New creates a new ordering algorithm using a registry with the default algorithms.
func New(algorithmName string, capacity int) (IAlgorithm, error) {
	return NewAlgorithmRegistry().NewAlgorithm(algorithmName, capacity)
}
