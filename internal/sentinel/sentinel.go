// Package sentinel provides standardized error definitions for the cacheservice system.
// This package centralizes all error types used across the cache service, its configuration
// layer and the engines it drives, ensuring consistent error handling throughout the module.
//
// The taxonomy has four roots:
//   - ErrInvalidArgument: a nil or blank required parameter, a negative duration or bound
//   - ErrIllegalState: an operation before initialization, after shutdown, or without an engine handle
//   - ErrUnsupportedOperation: a value outside a recognized closed set (eviction strategy, replication mode)
//   - ErrConfiguration: an engine bootstrap handle that cannot be read or understood
//
// Every other error in this package wraps one of the roots, so callers can match either the
// specific condition or its category with errors.Is.
//
// All errors are created using the ewrap package to provide enhanced error
// wrapping and context capabilities.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrInvalidArgument is returned when a required parameter is nil, blank or out of range.
	ErrInvalidArgument = ewrap.New("invalid argument")

	// ErrIllegalState is returned when an operation is attempted in a state that does not allow it.
	ErrIllegalState = ewrap.New("illegal state")

	// ErrUnsupportedOperation is returned when a value falls outside a recognized closed set.
	ErrUnsupportedOperation = ewrap.New("unsupported operation")

	// ErrConfiguration is returned when the engine bootstrap handle cannot be loaded.
	ErrConfiguration = ewrap.New("configuration error")
)

var (
	// ErrInvalidKey is returned when a nil key is used to access the cache.
	ErrInvalidKey = ewrap.Wrap(ErrInvalidArgument, "key cannot be nil")

	// ErrInvalidExpiration is returned when a negative lifespan or idle time is supplied.
	ErrInvalidExpiration = ewrap.Wrap(ErrInvalidArgument, "expiration cannot be negative")

	// ErrInvalidTimeUnit is returned when a non-positive time unit is supplied.
	ErrInvalidTimeUnit = ewrap.Wrap(ErrInvalidArgument, "time unit must be positive")

	// ErrInvalidMaxEntries is returned when a negative max entries bound is supplied.
	ErrInvalidMaxEntries = ewrap.Wrap(ErrInvalidArgument, "max entries cannot be negative")

	// ErrParamCannotBeEmpty is returned when a required string parameter is blank.
	ErrParamCannotBeEmpty = ewrap.Wrap(ErrInvalidArgument, "param cannot be empty")

	// ErrNilCache is returned when a nil engine cache or manager is supplied.
	ErrNilCache = ewrap.Wrap(ErrInvalidArgument, "nil engine handle")

	// ErrNilClient is returned when a nil redis client is passed to the redis engine.
	ErrNilClient = ewrap.Wrap(ErrInvalidArgument, "nil client")

	// ErrInvalidType is returned when a cached value cannot be converted to the requested type.
	ErrInvalidType = ewrap.Wrap(ErrInvalidArgument, "cached value has a different type")

	// ErrNotInitialized is returned when the service is used before Initialize.
	ErrNotInitialized = ewrap.Wrap(ErrIllegalState, "cache is not initialized")

	// ErrAlreadyInitialized is returned when Initialize is called twice.
	ErrAlreadyInitialized = ewrap.Wrap(ErrIllegalState, "cache is already initialized")

	// ErrClosed is returned when the service or the engine cache has been shut down.
	ErrClosed = ewrap.Wrap(ErrIllegalState, "cache is closed")

	// ErrRegionRunning is returned when a running engine region is redefined.
	ErrRegionRunning = ewrap.Wrap(ErrIllegalState, "cache region is already running")

	// ErrBindingExists is returned when a binding token is installed twice in the same registry.
	ErrBindingExists = ewrap.Wrap(ErrIllegalState, "binding already exists")

	// ErrBindingNotFound is returned when a binding token is not present in the registry.
	ErrBindingNotFound = ewrap.Wrap(ErrIllegalState, "binding not found")

	// ErrReplicationIncomplete is returned when a synchronous write is acknowledged by fewer replicas than required.
	ErrReplicationIncomplete = ewrap.Wrap(ErrIllegalState, "write not acknowledged by enough replicas")

	// ErrUnknownStrategy is returned when an eviction strategy is outside the closed set.
	ErrUnknownStrategy = ewrap.Wrap(ErrUnsupportedOperation, "unknown eviction strategy")

	// ErrUnknownReplicationMode is returned when a replication mode token is outside the engine's set.
	ErrUnknownReplicationMode = ewrap.Wrap(ErrUnsupportedOperation, "unknown replication mode")

	// ErrReplicationModeNotSupported is returned when an engine cannot honor a known replication mode.
	ErrReplicationModeNotSupported = ewrap.Wrap(ErrUnsupportedOperation, "replication mode not supported by engine")

	// ErrAlgorithmNotFound is returned when an ordering algorithm is not registered.
	ErrAlgorithmNotFound = ewrap.Wrap(ErrUnsupportedOperation, "algorithm not found")

	// ErrSerializerNotFound is returned when a serializer is not registered.
	ErrSerializerNotFound = ewrap.Wrap(ErrUnsupportedOperation, "serializer not found")

	// ErrBootstrapUnreadable is returned when the bootstrap document cannot be fetched.
	ErrBootstrapUnreadable = ewrap.Wrap(ErrConfiguration, "bootstrap document unreadable")

	// ErrBootstrapInvalid is returned when the bootstrap document cannot be parsed or is incomplete.
	ErrBootstrapInvalid = ewrap.Wrap(ErrConfiguration, "bootstrap document invalid")

	// ErrDriverNotFound is returned when the bootstrap document names an unknown engine driver.
	ErrDriverNotFound = ewrap.Wrap(ErrConfiguration, "engine driver not found")

	// ErrMgmtHTTPShutdownTimeout is returned when the management HTTP server fails to shutdown before context deadline.
	ErrMgmtHTTPShutdownTimeout = ewrap.New("management http shutdown timeout")
)
