package resolve

import "errors"

var (
	// ErrOracleRequired is returned when no oracle is provided
	ErrOracleRequired = errors.New("oracle is required")

	// ErrSearchRequired is returned when no search provider is provided
	ErrSearchRequired = errors.New("search provider is required")

	// ErrNoConstraints is returned when a query has no constraints
	ErrNoConstraints = errors.New("at least one constraint is required")

	// ErrQueueClosed is returned when submitting to a closed evaluation queue
	ErrQueueClosed = errors.New("evaluation queue is closed")
)
