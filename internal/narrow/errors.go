package narrow

import "errors"

var (
	// ErrOracleRequired is returned when no oracle is provided
	ErrOracleRequired = errors.New("oracle is required")

	// ErrSearchRequired is returned when no search provider is provided
	ErrSearchRequired = errors.New("search provider is required")
)
