package evidence

import "errors"

var (
	// ErrOracleRequired is returned when no oracle is provided
	ErrOracleRequired = errors.New("oracle is required")

	// ErrSearchRequired is returned when no search provider is provided
	ErrSearchRequired = errors.New("search provider is required")

	// ErrAnalyzerRequired is returned when no analyzer is provided
	ErrAnalyzerRequired = errors.New("evidence analyzer is required")
)
