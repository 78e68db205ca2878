package monitor

import "errors"

var (
	// ErrInsufficientData is returned when statistics are requested from an
	// empty window.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidConfig is returned by constructors given a window size below
	// one or a negative threshold.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidSample is returned for non-finite samples. The sample is not
	// absorbed.
	ErrInvalidSample = errors.New("invalid sample")
)
