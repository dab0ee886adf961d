package scoring

import "errors"

var (
	// ErrInvalidConfig indicates that a scoring weight is out of range.
	ErrInvalidConfig = errors.New("invalid scoring configuration")
)
