package keyword

import "errors"

// ErrInvalidConfig is returned when extractor weights are out of range.
var ErrInvalidConfig = errors.New("invalid keyword config")
