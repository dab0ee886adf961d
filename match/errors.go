package match

import "errors"

var (
	// ErrInvalidConfig indicates an out-of-range matching setting.
	ErrInvalidConfig = errors.New("invalid matching configuration")

	// ErrUnknownStrategy indicates a strategy name that is not recognized.
	ErrUnknownStrategy = errors.New("unknown match strategy")

	// ErrExtractorRequired indicates that a keyword extractor was not provided.
	ErrExtractorRequired = errors.New("keyword extractor is required")

	// ErrScorerRequired indicates that a scorer was not provided.
	ErrScorerRequired = errors.New("scorer is required")
)
