package ingestion

import "errors"

var (
	// ErrEntryRepositoryRequired is returned when an entry repository is not provided.
	ErrEntryRepositoryRequired = errors.New("entry repository required")

	// ErrFlagStoreRequired is returned when a flag store is not provided.
	ErrFlagStoreRequired = errors.New("flag store required")

	// ErrMalformedLine is returned when a text import line cannot be parsed.
	ErrMalformedLine = errors.New("malformed import line")

	// ErrMalformedDocument is returned when a YAML import cannot be parsed.
	ErrMalformedDocument = errors.New("malformed import document")
)
