package reembed

import "errors"

var (
	// ErrEntryRepositoryRequired is returned when no entry repository is given.
	ErrEntryRepositoryRequired = errors.New("entry repository is required")

	// ErrSnapshotRepositoryRequired is returned when no snapshot repository is given.
	ErrSnapshotRepositoryRequired = errors.New("snapshot repository is required")

	// ErrIndexRequired is returned when no vector index is given.
	ErrIndexRequired = errors.New("vector index is required")

	// ErrInvalidSchedule is returned for a schedule the cron parser rejects.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
