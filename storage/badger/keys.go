package badger

// Key prefixes for different data types
const (
	entryPrefix = "entry:"
	flagPrefix  = "flag:"
	snapshotKey = "vecsnap"
)

// makeEntryKey generates a key for a knowledge entry by ID.
func makeEntryKey(id string) []byte {
	return []byte(entryPrefix + id)
}

// makeFlagKey generates a key for an entry's extended flags.
func makeFlagKey(id string) []byte {
	return []byte(flagPrefix + id)
}
