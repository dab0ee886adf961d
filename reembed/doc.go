// Package reembed rebuilds the vector index from the stored library.
//
// A Reembedder restores the persisted snapshot, resyncs it against every
// entry with progress reporting and saves the result. A Scheduler runs a
// Reembedder on a cron schedule.
package reembed
