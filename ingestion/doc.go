// Package ingestion manages the knowledge library.
//
// The Pipeline type applies library edits and keeps derived state in step:
//   - Adding, updating and deleting entries in storage
//   - Maintaining extended flags and cleaning up stale ones
//   - Refreshing entry vectors asynchronously
//
// Vector work is performed on a worker pool so edits never wait on the
// embedding provider. Errors during async processing are logged but do not
// fail the edit. Libraries can be imported from a line-based text format or
// from YAML.
package ingestion
