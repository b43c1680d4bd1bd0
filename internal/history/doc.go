// Package history persists one row per destination publish attempt in a
// SQLite database. It backs the history command and post-hoc inspection;
// the pipeline treats write failures here as log-worthy, never fatal.
package history
