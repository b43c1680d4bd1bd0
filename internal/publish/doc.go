// Package publish uploads rendered pages to a destination in fixed-size
// batches, threading continuation posts as replies, and folds every failure
// into a per-destination result.
package publish
