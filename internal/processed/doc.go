// Package processed persists the set of documents that have already been
// published, preventing duplicate posting across runs.
package processed
