// Package pipeline drives one pass over the document listing: fetch, filter
// against the processed set, render each new document, publish to every
// configured destination, and commit the document as processed when at least
// one destination succeeded. Listing failures abort the run; everything below
// the per-document boundary is contained and logged.
package pipeline
