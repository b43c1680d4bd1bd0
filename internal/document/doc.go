// Package document defines the document reference model shared by the
// listing source, the processed-set store, and the pipeline.
package document
