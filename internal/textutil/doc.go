// Package textutil sanitizes names derived from remote documents before they
// touch the filesystem. Listing titles and URL path segments are untrusted
// input; these helpers turn them into safe file names and glob-safe tokens.
package textutil
