// Package source fetches the public document listing page and extracts
// candidate document references with their metadata.
package source
