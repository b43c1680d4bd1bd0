// Package services holds cross-cutting helpers shared by external-system
// adapters: the sentinel error taxonomy and wrapping conventions.
package services
