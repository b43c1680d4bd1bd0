// Package render converts a source document into an ordered sequence of page
// images by driving an external PDF rasterizer.
package render
