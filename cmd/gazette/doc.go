// Command gazette polls a document listing page for new PDF bulletins,
// rasterizes them to page images, and publishes the images to every
// configured destination.
package main
