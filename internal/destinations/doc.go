// Package destinations maps configuration onto publish.Destination
// implementations. Adapters register a factory per kind; Build resolves each
// configured destination's credentials from the environment and skips any
// destination whose credentials are absent.
package destinations
