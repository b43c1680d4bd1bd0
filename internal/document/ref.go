package document

import (
	"path"
	"strings"
)

// Ref identifies one published document on the listing page.
// Identity is the normalized URL together with the derived filename; the
// double key guards against the source renaming or moving files.
// A Ref is immutable once fetched.
type Ref struct {
	// ID is the normalized source URL.
	ID string
	// SourceURL is the URL exactly as it appeared on the listing page.
	SourceURL string
	// Title is the listing title; may be empty.
	Title string
	// Published is the listing's display date; may be empty.
	Published string
}

// NewRef builds a Ref from a raw listing URL and metadata.
func NewRef(rawURL, title, published string) Ref {
	return Ref{
		ID:        NormalizeURL(rawURL),
		SourceURL: strings.TrimSpace(rawURL),
		Title:     strings.TrimSpace(title),
		Published: strings.TrimSpace(published),
	}
}

// Filename returns the lower-cased basename derived from the normalized URL.
func (r Ref) Filename() string {
	return FilenameFromURL(r.ID)
}

// NormalizeURL trims whitespace, lower-cases, and converts backslashes to
// forward slashes so superficially different URLs compare equal.
func NormalizeURL(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ToLower(normalized)
	return strings.ReplaceAll(normalized, "\\", "/")
}

// FilenameFromURL returns the lower-cased basename of a URL.
func FilenameFromURL(raw string) string {
	normalized := NormalizeURL(raw)
	if normalized == "" {
		return ""
	}
	return strings.ToLower(path.Base(normalized))
}
