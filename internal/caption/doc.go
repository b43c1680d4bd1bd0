// Package caption composes destination-appropriate post text with byte-offset
// link and hashtag spans for rich-text protocols.
package caption
