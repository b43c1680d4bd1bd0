package textutil

import "strings"

// fileNameReplacer neutralizes characters that are path separators, glob
// metacharacters, or shell-hostile in a URL-derived basename. Separators
// become dashes so distinct path segments stay readable; the rest vanish.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"[", "",
	"]", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a listing-derived name safe to use as a local file
// name. The result is trimmed of surrounding whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeToken reduces a string to a lowercase token of letters, digits,
// hyphens, and underscores. Everything else, glob metacharacters included,
// becomes an underscore, so the result can feed filepath.Glob as a literal
// prefix. Returns "unknown" when nothing safe remains.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, value)
	mapped = strings.Trim(mapped, "_-")
	if mapped == "" {
		return "unknown"
	}
	return mapped
}
