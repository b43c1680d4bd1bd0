package caption

import (
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gazette/internal/document"
)

// Limits holds a destination's caption length budgets, measured in runes.
type Limits struct {
	MaxTitleLength       int
	MaxTotalLength       int
	ReservedForURLSuffix int
}

// LinkSpan marks a clickable URL inside Body. Offsets are UTF-8 byte
// positions, not rune counts: downstream rich-text protocols index by byte.
type LinkSpan struct {
	Start int
	End   int
	URL   string
}

// TagSpan marks a clickable hashtag inside Body. The span covers the leading
// '#'; Tag holds the bare name. Offsets are UTF-8 byte positions.
type TagSpan struct {
	Start int
	End   int
	Tag   string
}

// Caption is the composed post text for one document and one destination.
type Caption struct {
	Body      string
	LinkSpans []LinkSpan
	TagSpans  []TagSpan
}

const (
	ellipsis       = "..."
	fallbackLayout = "02.01.06 15:04 CET"
)

var titleCaser = cases.Title(language.Und)

// Build composes a caption for ref under the given limits. It never fails:
// malformed input produces a best-effort caption.
func Build(ref document.Ref, limits Limits, hashtags []string, now time.Time) Caption {
	title := strings.TrimSpace(ref.Title)
	if title == "" {
		title = humanizeFilename(ref.Filename())
	}
	title = truncateTitle(title, limits.MaxTitleLength)

	date := publishedDate(ref, now)
	tagLine := hashtagLine(hashtags)

	body := title + "\nPublished on " + date + "\n\n" + tagLine

	c := Caption{}
	url := strings.TrimSpace(ref.SourceURL)
	if url != "" && fitsWithURL(body, url, limits) {
		start := len(body) + len("\n\n")
		body += "\n\n" + url
		c.LinkSpans = append(c.LinkSpans, LinkSpan{Start: start, End: start + len(url), URL: url})
	}
	c.Body = body
	c.TagSpans = tagSpans(body, hashtags)
	return c
}

func fitsWithURL(body, url string, limits Limits) bool {
	if limits.MaxTotalLength <= 0 {
		return false
	}
	total := utf8.RuneCountInString(body) + len("\n\n") + utf8.RuneCountInString(url)
	return total <= limits.MaxTotalLength-limits.ReservedForURLSuffix
}

func truncateTitle(title string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(title) <= maxLen {
		return title
	}
	// Budgets smaller than the ellipsis still must not be exceeded.
	if maxLen <= len(ellipsis) {
		return ellipsis[:maxLen]
	}
	runes := []rune(title)
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

func publishedDate(ref document.Ref, now time.Time) string {
	if date := strings.TrimSpace(ref.Published); date != "" {
		if !strings.HasSuffix(date, "CET") {
			date += " CET"
		}
		return date
	}
	parsed, ok := timestampFromFilename(ref.Filename())
	if !ok {
		parsed = now
	}
	return parsed.Format(fallbackLayout)
}

// timestampFromFilename reads the last three dot-separated 2-or-4-digit
// tokens of a filename as day.month.year. Two-digit years mean 20YY.
func timestampFromFilename(filename string) (time.Time, bool) {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	var tokens []string
	for _, part := range strings.Split(stem, ".") {
		if len(part) == 2 || len(part) == 4 {
			tokens = append(tokens, part)
		}
	}
	if len(tokens) < 3 {
		return time.Time{}, false
	}
	day, month, year := tokens[len(tokens)-3], tokens[len(tokens)-2], tokens[len(tokens)-1]
	if len(year) == 2 {
		year = "20" + year
	}
	parsed, err := time.Parse("02.01.2006", day+"."+month+"."+year)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func humanizeFilename(filename string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	stem = strings.Join(strings.Fields(stem), " ")
	return titleCaser.String(stem)
}

func hashtagLine(hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		if name := tagName(tag); name != "" {
			tags = append(tags, "#"+name)
		}
	}
	return strings.Join(tags, " ")
}

// tagSpans records a span for every configured hashtag literally present in
// body. Tags lost to truncation are silently skipped.
func tagSpans(body string, hashtags []string) []TagSpan {
	var spans []TagSpan
	for _, tag := range hashtags {
		name := tagName(tag)
		if name == "" {
			continue
		}
		literal := "#" + name
		start := strings.Index(body, literal)
		if start < 0 {
			continue
		}
		spans = append(spans, TagSpan{Start: start, End: start + len(literal), Tag: name})
	}
	return spans
}

func tagName(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}
