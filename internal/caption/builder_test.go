package caption_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"gazette/internal/caption"
	"gazette/internal/document"
)

var testLimits = caption.Limits{MaxTitleLength: 200, MaxTotalLength: 300, ReservedForURLSuffix: 0}

var testTags = []string{"f1", "formula1", "fia"}

func refNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestBuildBasicLayout(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Stewards Decision", "01.06.25 10:00 CET")
	c := caption.Build(ref, testLimits, testTags, refNow())

	want := "Stewards Decision\nPublished on 01.06.25 10:00 CET\n\n#f1 #formula1 #fia\n\nhttps://example.com/docs/decision.pdf"
	if c.Body != want {
		t.Fatalf("unexpected body:\n%q\nwant:\n%q", c.Body, want)
	}
}

func TestTitleTruncationConsumesExactBudget(t *testing.T) {
	long := strings.Repeat("a", 250)
	ref := document.NewRef("https://example.com/docs/decision.pdf", long, "01.06.25")
	c := caption.Build(ref, testLimits, testTags, refNow())

	title := strings.SplitN(c.Body, "\n", 2)[0]
	if got := utf8.RuneCountInString(title); got != testLimits.MaxTitleLength {
		t.Fatalf("title segment has %d runes, want %d", got, testLimits.MaxTitleLength)
	}
	if !strings.HasSuffix(title, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", title)
	}
}

func TestTinyTitleBudgetNeverExceeded(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Stewards Decision", "01.06.25")
	for maxLen := 1; maxLen <= 4; maxLen++ {
		limits := caption.Limits{MaxTitleLength: maxLen, MaxTotalLength: 300}
		c := caption.Build(ref, limits, nil, refNow())

		title := strings.SplitN(c.Body, "\n", 2)[0]
		if got := utf8.RuneCountInString(title); got != maxLen {
			t.Fatalf("max %d: title segment has %d runes (%q)", maxLen, got, title)
		}
	}
}

func TestLinkSpanRoundTripsByteExact(t *testing.T) {
	// Multi-byte runes in the title shift byte offsets away from rune offsets.
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Décision des commissaires à Montréal", "01.06.25")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if len(c.LinkSpans) != 1 {
		t.Fatalf("expected one link span, got %d", len(c.LinkSpans))
	}
	span := c.LinkSpans[0]
	if got := c.Body[span.Start:span.End]; got != ref.SourceURL {
		t.Fatalf("span decodes to %q, want %q", got, ref.SourceURL)
	}
}

func TestURLOmittedWhenOverBudget(t *testing.T) {
	limits := caption.Limits{MaxTitleLength: 200, MaxTotalLength: 80, ReservedForURLSuffix: 0}
	ref := document.NewRef("https://example.com/docs/a-very-long-path/decision.pdf", "Stewards Decision Document", "01.06.25")
	c := caption.Build(ref, limits, testTags, refNow())

	if strings.Contains(c.Body, ref.SourceURL) {
		t.Fatalf("URL should have been dropped: %q", c.Body)
	}
	if len(c.LinkSpans) != 0 {
		t.Fatalf("expected no link spans, got %v", c.LinkSpans)
	}
}

func TestReservedSuffixShrinksBudget(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Title", "01.06.25")
	base := caption.Build(ref, caption.Limits{MaxTitleLength: 200, MaxTotalLength: 120}, testTags, refNow())
	if len(base.LinkSpans) != 1 {
		t.Fatalf("expected URL to fit without reservation: %q", base.Body)
	}

	reserved := caption.Build(ref, caption.Limits{MaxTitleLength: 200, MaxTotalLength: 120, ReservedForURLSuffix: 60}, testTags, refNow())
	if len(reserved.LinkSpans) != 0 {
		t.Fatalf("expected reservation to push URL over budget: %q", reserved.Body)
	}
}

func TestTagSpansCoverLiteralTags(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Décision", "01.06.25")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if len(c.TagSpans) != len(testTags) {
		t.Fatalf("expected %d tag spans, got %d", len(testTags), len(c.TagSpans))
	}
	for i, span := range c.TagSpans {
		if got := c.Body[span.Start:span.End]; got != "#"+testTags[i] {
			t.Fatalf("tag span %d decodes to %q, want %q", i, got, "#"+testTags[i])
		}
	}
}

func TestTitleFallsBackToHumanizedFilename(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/stewards_decision-car_44.pdf", "", "01.06.25")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if !strings.HasPrefix(c.Body, "Stewards Decision Car 44\n") {
		t.Fatalf("unexpected humanized title: %q", c.Body)
	}
}

func TestDateFallsBackToFilenameTokens(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.02.06.25.pdf", "Decision", "")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if !strings.Contains(c.Body, "Published on 02.06.25 00:00 CET") {
		t.Fatalf("expected filename-derived date, got %q", c.Body)
	}
}

func TestDateFallsBackToNowWhenUnparseable(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Decision", "")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if !strings.Contains(c.Body, "Published on 01.06.25 12:00 CET") {
		t.Fatalf("expected now fallback, got %q", c.Body)
	}
}

func TestListingDateGainsTimezoneSuffix(t *testing.T) {
	ref := document.NewRef("https://example.com/docs/decision.pdf", "Decision", "01.06.25 10:00")
	c := caption.Build(ref, testLimits, testTags, refNow())

	if !strings.Contains(c.Body, "Published on 01.06.25 10:00 CET") {
		t.Fatalf("expected CET suffix, got %q", c.Body)
	}
}
