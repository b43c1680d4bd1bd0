package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gazette/internal/document"
	"gazette/internal/logging"
	"gazette/internal/services"
)

// Source lists the documents currently published on the upstream page.
type Source interface {
	ListDocuments(ctx context.Context) ([]document.Ref, error)
}

// Selectors locate document rows and their metadata in the listing HTML.
type Selectors struct {
	Row       string
	Title     string
	Published string
}

// DefaultSelectors match the upstream document listing markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Row:       "li.document-row",
		Title:     "div.title",
		Published: "div.published span.date-display-single",
	}
}

// HTMLListing extracts PDF document links from an HTML listing page.
type HTMLListing struct {
	listingURL string
	baseURL    string
	userAgent  string
	selectors  Selectors
	client     *http.Client
	logger     *slog.Logger
}

// Option configures an HTMLListing.
type Option func(*HTMLListing)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *HTMLListing) {
		if client != nil {
			l.client = client
		}
	}
}

// WithSelectors overrides the default row and metadata selectors.
func WithSelectors(sel Selectors) Option {
	return func(l *HTMLListing) {
		if sel.Row != "" {
			l.selectors = sel
		}
	}
}

// WithUserAgent sets the User-Agent header sent with listing requests.
func WithUserAgent(ua string) Option {
	return func(l *HTMLListing) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// NewHTMLListing builds a listing source for listingURL. Relative document
// hrefs are resolved against baseURL.
func NewHTMLListing(listingURL, baseURL string, logger *slog.Logger, opts ...Option) *HTMLListing {
	l := &HTMLListing{
		listingURL: listingURL,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		selectors:  DefaultSelectors(),
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "source"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListDocuments fetches the listing page and returns one Ref per document row
// that links a PDF, preserving listing order. Fetch or parse failures are
// returned to the caller; the pipeline treats them as fatal for the run.
func (l *HTMLListing) ListDocuments(ctx context.Context) ([]document.Ref, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.listingURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "list", "build listing request", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "source", "list", "fetch listing page", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrTransient, "source", "list",
			fmt.Sprintf("listing returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	page, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "source", "list", "parse listing html", err)
	}

	var refs []document.Ref
	page.Find(l.selectors.Row).Each(func(_ int, row *goquery.Selection) {
		href := pdfHref(row)
		if href == "" {
			return
		}
		docURL := href
		if strings.HasPrefix(href, "/") {
			docURL = l.baseURL + href
		}

		title := strings.TrimSpace(row.Find(l.selectors.Title).First().Text())
		published := strings.TrimSpace(row.Find(l.selectors.Published).First().Text())
		refs = append(refs, document.NewRef(docURL, title, published))
	})

	l.logger.Debug("listing fetched", logging.Int("documents", len(refs)))
	return refs, nil
}

// pdfHref returns the first anchor href in the row that points at a PDF.
func pdfHref(row *goquery.Selection) string {
	var href string
	row.Find("a").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		value, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		if strings.HasSuffix(strings.ToLower(strings.TrimSpace(value)), ".pdf") {
			href = strings.TrimSpace(value)
			return false
		}
		return true
	})
	return href
}

var _ Source = (*HTMLListing)(nil)
