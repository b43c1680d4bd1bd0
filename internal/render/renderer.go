package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gazette/internal/document"
	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/textutil"
)

var commandContext = exec.CommandContext

// Page is one rendered page image. Pages are ephemeral: the pipeline deletes
// them after all destinations have been attempted.
type Page struct {
	Index int
	Path  string
}

// Renderer turns a document reference into ordered page images.
type Renderer interface {
	Render(ctx context.Context, ref document.Ref) ([]Page, error)
}

// CLI downloads the PDF and rasterizes it with an external binary
// (pdftoppm by default).
type CLI struct {
	binary  string
	workDir string
	dpi     int
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// Option configures the CLI renderer.
type Option func(*CLI)

// WithBinary overrides the default rasterizer binary.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithDPI overrides the default render resolution.
func WithDPI(dpi int) Option {
	return func(c *CLI) {
		if dpi > 0 {
			c.dpi = dpi
		}
	}
}

// WithTimeout bounds one render end to end, download and rasterization
// together. A hung rasterizer is killed when the deadline passes.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient overrides the client used to download documents.
func WithHTTPClient(client *http.Client) Option {
	return func(c *CLI) {
		if client != nil {
			c.client = client
		}
	}
}

// NewCLI constructs a renderer writing page images under workDir.
func NewCLI(workDir string, logger *slog.Logger, opts ...Option) *CLI {
	cli := &CLI{
		binary:  "pdftoppm",
		workDir: workDir,
		dpi:     150,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logging.NewComponentLogger(logger, "render"),
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Render downloads ref's PDF, rasterizes it to JPEG pages, removes the
// downloaded PDF, and returns the pages in page order.
func (c *CLI) Render(ctx context.Context, ref document.Ref) ([]Page, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "render", "prepare", "create work directory", err)
	}

	pdfPath, err := c.download(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer os.Remove(pdfPath)

	prefix := filepath.Join(c.workDir, pagePrefix(ref))
	args := []string{"-jpeg", "-r", strconv.Itoa(c.dpi), pdfPath, prefix}
	cmd := commandContext(ctx, c.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render", "rasterize",
			strings.TrimSpace(string(output)), err)
	}

	pages, err := collectPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "render", "rasterize", "no pages produced", nil)
	}

	c.logger.Debug("document rendered",
		logging.String(logging.FieldDocID, ref.ID),
		logging.Int("pages", len(pages)),
	)
	return pages, nil
}

func (c *CLI) download(ctx context.Context, ref document.Ref) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.SourceURL, nil)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "render", "download", "build request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "render", "download", "fetch document", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "render", "download",
			fmt.Sprintf("document fetch returned %d", resp.StatusCode), nil)
	}

	pdfPath := filepath.Join(c.workDir, textutil.SanitizeFileName(ref.Filename()))
	out, err := os.Create(pdfPath)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "render", "download", "create file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(pdfPath)
		return "", services.Wrap(services.ErrTransient, "render", "download", "write document", err)
	}
	return pdfPath, nil
}

// pagePrefix derives the rasterizer output prefix from the document filename.
// The prefix feeds a glob later, so metacharacters must not survive.
func pagePrefix(ref document.Ref) string {
	name := ref.Filename()
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return textutil.SanitizeToken(name) + "-page"
}

// collectPages gathers rasterizer output files and orders them by the page
// number the tool appends to the prefix.
func collectPages(prefix string) ([]Page, error) {
	matches, err := filepath.Glob(prefix + "-*.jpg")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "render", "collect", "glob pages", err)
	}

	pages := make([]Page, 0, len(matches))
	for _, match := range matches {
		base := strings.TrimSuffix(filepath.Base(match), ".jpg")
		numPart := base[strings.LastIndex(base, "-")+1:]
		num, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		pages = append(pages, Page{Index: num, Path: match})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	for i := range pages {
		pages[i].Index = i
	}
	return pages, nil
}

// Cleanup removes rendered page files best-effort. The pipeline calls it
// unconditionally after publishing, regardless of outcome.
func Cleanup(pages []Page) {
	for _, page := range pages {
		_ = os.Remove(page.Path)
	}
}

var _ Renderer = (*CLI)(nil)
