package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gazette/internal/caption"
	"gazette/internal/destinations"
	"gazette/internal/document"
	"gazette/internal/history"
	"gazette/internal/logging"
	"gazette/internal/notifications"
	"gazette/internal/processed"
	"gazette/internal/publish"
	"gazette/internal/render"
	"gazette/internal/services"
	"gazette/internal/source"
)

// Options collects the collaborators a Runner needs. History may be nil;
// Notifier defaults to a noop when unset.
type Options struct {
	Source       source.Source
	Store        *processed.Store
	Renderer     render.Renderer
	Publisher    *publish.Publisher
	Destinations []destinations.Configured
	Hashtags     []string
	History      *history.Store
	Notifier     notifications.Service
	Logger       *slog.Logger
	Now          func() time.Time
}

// Summary reports the outcome of one pipeline pass.
type Summary struct {
	RunID      string
	Discovered int
	New        int
	Published  int
	Failed     int
	Duration   time.Duration
}

// Runner executes pipeline passes. It is single-threaded: one document, one
// destination, one image at a time.
type Runner struct {
	source       source.Source
	store        *processed.Store
	renderer     render.Renderer
	publisher    *publish.Publisher
	destinations []destinations.Configured
	hashtags     []string
	history      *history.Store
	notifier     notifications.Service
	logger       *slog.Logger
	now          func() time.Time
}

// New constructs a Runner from options.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:       opts.Source,
		store:        opts.Store,
		renderer:     opts.Renderer,
		publisher:    opts.Publisher,
		destinations: opts.Destinations,
		hashtags:     opts.Hashtags,
		history:      opts.History,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		now:          now,
	}
}

// Run executes one pass. A listing fetch failure is the only error that
// aborts the run; per-document failures are logged and the loop continues.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := r.now()
	summary := Summary{RunID: uuid.NewString()}
	logger := r.logger.With(logging.String(logging.FieldRunID, summary.RunID))

	refs, err := r.source.ListDocuments(ctx)
	if err != nil {
		r.notify(ctx, notifications.EventError, notifications.Payload{
			"context": "listing fetch",
			"error":   err.Error(),
		})
		return summary, services.Wrap(services.ErrTransient, "pipeline", "fetch", "list documents", err)
	}
	summary.Discovered = len(refs)

	fresh := r.filter(refs)
	summary.New = len(fresh)
	logger.Info("listing fetched",
		logging.Int("documents", summary.Discovered),
		logging.Int("new", summary.New),
	)

	if len(fresh) == 0 {
		summary.Duration = r.now().Sub(started)
		return summary, nil
	}

	r.notify(ctx, notifications.EventRunStarted, notifications.Payload{
		"count": strconv.Itoa(len(fresh)),
	})

	for _, ref := range fresh {
		if ctx.Err() != nil {
			break
		}
		if r.processDocument(ctx, logger, summary.RunID, ref) {
			summary.Published++
		} else {
			summary.Failed++
		}
	}

	summary.Duration = r.now().Sub(started)
	r.notify(ctx, notifications.EventRunCompleted, notifications.Payload{
		"published": strconv.Itoa(summary.Published),
		"failed":    strconv.Itoa(summary.Failed),
		"duration":  summary.Duration.Round(time.Second).String(),
	})
	logger.Info("run complete",
		logging.Int("published", summary.Published),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// filter drops already-processed refs and collapses duplicate URLs within the
// listing, keeping first-occurrence order.
func (r *Runner) filter(refs []document.Ref) []document.Ref {
	seen := make(map[string]struct{}, len(refs))
	fresh := make([]document.Ref, 0, len(refs))
	for _, ref := range refs {
		if r.store.Contains(ref) {
			continue
		}
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		seen[ref.ID] = struct{}{}
		fresh = append(fresh, ref)
	}
	return fresh
}

// processDocument renders, publishes, and commits one document. It reports
// whether at least one destination succeeded. Panics from collaborators are
// contained here so one bad document cannot end the run.
func (r *Runner) processDocument(ctx context.Context, logger *slog.Logger, runID string, ref document.Ref) (committed bool) {
	docLogger := logger.With(logging.String(logging.FieldDocID, ref.ID))

	defer func() {
		if recovered := recover(); recovered != nil {
			docLogger.Error("document processing panicked",
				logging.Any("panic", recovered),
			)
			committed = false
		}
	}()

	pages, err := r.renderer.Render(ctx, ref)
	if err != nil {
		docLogger.Error("render failed; skipping document", logging.Error(err))
		r.notify(ctx, notifications.EventError, notifications.Payload{
			"context": "render " + ref.Filename(),
			"error":   err.Error(),
		})
		return false
	}
	defer render.Cleanup(pages)

	var succeeded []string
	for _, dest := range r.destinations {
		content := caption.Build(ref, dest.Limits, r.hashtags, r.now())
		result := r.publisher.Publish(ctx, dest.Destination, dest.BatchSize, pages, content)
		r.record(ctx, docLogger, runID, ref, result)
		if result.Success {
			succeeded = append(succeeded, result.Destination)
		} else {
			docLogger.Warn("destination failed",
				logging.String(logging.FieldDestination, result.Destination),
				logging.Error(result.Err),
			)
		}
	}

	if len(succeeded) == 0 {
		docLogger.Warn("no destination succeeded; document stays unprocessed")
		r.notify(ctx, notifications.EventDocumentFailed, notifications.Payload{
			"title": ref.Title,
		})
		return false
	}

	r.store.Append(ref)
	if err := r.store.Flush(); err != nil {
		docLogger.Error("flush processed set failed", logging.Error(err))
	}
	docLogger.Info("document published",
		logging.String("destinations", strings.Join(succeeded, ",")),
		logging.Int("pages", len(pages)),
	)
	r.notify(ctx, notifications.EventDocumentPublished, notifications.Payload{
		"title":        ref.Title,
		"destinations": strings.Join(succeeded, ", "),
	})
	return true
}

// record writes one destination attempt to the history store. Failures here
// are logged, never propagated.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID string, ref document.Ref, result publish.Result) {
	if r.history == nil {
		return
	}
	entry := history.Entry{
		RunID:       runID,
		DocID:       ref.ID,
		Title:       ref.Title,
		Destination: result.Destination,
		Success:     result.Success,
		RootPost:    string(result.RootPost),
	}
	if result.Err != nil {
		entry.ErrorText = result.Err.Error()
	}
	if err := r.history.Record(ctx, entry); err != nil {
		logger.Warn("record history failed", logging.Error(err))
	}
}

func (r *Runner) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		r.logger.Warn("notification failed",
			logging.String(logging.FieldEventType, string(event)),
			logging.Error(err),
		)
	}
}
