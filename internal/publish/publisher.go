package publish

import (
	"context"
	"fmt"
	"log/slog"

	"gazette/internal/caption"
	"gazette/internal/logging"
	"gazette/internal/render"
)

// DefaultBatchSize is used when a destination does not declare a per-post
// image limit.
const DefaultBatchSize = 4

// Publisher drives the batched upload-and-post loop against one destination
// at a time.
type Publisher struct {
	retry  Policy
	logger *slog.Logger
}

// NewPublisher constructs a publisher with the given retry policy.
func NewPublisher(retry Policy, logger *slog.Logger) *Publisher {
	return &Publisher{
		retry:  retry,
		logger: logging.NewComponentLogger(logger, "publish"),
	}
}

// Publish uploads pages to dest in batches of batchSize, posting the full
// caption with the first batch and threading "Continued..." follow-ups as
// replies to the immediately preceding post. All failures fold into the
// returned Result; nothing propagates as an error.
func (p *Publisher) Publish(ctx context.Context, dest Destination, batchSize int, pages []render.Page, content caption.Caption) Result {
	result := Result{Destination: dest.Name()}
	logger := p.logger.With(logging.String(logging.FieldDestination, dest.Name()))

	if len(pages) == 0 {
		result.Err = fmt.Errorf("no pages to publish")
		return result
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := p.retry.Do(ctx, logger, "authenticate", func() error {
		return dest.Authenticate(ctx)
	}); err != nil {
		logger.Warn("authentication failed; skipping destination", logging.Error(err))
		result.Err = fmt.Errorf("authenticate: %w", err)
		return result
	}

	batches := chunkPages(pages, batchSize)
	total := len(batches)

	var root, parent PostRef
	posted := 0
	for k, batch := range batches {
		media := p.uploadBatch(ctx, logger, dest, batch)
		if len(media) == 0 {
			logger.Warn("batch has no uploadable images; skipping",
				logging.Int("batch", k+1),
				logging.Int("batches", total),
			)
			continue
		}

		postCaption := content
		var reply *Reply
		if posted > 0 {
			postCaption = caption.Caption{Body: fmt.Sprintf("Continued... (%d/%d)", k+1, total)}
			reply = &Reply{Root: root, Parent: parent}
		}

		var ref PostRef
		if err := p.retry.Do(ctx, logger, "create post", func() error {
			var postErr error
			ref, postErr = dest.CreatePost(ctx, postCaption, media, reply)
			return postErr
		}); err != nil {
			logger.Warn("post submission failed", logging.Int("batch", k+1), logging.Error(err))
			result.Err = fmt.Errorf("create post %d/%d: %w", k+1, total, err)
			return result
		}

		if posted == 0 {
			root = ref
			result.RootPost = ref
		}
		parent = ref
		posted++
	}

	if posted == 0 {
		result.Err = fmt.Errorf("no batch could be posted")
		return result
	}

	result.Success = true
	logger.Info("published",
		logging.Int("pages", len(pages)),
		logging.Int("posts", posted),
	)
	return result
}

// uploadBatch uploads each image with retries. A failed image is logged and
// excluded; it never aborts the batch on its own.
func (p *Publisher) uploadBatch(ctx context.Context, logger *slog.Logger, dest Destination, batch []render.Page) []MediaHandle {
	media := make([]MediaHandle, 0, len(batch))
	for _, page := range batch {
		var handle MediaHandle
		err := p.retry.Do(ctx, logger, "upload image", func() error {
			var uploadErr error
			handle, uploadErr = dest.UploadImage(ctx, page.Path)
			return uploadErr
		})
		if err != nil {
			logger.Warn("image upload failed; excluding from batch",
				logging.Int("page", page.Index),
				logging.Error(err),
			)
			continue
		}
		media = append(media, handle)
	}
	return media
}

func chunkPages(pages []render.Page, size int) [][]render.Page {
	var batches [][]render.Page
	for start := 0; start < len(pages); start += size {
		end := start + size
		if end > len(pages) {
			end = len(pages)
		}
		batches = append(batches, pages[start:end])
	}
	return batches
}
