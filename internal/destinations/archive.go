package destinations

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gazette/internal/caption"
	"gazette/internal/fileutil"
	"gazette/internal/publish"
	"gazette/internal/textutil"
)

func init() {
	Register("archive", newArchive)
}

// archiveDestination writes posts to a local directory instead of a remote
// service. Each post becomes a JSON file next to copies of its images.
// Useful for dry runs and for keeping a local record alongside the real
// destinations.
type archiveDestination struct {
	name string
	dir  string
	seq  int
}

func newArchive(settings Settings) (publish.Destination, error) {
	if settings.Directory == "" {
		return nil, fmt.Errorf("archive destination %s: directory must be set", settings.Name)
	}
	return &archiveDestination{name: settings.Name, dir: settings.Directory}, nil
}

func (a *archiveDestination) Name() string { return a.name }

func (a *archiveDestination) Authenticate(context.Context) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	return nil
}

func (a *archiveDestination) UploadImage(_ context.Context, path string) (publish.MediaHandle, error) {
	a.seq++
	name := fmt.Sprintf("%d-%02d-%s", time.Now().Unix(), a.seq, textutil.SanitizeFileName(filepath.Base(path)))
	if err := fileutil.CopyFileVerified(path, filepath.Join(a.dir, name)); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	return publish.MediaHandle(name), nil
}

type archivedPost struct {
	Text        string             `json:"text"`
	LinkSpans   []caption.LinkSpan `json:"link_spans,omitempty"`
	TagSpans    []caption.TagSpan  `json:"tag_spans,omitempty"`
	Media       []string           `json:"media"`
	ReplyRoot   string             `json:"reply_root,omitempty"`
	ReplyParent string             `json:"reply_parent,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (a *archiveDestination) CreatePost(_ context.Context, content caption.Caption, media []publish.MediaHandle, reply *publish.Reply) (publish.PostRef, error) {
	post := archivedPost{
		Text:      content.Body,
		LinkSpans: content.LinkSpans,
		TagSpans:  content.TagSpans,
		Media:     make([]string, 0, len(media)),
		CreatedAt: time.Now().UTC(),
	}
	for _, handle := range media {
		post.Media = append(post.Media, string(handle))
	}
	if reply != nil {
		post.ReplyRoot = string(reply.Root)
		post.ReplyParent = string(reply.Parent)
	}

	encoded, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("post-%d-%02d.json", time.Now().Unix(), a.seq)
	if err := os.WriteFile(filepath.Join(a.dir, name), encoded, 0o644); err != nil {
		return "", fmt.Errorf("write post: %w", err)
	}
	return publish.PostRef(name), nil
}
