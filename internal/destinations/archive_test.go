package destinations_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gazette/internal/caption"
	"gazette/internal/config"
	"gazette/internal/destinations"
	"gazette/internal/logging"
	"gazette/internal/publish"
)

func TestArchiveWritesImagesAndPost(t *testing.T) {
	archiveDir := filepath.Join(t.TempDir(), "archive")
	imagePath := filepath.Join(t.TempDir(), "page-0.jpg")
	if err := os.WriteFile(imagePath, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	cfg := baseConfig(t)
	cfg.Destinations["local"] = config.Destination{
		Kind:      "archive",
		Directory: archiveDir,
		BatchSize: 4,
		Caption:   config.DefaultCaption(),
	}
	built, err := destinations.Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	dest := built[0].Destination

	ctx := context.Background()
	if err := dest.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if _, err := os.Stat(archiveDir); err != nil {
		t.Fatalf("expected archive directory: %v", err)
	}

	handle, err := dest.UploadImage(ctx, imagePath)
	if err != nil {
		t.Fatalf("UploadImage returned error: %v", err)
	}
	copied, err := os.ReadFile(filepath.Join(archiveDir, string(handle)))
	if err != nil {
		t.Fatalf("read archived image: %v", err)
	}
	if string(copied) != "jpeg-bytes" {
		t.Fatalf("unexpected archived contents %q", copied)
	}

	content := caption.Caption{Body: "Title\n\n#f1"}
	ref, err := dest.CreatePost(ctx, content, []publish.MediaHandle{handle}, nil)
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if !strings.HasSuffix(string(ref), ".json") {
		t.Fatalf("unexpected post ref %q", ref)
	}

	raw, err := os.ReadFile(filepath.Join(archiveDir, string(ref)))
	if err != nil {
		t.Fatalf("read archived post: %v", err)
	}
	var post struct {
		Text  string   `json:"text"`
		Media []string `json:"media"`
	}
	if err := json.Unmarshal(raw, &post); err != nil {
		t.Fatalf("unmarshal post: %v", err)
	}
	if post.Text != content.Body || len(post.Media) != 1 || post.Media[0] != string(handle) {
		t.Fatalf("unexpected archived post: %+v", post)
	}
}

func TestArchiveRequiresDirectory(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Destinations["local"] = config.Destination{
		Kind:    "archive",
		Caption: config.DefaultCaption(),
	}
	if _, err := destinations.Build(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for archive without directory")
	}
}
