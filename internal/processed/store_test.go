package processed_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gazette/internal/document"
	"gazette/internal/logging"
	"gazette/internal/processed"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "processed_docs.json")
}

func TestLoadMissingFileReturnsEmptySet(t *testing.T) {
	store, err := processed.Load(storePath(t), logging.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty set, got %d entries", store.Len())
	}
}

func TestLoadCorruptFileBacksUpAndStartsEmpty(t *testing.T) {
	path := storePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store, err := processed.Load(path, logging.NewNop())
	if err != nil {
		t.Fatalf("load should not fail on corruption: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty set, got %d entries", store.Len())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var backup string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "processed_docs.json.bak.") {
			backup = entry.Name()
		}
	}
	if backup == "" {
		t.Fatal("expected a timestamped backup file")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original file renamed away, stat err = %v", err)
	}
}

func TestContainsMatchesURLOrFilename(t *testing.T) {
	path := storePath(t)
	seed := []string{"https://example.com/docs/decision.pdf"}
	data, _ := json.Marshal(seed)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := processed.Load(path, logging.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	sameURL := document.NewRef("HTTPS://EXAMPLE.COM/docs/Decision.PDF", "", "")
	if !store.Contains(sameURL) {
		t.Fatal("expected URL match after normalization")
	}

	movedFile := document.NewRef("https://mirror.example.com/archive/decision.pdf", "", "")
	if !store.Contains(movedFile) {
		t.Fatal("expected filename match for moved document")
	}

	fresh := document.NewRef("https://example.com/docs/other.pdf", "", "")
	if store.Contains(fresh) {
		t.Fatal("unexpected match for new document")
	}
}

func TestAppendDoesNotDeduplicate(t *testing.T) {
	store, err := processed.Load(storePath(t), logging.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ref := document.NewRef("https://example.com/docs/decision.pdf", "", "")
	store.Append(ref)
	store.Append(ref)

	if store.Len() != 2 {
		t.Fatalf("expected duplicate entries preserved, got %d", store.Len())
	}
}

func TestFlushWritesOrderedJSONArray(t *testing.T) {
	path := storePath(t)
	store, err := processed.Load(path, logging.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	store.Append(document.NewRef("https://example.com/docs/b.pdf", "", ""))
	store.Append(document.NewRef("https://example.com/docs/a.pdf", "", ""))
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"https://example.com/docs/b.pdf", "https://example.com/docs/a.pdf"}
	if len(urls) != len(want) || urls[0] != want[0] || urls[1] != want[1] {
		t.Fatalf("unexpected persisted order %v", urls)
	}
}

func TestFlushEmptySetWritesEmptyArray(t *testing.T) {
	path := storePath(t)
	store, err := processed.Load(path, logging.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("expected empty array, got %q", raw)
	}
}
