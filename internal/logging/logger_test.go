package logging_test

import (
	"os"
	"strings"
	"testing"

	"gazette/internal/logging"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleOutputIncludesComponentAndFields(t *testing.T) {
	path := t.TempDir() + "/out.log"
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	component := logging.NewComponentLogger(logger, "pipeline")
	component.Info("document published",
		logging.String(logging.FieldDocID, "https://example.com/doc.pdf"),
		logging.Int("pages", 3),
	)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := strings.TrimSpace(string(raw))
	if !strings.Contains(line, "INFO pipeline: document published") {
		t.Fatalf("unexpected log line: %q", line)
	}
	if !strings.Contains(line, "doc_id=https://example.com/doc.pdf") {
		t.Fatalf("missing doc_id field: %q", line)
	}
	if !strings.Contains(line, "pages=3") {
		t.Fatalf("missing pages field: %q", line)
	}
}

func TestValuesWithSpacesAreQuoted(t *testing.T) {
	path := t.TempDir() + "/out.log"
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	logger.Warn("skipping destination", logging.String("reason", "missing credentials"))

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `reason="missing credentials"`) {
		t.Fatalf("expected quoted value, got %q", string(raw))
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should not panic", logging.Error(nil))
}
