package processed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"gazette/internal/document"
	"gazette/internal/logging"
)

// Store tracks published documents in an ordered URL list backed by a JSON
// file. The filename set is always exactly the set of basenames of the URL
// list: it is recomputed on load and extended on append, never mutated
// independently.
type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.Mutex
	urls      []string
	filenames map[string]struct{}
}

// Load reads persisted state from path. A corrupt or unreadable existing file
// is renamed aside to a timestamped backup and replaced by an empty set;
// corruption is self-healing, not fatal.
func Load(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("processed store path required")
	}
	logger = logging.NewComponentLogger(logger, "processed")

	s := &Store{
		path:      path,
		logger:    logger,
		filenames: make(map[string]struct{}),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		s.backupCorrupt(err)
		return s, nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		s.backupCorrupt(err)
		return s, nil
	}

	for _, raw := range urls {
		normalized := document.NormalizeURL(raw)
		s.urls = append(s.urls, normalized)
		if name := document.FilenameFromURL(normalized); name != "" {
			s.filenames[name] = struct{}{}
		}
	}
	return s, nil
}

func (s *Store) backupCorrupt(cause error) {
	backup := fmt.Sprintf("%s.bak.%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Warn("failed to back up unreadable processed set",
			logging.Error(err),
			logging.String(logging.FieldEventType, "processed_backup_failed"),
			logging.String(logging.FieldErrorHint, "remove or fix the file manually"),
		)
		return
	}
	s.logger.Warn("processed set unreadable; starting empty",
		logging.Error(cause),
		logging.String("backup", backup),
		logging.String(logging.FieldEventType, "processed_reset"),
	)
}

// Contains reports whether the ref's normalized URL or derived filename is
// already recorded. Either predicate alone counts as processed: the filename
// match catches URLs with superficial formatting differences.
func (s *Store) Contains(ref document.Ref) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, url := range s.urls {
		if url == ref.ID {
			return true
		}
	}
	_, ok := s.filenames[ref.Filename()]
	return ok
}

// Append records the ref's normalized URL and filename in memory. It does not
// deduplicate: re-appending an entry grows the list.
func (s *Store) Append(ref document.Ref) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls = append(s.urls, ref.ID)
	if name := ref.Filename(); name != "" {
		s.filenames[name] = struct{}{}
	}
}

// Flush writes the URL list verbatim to the backing file as a JSON array.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := s.urls
	if urls == nil {
		urls = []string{}
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode processed set: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write processed set: %w", err)
	}
	return nil
}

// Len returns the number of recorded URL entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// URLs returns a copy of the ordered URL list.
func (s *Store) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(s.urls))
	copy(cp, s.urls)
	return cp
}
