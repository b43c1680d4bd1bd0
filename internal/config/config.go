package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	WorkDir       string `toml:"work_dir"`
	ProcessedFile string `toml:"processed_file"`
	HistoryDB     string `toml:"history_db"`
	LogDir        string `toml:"log_dir"`
	LockFile      string `toml:"lock_file"`
	EnvFile       string `toml:"env_file"`
}

// Source contains the document listing page settings.
type Source struct {
	ListingURL     string `toml:"listing_url"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	RowSelector    string `toml:"row_selector"`
	TitleSelector  string `toml:"title_selector"`
	DateSelector   string `toml:"date_selector"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Render contains rasterizer settings.
type Render struct {
	Binary  string `toml:"binary"`
	DPI     int    `toml:"dpi"`
	Timeout int    `toml:"timeout"`
}

// Publish contains settings shared by every destination.
type Publish struct {
	Hashtags       []string `toml:"hashtags"`
	RetryAttempts  int      `toml:"retry_attempts"`
	RetryBaseDelay int      `toml:"retry_base_delay"`
}

// Caption contains per-destination caption length budgets, in runes.
type Caption struct {
	MaxTitleLength       int `toml:"max_title_length"`
	MaxTotalLength       int `toml:"max_total_length"`
	ReservedForURLSuffix int `toml:"reserved_for_url_suffix"`
}

// Destination configures one publish target. Credentials maps adapter field
// names to environment variable names; the values themselves are resolved at
// startup, never stored here.
type Destination struct {
	Kind        string            `toml:"kind"`
	Enabled     *bool             `toml:"enabled"`
	BatchSize   int               `toml:"batch_size"`
	Endpoint    string            `toml:"endpoint"`
	Directory   string            `toml:"directory"`
	Caption     Caption           `toml:"caption"`
	Credentials map[string]string `toml:"credentials"`
}

// IsEnabled reports whether the destination should be built. A destination
// present in the config is enabled unless it says otherwise.
func (d Destination) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	RunStarted        bool   `toml:"run_started"`
	DocumentPublished bool   `toml:"document_published"`
	DocumentFailed    bool   `toml:"document_failed"`
	RunCompleted      bool   `toml:"run_completed"`
	Errors            bool   `toml:"errors"`
}

// Workflow contains watch-mode timing.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gazette.
//
// Configuration sections by subsystem:
//   - Paths: work directory, stores, lock and env files
//   - Source: listing page URL, selectors, user agent
//   - Render: PDF rasterizer binary and options
//   - Publish: global hashtags and retry policy
//   - Destinations: named publish targets with credential env wiring
//   - Notifications: ntfy push notification settings
//   - Workflow: watch-mode polling intervals
//   - Logging: log format and level
type Config struct {
	Paths         Paths                  `toml:"paths"`
	Source        Source                 `toml:"source"`
	Render        Render                 `toml:"render"`
	Publish       Publish                `toml:"publish"`
	Destinations  map[string]Destination `toml:"destinations"`
	Notifications Notifications          `toml:"notifications"`
	Workflow      Workflow               `toml:"workflow"`
	Logging       Logging                `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gazette/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, and the optional .env
// file loaded into the process environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gazette.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadEnvFile loads the configured .env file into the process environment.
// A missing file is not an error; destinations simply resolve against
// whatever the environment already holds.
func (c *Config) loadEnvFile() error {
	path := strings.TrimSpace(c.Paths.EnvFile)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.WorkDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.ProcessedFile),
		filepath.Dir(c.Paths.HistoryDB),
		filepath.Dir(c.Paths.LockFile),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
