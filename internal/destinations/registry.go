package destinations

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gazette/internal/caption"
	"gazette/internal/config"
	"gazette/internal/logging"
	"gazette/internal/publish"
	"gazette/internal/services"
)

// ErrMissingCredentials is returned by factories when a required credential
// field was not supplied. Build treats it as "destination disabled", not as
// a failure.
var ErrMissingCredentials = errors.New("missing credentials")

// Settings carries one destination's resolved configuration into its factory.
// Credentials holds resolved values, never environment variable names.
type Settings struct {
	Name        string
	Endpoint    string
	Directory   string
	Credentials map[string]string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Credential returns the named credential value, or "" when absent.
func (s Settings) Credential(field string) string {
	return s.Credentials[field]
}

// Factory builds a Destination from resolved settings.
type Factory func(Settings) (publish.Destination, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register installs a factory for the given kind. Later registrations of the
// same kind replace earlier ones.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(kind)] = factory
}

// Kinds returns the registered destination kinds, sorted.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func lookup(kind string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[kind]
	return factory, ok
}

// Configured pairs a built destination with its publish parameters.
type Configured struct {
	Destination publish.Destination
	BatchSize   int
	Limits      caption.Limits
}

// Build constructs every enabled destination from the configuration.
// Destinations with unresolvable credentials are skipped with a warning; an
// unknown kind is a configuration error.
func Build(cfg *config.Config, logger *slog.Logger) ([]Configured, error) {
	log := logging.NewComponentLogger(logger, "destinations")

	names := make([]string, 0, len(cfg.Destinations))
	for name := range cfg.Destinations {
		names = append(names, name)
	}
	sort.Strings(names)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	built := make([]Configured, 0, len(names))
	for _, name := range names {
		dest := cfg.Destinations[name]
		if !dest.IsEnabled() {
			log.Info("destination disabled", logging.String(logging.FieldDestination, name))
			continue
		}

		factory, ok := lookup(dest.Kind)
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "destinations", "build",
				"unknown destination kind "+dest.Kind+" for "+name, nil)
		}

		credentials, missing := resolveCredentials(dest.Credentials)
		if len(missing) > 0 {
			log.Warn("credentials not set; destination skipped",
				logging.String(logging.FieldDestination, name),
				logging.String("variables", strings.Join(missing, ",")),
			)
			continue
		}

		settings := Settings{
			Name:        name,
			Endpoint:    dest.Endpoint,
			Directory:   dest.Directory,
			Credentials: credentials,
			HTTPClient:  httpClient,
			Logger:      logger,
		}
		adapter, err := factory(settings)
		if err != nil {
			if errors.Is(err, ErrMissingCredentials) {
				log.Warn("credentials incomplete; destination skipped",
					logging.String(logging.FieldDestination, name),
					logging.Error(err),
				)
				continue
			}
			return nil, services.Wrap(services.ErrConfiguration, "destinations", "build",
				"build destination "+name, err)
		}

		built = append(built, Configured{
			Destination: adapter,
			BatchSize:   dest.BatchSize,
			Limits: caption.Limits{
				MaxTitleLength:       dest.Caption.MaxTitleLength,
				MaxTotalLength:       dest.Caption.MaxTotalLength,
				ReservedForURLSuffix: dest.Caption.ReservedForURLSuffix,
			},
		})
	}
	return built, nil
}

// resolveCredentials reads each field's environment variable. It returns the
// resolved map and the names of any variables that are unset or empty.
func resolveCredentials(wiring map[string]string) (map[string]string, []string) {
	resolved := make(map[string]string, len(wiring))
	var missing []string
	for field, envVar := range wiring {
		value := strings.TrimSpace(os.Getenv(envVar))
		if value == "" {
			missing = append(missing, envVar)
			continue
		}
		resolved[field] = value
	}
	sort.Strings(missing)
	return resolved, missing
}
