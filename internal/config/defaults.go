package config

const (
	defaultWorkDir            = "~/.local/share/gazette/work"
	defaultProcessedFile      = "~/.local/share/gazette/processed_docs.json"
	defaultHistoryDB          = "~/.local/share/gazette/history.db"
	defaultLogDir             = "~/.local/share/gazette/logs"
	defaultLockFile           = "~/.local/share/gazette/gazette.lock"
	defaultUserAgent          = "Mozilla/5.0 (compatible; gazette/1.0)"
	defaultRowSelector        = "li.document-row"
	defaultTitleSelector      = "div.title"
	defaultDateSelector       = "div.published span.date-display-single"
	defaultRequestTimeout     = 30
	defaultRenderBinary       = "pdftoppm"
	defaultRenderDPI          = 150
	defaultRenderTimeout      = 120
	defaultRetryAttempts      = 3
	defaultRetryBaseDelay     = 1
	defaultBatchSize          = 4
	defaultMaxTitleLength     = 200
	defaultMaxTotalLength     = 300
	defaultReservedURLSuffix  = 50
	defaultNotifyTimeout      = 10
	defaultPollInterval       = 300
	defaultErrorRetryInterval = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:       defaultWorkDir,
			ProcessedFile: defaultProcessedFile,
			HistoryDB:     defaultHistoryDB,
			LogDir:        defaultLogDir,
			LockFile:      defaultLockFile,
		},
		Source: Source{
			UserAgent:      defaultUserAgent,
			RowSelector:    defaultRowSelector,
			TitleSelector:  defaultTitleSelector,
			DateSelector:   defaultDateSelector,
			RequestTimeout: defaultRequestTimeout,
		},
		Render: Render{
			Binary:  defaultRenderBinary,
			DPI:     defaultRenderDPI,
			Timeout: defaultRenderTimeout,
		},
		Publish: Publish{
			RetryAttempts:  defaultRetryAttempts,
			RetryBaseDelay: defaultRetryBaseDelay,
		},
		Notifications: Notifications{
			RequestTimeout:    defaultNotifyTimeout,
			RunStarted:        true,
			DocumentPublished: true,
			DocumentFailed:    true,
			RunCompleted:      true,
			Errors:            true,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultCaption returns the caption budgets applied when a destination
// leaves them unset.
func DefaultCaption() Caption {
	return Caption{
		MaxTitleLength:       defaultMaxTitleLength,
		MaxTotalLength:       defaultMaxTotalLength,
		ReservedForURLSuffix: defaultReservedURLSuffix,
	}
}
