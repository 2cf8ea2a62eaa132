package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	watch  bool
	debug  bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithWatch keeps the sync running, re-triggered by vault file changes.
func WithWatch(enabled bool) Option {
	return func(a *application) {
		a.watch = enabled
	}
}

// WithDebug enables per-step resolution tracing and debug logging.
func WithDebug(enabled bool) Option {
	return func(a *application) {
		a.debug = enabled
	}
}
