package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	seed    bool
	console io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSeed creates the demo project when the data root has no projects.
func WithSeed(seed bool) Option {
	return func(a *application) {
		a.seed = seed
	}
}

// WithConsole sets where log records are mirrored besides the log file.
func WithConsole(w io.Writer) Option {
	return func(a *application) {
		a.console = w
	}
}
