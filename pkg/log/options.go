package log

// Options contains configuration settings for the logger.
type Options struct {
	// Name is an optional name for the logger, added as a field to each entry.
	Name string

	// Level is the minimum log level to output: 'debug', 'info', 'warn', 'error'.
	Level string

	// Format specifies the log output format: 'json' or 'console'.
	Format string

	// EnableColor enables colorized output for console format.
	EnableColor bool

	// DisableCaller stops annotating logs with file name and line number.
	DisableCaller bool

	// CallerSkip increases the number of callers skipped by caller annotation.
	// Useful for building wrappers around the logger.
	CallerSkip int

	// OutputPaths is a list of paths to write logs to. Use "stdout" or
	// "stderr" for console output. Defaults to ["stdout"].
	OutputPaths []string
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
		CallerSkip:  2, // correct for direct usage of the package-level functions
		OutputPaths: []string{"stdout"},
	}
}
