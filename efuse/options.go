package efuse

import "time"

// Config holds the session configuration.
type Config struct {
	// ProgressCallback is called during BurnAll to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for all narration (optional)
	Logger Logger

	// Confirm is asked before burning unless DoNotConfirm is set
	Confirm ConfirmFunc

	// DoNotConfirm burns without asking
	DoNotConfirm bool

	// ForceWriteAlways turns protection and coding scheme errors into
	// logged warnings
	ForceWriteAlways bool

	// Debug enables block dumps and per-register messages
	Debug bool

	// SkipConnect builds the session without reading the chip
	SkipConnect bool

	// IdleTimeout bounds every wait for the controller to become idle
	IdleTimeout time.Duration

	// BurnAttempts is the number of program commands issued per block
	BurnAttempts int

	// ReadChecks is the number of re-reads checked for errors after each
	// program command
	ReadChecks int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		IdleTimeout:  250 * time.Millisecond,
		BurnAttempts: 3,
		ReadChecks:   5,
	}
}

// Option is a functional option for configuring Efuses.
type Option func(*Config)

// WithProgressCallback sets a callback function to track burn progress.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets the logger.
//
// Example:
//
//	efuses := efuse.New(transport, chip, efuse.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithConfirm sets the confirmation callback asked before every burn.
//
// Example:
//
//	efuses := efuse.New(transport, chip,
//	    efuse.WithConfirm(func(ctx context.Context, prompt string) (bool, error) {
//	        return askUser(prompt), nil
//	    }),
//	)
func WithConfirm(confirm ConfirmFunc) Option {
	return func(c *Config) {
		c.Confirm = confirm
	}
}

// WithDoNotConfirm disables the confirmation step.
func WithDoNotConfirm(doNotConfirm bool) Option {
	return func(c *Config) {
		c.DoNotConfirm = doNotConfirm
	}
}

// WithForceWriteAlways downgrades protection violations and forbidden RS
// rewrites to warnings.
func WithForceWriteAlways(force bool) Option {
	return func(c *Config) {
		c.ForceWriteAlways = force
	}
}

// WithDebug enables debug output.
func WithDebug(debug bool) Option {
	return func(c *Config) {
		c.Debug = debug
	}
}

// WithSkipConnect builds the session from the chip description only.
// Blocks read as zero and every calibration field is available.
func WithSkipConnect(skip bool) Option {
	return func(c *Config) {
		c.SkipConnect = skip
	}
}

// WithIdleTimeout sets the controller idle timeout.
//
// Example:
//
//	efuses := efuse.New(transport, chip, efuse.WithIdleTimeout(time.Second))
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.IdleTimeout = timeout
		}
	}
}

// WithBurnAttempts sets the number of program commands per block.
func WithBurnAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.BurnAttempts = attempts
		}
	}
}
