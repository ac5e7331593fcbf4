package efuse

import (
	"context"
	"time"
)

// Burn phases reported through ProgressCallback.
const (
	PhaseChecking = "checking"
	PhaseBurning  = "burning"
	PhaseReading  = "reading"
	PhaseComplete = "complete"
)

// Progress contains information about a running BurnAll.
type Progress struct {
	// Phase is one of PhaseChecking, PhaseBurning, PhaseReading or PhaseComplete
	Phase string

	// Block is the id of the block being burned (PhaseBurning only)
	Block int

	// BlocksDone is the number of blocks processed so far
	BlocksDone int

	// TotalBlocks is the number of blocks of the chip
	TotalBlocks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since BurnAll started
	ElapsedTime time.Duration
}

// ProgressCallback is called during BurnAll to report progress.
// Implementations should return quickly.
//
// Example:
//
//	efuses := efuse.New(transport, chip,
//	    efuse.WithProgressCallback(func(p efuse.Progress) {
//	        fmt.Printf("[%s] %.0f%% block %d\n", p.Phase, p.Percentage, p.Block)
//	    }),
//	)
type ProgressCallback func(Progress)

// ConfirmFunc is asked before anything is burned. Returning false aborts
// the burn with ErrAborted. It may block for as long as a human needs.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Logger receives every message the package produces.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	efuses := efuse.New(transport, chip, efuse.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
