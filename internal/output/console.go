package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/viewrace/internal/loadtest"
)

const bannerWidth = 49

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	// Writer receives banners, warnings and the summary (default: os.Stdout)
	Writer io.Writer

	// ErrWriter receives per-call failure lines (default: os.Stderr)
	ErrWriter io.Writer

	// NoColor disables colour even on a terminal
	NoColor bool

	// ForceColors enables colour even when Writer is not a terminal
	ForceColors bool
}

// Console prints the operator-facing output of a load run.
//
// It implements loadtest.Reporter, so workers write their failure lines
// through it directly. All writes are serialized.
type Console struct {
	out    io.Writer
	errOut io.Writer
	colors *ColorScheme

	mu sync.Mutex
}

// NewConsole creates a new console output handler.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.ErrWriter == nil {
		config.ErrWriter = os.Stderr
	}

	useColors := config.ForceColors ||
		(!config.NoColor && isTerminal(config.Writer) && supportsColors())

	colors := NoColorScheme()
	if useColors {
		colors = DefaultColorScheme()
	}

	return &Console{
		out:    config.Writer,
		errOut: config.ErrWriter,
		colors: colors,
	}
}

// PrintBanner echoes the run configuration before any request is sent.
func (c *Console) PrintBanner(cfg loadtest.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	heavy := strings.Repeat("=", bannerWidth)
	c.writeln(c.colors.Banner.Sprint(heavy))
	c.writeln(c.colors.Banner.Sprint("  Cache/DB mismatch race test starting"))
	c.writeln(c.colors.Banner.Sprint(heavy))
	c.writeln("Test conditions:")
	c.writeln(c.field("  Workers: ", cfg.Workers))
	c.writeln(c.field("  Calls per worker: ", cfg.CallsPerWorker))
	c.writeln(c.field("  Total expected calls: ", cfg.TotalCalls()))
	c.writeln(c.colors.Label.Sprint("  Target URL: ") + c.colors.URL.Sprint(cfg.TargetURL))
	c.writeln(strings.Repeat("-", bannerWidth))
}

// StatusFailure prints the diagnostic for a non-200 response.
func (c *Console) StatusFailure(worker int, statusCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errln(c.colors.Error.Sprintf("Thread %d Error: HTTP Response Code %d", worker, statusCode))
}

// TransportFailure prints the diagnostic for a call that failed on the wire.
func (c *Console) TransportFailure(worker int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errln(c.colors.Error.Sprintf("Thread %d Exception: %v", worker, err))
}

// WaitTimedOut prints a warning that the ceiling timeout expired.
func (c *Console) WaitTimedOut(outstanding int, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln(c.colors.Warning.Sprintf("Warning: %d workers did not finish within %s", outstanding, timeout))
}

// WaitInterrupted prints a warning that waiting was interrupted.
func (c *Console) WaitInterrupted(outstanding int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeln(c.colors.Warning.Sprintf("Warning: interrupted while waiting for %d workers: %v", outstanding, err))
}

// PrintSummary prints the completion banner.
func (c *Console) PrintSummary(summary *loadtest.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	heavy := strings.Repeat("=", bannerWidth)
	succeeded := c.colors.Success
	if summary.TotalSucceeded < summary.TotalAttempted {
		succeeded = c.colors.Warning
	}

	c.writeln("")
	c.writeln(c.colors.Banner.Sprint(heavy))
	c.writeln(c.colors.Banner.Sprint("  Run complete"))
	c.writeln(c.colors.Banner.Sprint(heavy))
	c.writeln(c.field("1. Total calls attempted: ", summary.TotalAttempted))
	c.writeln(c.colors.Label.Sprint("2. Successful responses: ") + succeeded.Sprint(summary.TotalSucceeded))
	c.writeln(c.colors.Label.Sprint("3. Elapsed: ") + c.colors.Value.Sprintf("%d ms", summary.ElapsedMillis()))
}

// PrintReminder names the cache key and database query the operator should
// compare by hand.
func (c *Console) PrintReminder(cacheKey, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln("")
	c.writeln(c.colors.Highlight.Sprint("Next step: read the final cache and database values and look for a mismatch."))
	c.writeln(c.colors.Label.Sprint("  - Redis:    ") + c.colors.Value.Sprint("GET "+cacheKey))
	c.writeln(c.colors.Label.Sprint("  - Database: ") + c.colors.Value.Sprint(query))
}

func (c *Console) field(label string, value interface{}) string {
	return c.colors.Label.Sprint(label) + c.colors.Value.Sprint(value)
}

// writeln writes to the output with a newline.
func (c *Console) writeln(s string) {
	fmt.Fprintln(c.out, s)
}

// errln writes to the error stream with a newline.
func (c *Console) errln(s string) {
	fmt.Fprintln(c.errOut, s)
}

var _ loadtest.Reporter = (*Console)(nil)
