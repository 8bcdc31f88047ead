package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/wesleyorama2/viewrace/internal/viewcount"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

// Error returns all messages, one per line
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration:\n  " + strings.Join(msgs, "\n  ")
}

// Validate checks the configuration and returns ValidationErrors if anything is wrong.
func (c *ServeConfig) Validate() error {
	var errors ValidationErrors

	if c.Listen == "" {
		errors = append(errors, ValidationError{Path: "listen", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errors = append(errors, ValidationError{Path: "listen", Message: fmt.Sprintf("invalid listen address: %v", err)})
	}

	if _, err := viewcount.Lookup(c.Strategy); err != nil {
		errors = append(errors, ValidationError{
			Path:    "strategy",
			Message: fmt.Sprintf("unknown strategy %q (available: %s)", c.Strategy, strings.Join(viewcount.Names(), ", ")),
		})
	}

	if c.PostID < 1 {
		errors = append(errors, ValidationError{Path: "post_id", Message: "post id must be positive"})
	}

	if c.Delay < 0 {
		errors = append(errors, ValidationError{Path: "delay", Message: "delay cannot be negative"})
	}

	if c.Redis.Addr == "" {
		errors = append(errors, ValidationError{Path: "redis.addr", Message: "redis address is required"})
	}
	if c.Redis.DB < 0 {
		errors = append(errors, ValidationError{Path: "redis.db", Message: "redis db cannot be negative"})
	}

	if c.Database.DSN == "" {
		errors = append(errors, ValidationError{Path: "database.dsn", Message: "database dsn is required"})
	}

	switch c.Log.Mode {
	case "production", "development":
	default:
		errors = append(errors, ValidationError{
			Path:    "log.mode",
			Message: fmt.Sprintf("invalid log mode: %s (want production or development)", c.Log.Mode),
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
