// Package loadtest fires a fixed number of POST requests from a fixed pool of
// concurrent workers and counts the HTTP 200 responses.
package loadtest

import (
	"net/url"
	"time"
)

const (
	// DefaultPostID is the post whose view count the run drives up.
	DefaultPostID = 1

	// DefaultTargetURL is the view-counter increment endpoint under test.
	// Its last path segment is DefaultPostID.
	DefaultTargetURL = "http://127.0.0.1:5000/api/view/increment/1"

	// DefaultWorkers is the number of concurrent workers.
	DefaultWorkers = 50

	// DefaultCallsPerWorker is the number of sequential calls each worker makes.
	DefaultCallsPerWorker = 100

	// DefaultWaitTimeout is the ceiling on how long the coordinator waits for workers.
	DefaultWaitTimeout = 5 * time.Minute
)

// Config describes one load-generation run.
type Config struct {
	// TargetURL receives every POST
	TargetURL string `json:"targetUrl" yaml:"targetUrl"`

	// Workers is the degree of concurrency and the pool size
	Workers int `json:"workers" yaml:"workers"`

	// CallsPerWorker is the number of sequential calls per worker
	CallsPerWorker int `json:"callsPerWorker" yaml:"callsPerWorker"`

	// WaitTimeout bounds the coordinator's wait for all workers
	WaitTimeout time.Duration `json:"waitTimeout" yaml:"waitTimeout"`
}

// DefaultConfig returns the compiled-in run configuration.
func DefaultConfig() Config {
	return Config{
		TargetURL:      DefaultTargetURL,
		Workers:        DefaultWorkers,
		CallsPerWorker: DefaultCallsPerWorker,
		WaitTimeout:    DefaultWaitTimeout,
	}
}

// TotalCalls is the number of calls the run attempts.
func (c Config) TotalCalls() int64 {
	return int64(c.Workers) * int64(c.CallsPerWorker)
}

// Validate validates the run configuration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return &ValidationError{Field: "workers", Message: "workers must be >= 1"}
	}
	if c.CallsPerWorker < 1 {
		return &ValidationError{Field: "callsPerWorker", Message: "callsPerWorker must be >= 1"}
	}
	if c.WaitTimeout <= 0 {
		return &ValidationError{Field: "waitTimeout", Message: "waitTimeout must be > 0"}
	}

	u, err := url.Parse(c.TargetURL)
	if err != nil {
		return &ValidationError{Field: "targetUrl", Message: "invalid URL: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "targetUrl", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "targetUrl", Message: "host is required"}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}
