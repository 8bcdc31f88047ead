package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validConfig() ServeConfig {
	return ServeConfig{
		Listen:   ":5000",
		Strategy: "cache-aside",
		PostID:   1,
		Delay:    50 * time.Millisecond,
		Redis:    RedisConfig{Addr: "127.0.0.1:6379"},
		Database: DatabaseConfig{DSN: "postgres://localhost/viewrace"},
		Log:      LogConfig{Mode: "production"},
	}
}

// TestValidationError_Error tests the ValidationError.Error() method
func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "standard error",
			err:      ValidationError{Path: "redis.addr", Message: "redis address is required"},
			expected: "redis.addr: redis address is required",
		},
		{
			name:     "empty path",
			err:      ValidationError{Path: "", Message: "some error"},
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Expected '%s' but got '%s'", tt.expected, result)
			}
		})
	}
}

func TestServeConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *ServeConfig)
		wantPaths []string
	}{
		{name: "valid", mutate: func(c *ServeConfig) {}},
		{name: "zero delay is allowed", mutate: func(c *ServeConfig) { c.Delay = 0 }},
		{name: "development log mode", mutate: func(c *ServeConfig) { c.Log.Mode = "development" }},
		{name: "missing listen", mutate: func(c *ServeConfig) { c.Listen = "" }, wantPaths: []string{"listen"}},
		{name: "listen without port", mutate: func(c *ServeConfig) { c.Listen = "localhost" }, wantPaths: []string{"listen"}},
		{name: "unknown strategy", mutate: func(c *ServeConfig) { c.Strategy = "optimistic" }, wantPaths: []string{"strategy"}},
		{name: "zero post id", mutate: func(c *ServeConfig) { c.PostID = 0 }, wantPaths: []string{"post_id"}},
		{name: "negative delay", mutate: func(c *ServeConfig) { c.Delay = -time.Second }, wantPaths: []string{"delay"}},
		{name: "bad log mode", mutate: func(c *ServeConfig) { c.Log.Mode = "debug" }, wantPaths: []string{"log.mode"}},
		{
			name: "collects every error",
			mutate: func(c *ServeConfig) {
				c.Redis.Addr = ""
				c.Redis.DB = -1
				c.Database.DSN = ""
			},
			wantPaths: []string{"redis.addr", "redis.db", "database.dsn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if len(tt.wantPaths) == 0 {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if len(verrs) != len(tt.wantPaths) {
				t.Fatalf("Validate() returned %d errors, want %d: %v", len(verrs), len(tt.wantPaths), verrs)
			}
			for i, path := range tt.wantPaths {
				if verrs[i].Path != path {
					t.Errorf("error[%d].Path = %q, want %q", i, verrs[i].Path, path)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	err := ValidationErrors{
		{Path: "listen", Message: "listen address is required"},
		{Path: "post_id", Message: "post id must be positive"},
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, "invalid configuration:") {
		t.Errorf("Error() = %q, want invalid configuration prefix", msg)
	}
	if !strings.Contains(msg, "listen: listen address is required") || !strings.Contains(msg, "post_id: post id must be positive") {
		t.Errorf("Error() = %q, missing entries", msg)
	}
}
