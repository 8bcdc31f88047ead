package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/viewrace/internal/loadtest"
)

// OutputFormat represents the available summary formats
type OutputFormat string

const (
	// FormatText is the default human-readable banner
	FormatText OutputFormat = "text"
	// FormatJSON outputs the summary as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs the summary as YAML
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat converts a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// SummaryData is the machine-readable form of a run summary.
type SummaryData struct {
	TargetURL      string `json:"targetUrl" yaml:"targetUrl"`
	Workers        int    `json:"workers" yaml:"workers"`
	CallsPerWorker int    `json:"callsPerWorker" yaml:"callsPerWorker"`
	TotalAttempted int64  `json:"totalAttempted" yaml:"totalAttempted"`
	TotalSucceeded int64  `json:"totalSucceeded" yaml:"totalSucceeded"`
	ElapsedMillis  int64  `json:"elapsedMs" yaml:"elapsedMs"`
	CacheKey       string `json:"cacheKey" yaml:"cacheKey"`
	DatabaseQuery  string `json:"databaseQuery" yaml:"databaseQuery"`
	Timestamp      string `json:"timestamp" yaml:"timestamp"`
}

// NewSummaryData combines the run configuration, its summary and the
// inspection hints into one record.
func NewSummaryData(cfg loadtest.Config, summary *loadtest.Summary, cacheKey, query string) SummaryData {
	return SummaryData{
		TargetURL:      cfg.TargetURL,
		Workers:        cfg.Workers,
		CallsPerWorker: cfg.CallsPerWorker,
		TotalAttempted: summary.TotalAttempted,
		TotalSucceeded: summary.TotalSucceeded,
		ElapsedMillis:  summary.ElapsedMillis(),
		CacheKey:       cacheKey,
		DatabaseQuery:  query,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
}

// FormatSummary encodes data in the given machine-readable format.
func FormatSummary(data SummaryData, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary: %w", err)
		}
		return string(out) + "\n", nil
	case FormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("format %q has no encoded form", format)
	}
}
