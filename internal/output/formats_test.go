package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/viewrace/internal/loadtest"
)

func testSummaryData() SummaryData {
	return NewSummaryData(
		loadtest.DefaultConfig(),
		&loadtest.Summary{TotalAttempted: 5000, TotalSucceeded: 5000, Elapsed: 2 * time.Second},
		"post:1:view_count",
		"SELECT view_count FROM content WHERE id = 1;",
	)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "yml", want: FormatYAML},
		{in: "junit", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSummary_JSON(t *testing.T) {
	out, err := FormatSummary(testSummaryData(), FormatJSON)
	if err != nil {
		t.Fatalf("FormatSummary() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("FormatSummary() did not return valid JSON: %v", err)
	}

	for _, field := range []string{"targetUrl", "workers", "callsPerWorker", "totalAttempted", "totalSucceeded", "elapsedMs", "cacheKey", "databaseQuery", "timestamp"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("JSON missing field %s", field)
		}
	}
	if decoded["elapsedMs"].(float64) != 2000 {
		t.Errorf("elapsedMs = %v, want 2000", decoded["elapsedMs"])
	}
}

func TestFormatSummary_YAML(t *testing.T) {
	out, err := FormatSummary(testSummaryData(), FormatYAML)
	if err != nil {
		t.Fatalf("FormatSummary() error = %v", err)
	}

	if !strings.Contains(out, "totalSucceeded: 5000") {
		t.Errorf("YAML does not contain expected content:\n%s", out)
	}

	var decoded SummaryData
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("FormatSummary() did not return valid YAML: %v", err)
	}
	if decoded.CacheKey != "post:1:view_count" {
		t.Errorf("cacheKey = %q", decoded.CacheKey)
	}
}

func TestFormatSummary_Text(t *testing.T) {
	if _, err := FormatSummary(testSummaryData(), FormatText); err == nil {
		t.Error("FormatSummary(text) expected error, got nil")
	}
}
