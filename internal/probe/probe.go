// Package probe sends a single increment to a target and checks that the
// response has the shape a load run expects.
package probe

import (
	"context"
	"fmt"
	"time"

	httpclient "github.com/wesleyorama2/viewrace/internal/http"
	"github.com/wesleyorama2/viewrace/internal/server"
	"github.com/wesleyorama2/viewrace/pkg/jsonpath"
	"github.com/wesleyorama2/viewrace/pkg/jsonschema"
)

// ErrorMessagePath locates the message in an error body.
const ErrorMessagePath = "$.error"

// Poster sends one POST and returns the captured response.
type Poster interface {
	PostCapture(ctx context.Context, url string) (*httpclient.Response, error)
}

// Result describes one probe.
type Result struct {
	URL           string        `json:"url" yaml:"url"`
	StatusCode    int           `json:"statusCode" yaml:"statusCode"`
	Duration      time.Duration `json:"-" yaml:"-"`
	DurationMs    int64         `json:"durationMs" yaml:"durationMs"`
	ReportedCount int64         `json:"reportedCount" yaml:"reportedCount"`
}

// Check posts once to url. It fails unless the target answers 200 with an
// increment body that matches server.IncrementResponseSchema.
func Check(ctx context.Context, client Poster, url string) (*Result, error) {
	validator, err := jsonschema.Compile(server.IncrementResponseSchema)
	if err != nil {
		return nil, err
	}

	resp, err := client.PostCapture(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	result := &Result{
		URL:        url,
		StatusCode: resp.StatusCode,
		Duration:   resp.Duration,
		DurationMs: resp.GetResponseTimeMillis(),
	}

	if !resp.IsOK() {
		// A failing view-count server puts the strategy error in the body.
		if resp.IsServerError() {
			if msg, err := jsonpath.Extract(string(resp.Body), ErrorMessagePath); err == nil {
				return result, fmt.Errorf("unexpected status %s: %s", resp.Status, msg)
			}
		}
		return result, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := validator.Validate(resp.Body); err != nil {
		return result, fmt.Errorf("response does not match the increment schema: %w", err)
	}

	count, err := jsonpath.ExtractInt(string(resp.Body), server.FinalViewCountPath)
	if err != nil {
		return result, err
	}
	result.ReportedCount = count
	return result, nil
}
