package loadtest

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	httpclient "github.com/wesleyorama2/viewrace/internal/http"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("generator already started")

// Poster performs a single bare POST request. A non-nil Response means a
// status line arrived, even when err reports a later failure.
type Poster interface {
	Post(ctx context.Context, url string) (*httpclient.Response, error)
}

// Generator runs a fixed pool of workers, each making a fixed number of
// sequential POST calls against one target.
//
// Concurrency comes only from running the workers side by side. Within a
// worker, call i+1 begins after call i has returned. The success counter is
// the only state shared between workers and is updated atomically.
//
// # Abandonment
//
// The coordinator stops waiting when every worker has returned, when the
// ceiling timeout expires, or when the context passed to Run ends. In the
// last two cases outstanding workers keep running: their requests are issued
// on a context detached from Run's cancellation, and the summary reports the
// counter's value at the moment waiting stopped.
type Generator struct {
	config   Config
	client   Poster
	reporter Reporter

	// State
	started       atomic.Bool
	succeeded     atomic.Int64
	activeWorkers atomic.Int32
}

// Option configures a Generator.
type Option func(*Generator)

// WithReporter sets the diagnostics sink.
func WithReporter(r Reporter) Option {
	return func(g *Generator) {
		g.reporter = r
	}
}

// WithHTTPClient replaces the client used for every call.
func WithHTTPClient(p Poster) Option {
	return func(g *Generator) {
		g.client = p
	}
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		config:   cfg,
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = httpclient.NewClient()
	}
	if g.reporter == nil {
		g.reporter = nopReporter{}
	}

	return g, nil
}

// Config returns the run configuration.
func (g *Generator) Config() Config {
	return g.config
}

// Run starts the workers and blocks until they finish, the ceiling timeout
// expires, or ctx ends. A Generator can only be run once.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	if !g.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	start := time.Now()
	workCtx := context.WithoutCancel(ctx)

	var group errgroup.Group
	group.SetLimit(g.config.Workers)

	for i := 0; i < g.config.Workers; i++ {
		id := i
		g.activeWorkers.Add(1)
		group.Go(func() error {
			defer g.activeWorkers.Add(-1)
			g.runWorker(workCtx, id)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		group.Wait()
		close(done)
	}()

	timer := time.NewTimer(g.config.WaitTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		g.reporter.WaitTimedOut(g.ActiveWorkers(), g.config.WaitTimeout)
	case <-ctx.Done():
		g.reporter.WaitInterrupted(g.ActiveWorkers(), ctx.Err())
	}

	return &Summary{
		TotalAttempted: g.config.TotalCalls(),
		TotalSucceeded: g.succeeded.Load(),
		Elapsed:        time.Since(start),
	}, nil
}

// runWorker makes the worker's calls one after another. Failures are
// reported and never stop the loop.
func (g *Generator) runWorker(ctx context.Context, id int) {
	for i := 0; i < g.config.CallsPerWorker; i++ {
		resp, err := g.client.Post(ctx, g.config.TargetURL)
		if resp == nil {
			g.reporter.TransportFailure(id, err)
			continue
		}

		// Success is the status code alone; a body that fails to drain
		// afterwards is still reported.
		if resp.IsOK() {
			g.succeeded.Add(1)
		} else {
			g.reporter.StatusFailure(id, resp.StatusCode)
		}
		if err != nil {
			g.reporter.TransportFailure(id, err)
		}
	}
}

// Succeeded returns the current value of the success counter.
func (g *Generator) Succeeded() int64 {
	return g.succeeded.Load()
}

// ActiveWorkers returns the number of workers that have not yet returned.
func (g *Generator) ActiveWorkers() int {
	return int(g.activeWorkers.Load())
}
