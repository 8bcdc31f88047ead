package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/viewrace/internal/loadtest"
	"github.com/wesleyorama2/viewrace/pkg/jsonschema"
)

// countingStrategy is an in-memory strategy that never loses an update.
type countingStrategy struct {
	count atomic.Int64
	err   error
	delay time.Duration
}

func (c *countingStrategy) Name() string                      { return "counting" }
func (c *countingStrategy) Prepare(ctx context.Context) error { return nil }

func (c *countingStrategy) Increment(ctx context.Context, postID int64) (int64, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return 0, c.err
	}
	return c.count.Add(1), nil
}

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIncrement_Success(t *testing.T) {
	strategy := &countingStrategy{}
	srv := New(strategy, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/view/increment/1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	valid, errs := jsonschema.ValidateWithErrors(body, IncrementResponseSchema)
	assert.True(t, valid, "schema errors: %v", errs)
	assert.Equal(t, "success", gjson.Get(body, "status").String())
	assert.Equal(t, int64(1), gjson.Get(body, "post_id").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "final_view_count_reported").Int())
}

func TestIncrement_InvalidPostID(t *testing.T) {
	strategy := &countingStrategy{}
	srv := New(strategy, Options{PostID: 1})

	for _, path := range []string{"/api/view/increment/abc", "/api/view/increment/2", "/api/view/increment/-1"} {
		rec := doRequest(t, srv.Handler(), http.MethodPost, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "Invalid Post ID", gjson.Get(rec.Body.String(), "error").String(), path)
	}
	assert.Zero(t, strategy.count.Load())
	assert.Zero(t, srv.Metrics().GetSnapshot().TotalRequests, "rejected ids are not measured")
}

func TestIncrement_StrategyError(t *testing.T) {
	srv := New(&countingStrategy{err: errors.New("redis: connection refused")}, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/view/increment/1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "redis: connection refused", gjson.Get(rec.Body.String(), "error").String())

	snapshot := srv.Metrics().GetSnapshot()
	assert.Equal(t, int64(1), snapshot.FailedRequests)
}

// contextStrategy fails the way a real strategy does when its context ends.
type contextStrategy struct{ countingStrategy }

func (c *contextStrategy) Increment(ctx context.Context, postID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.countingStrategy.Increment(ctx, postID)
}

func TestIncrement_FinishesAfterClientHangsUp(t *testing.T) {
	strategy := &contextStrategy{}
	srv := New(strategy, Options{PostID: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/view/increment/1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), strategy.count.Load())
	assert.Equal(t, int64(0), srv.Metrics().GetSnapshot().FailedRequests)
}

func TestIncrement_WrongMethod(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/api/view/increment/1")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","strategy":"counting"}`, rec.Body.String())
}

func TestStats(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})
	h := srv.Handler()

	for i := 0; i < 3; i++ {
		doRequest(t, h, http.MethodPost, "/api/view/increment/1")
	}

	rec := doRequest(t, h, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "counting", gjson.Get(body, "strategy").String())
	assert.Equal(t, int64(3), gjson.Get(body, "metrics.totalRequests").Int())
	assert.Equal(t, int64(3), gjson.Get(body, "metrics.latency.count").Int())

	rec = doRequest(t, h, http.MethodPost, "/api/stats/reset")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, srv.Metrics().GetSnapshot().TotalRequests)
}

func TestRequestID(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/health")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

type panickingStrategy struct{ countingStrategy }

func (p *panickingStrategy) Increment(ctx context.Context, postID int64) (int64, error) {
	panic("boom")
}

func TestRecoversFromPanic(t *testing.T) {
	srv := New(&panickingStrategy{}, Options{PostID: 1})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/api/view/increment/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	srv := New(&countingStrategy{}, Options{PostID: 1})
	err := srv.ListenAndServe(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestLoadRunAgainstServer(t *testing.T) {
	strategy := &countingStrategy{delay: time.Millisecond}
	ts := httptest.NewServer(New(strategy, Options{PostID: 1}).Handler())
	defer ts.Close()

	gen, err := loadtest.NewGenerator(loadtest.Config{
		TargetURL:      ts.URL + "/api/view/increment/1",
		Workers:        10,
		CallsPerWorker: 20,
		WaitTimeout:    time.Minute,
	})
	require.NoError(t, err)

	summary, err := gen.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(200), summary.TotalAttempted)
	assert.Equal(t, int64(200), summary.TotalSucceeded)
	assert.Equal(t, int64(200), strategy.count.Load())
}
