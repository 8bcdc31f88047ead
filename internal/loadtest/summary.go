package loadtest

import "time"

// Summary is the outcome of a run.
//
// A non-200 response and a transport error are both simply "not succeeded";
// the summary does not tell them apart.
type Summary struct {
	TotalAttempted int64         `json:"totalAttempted" yaml:"totalAttempted"`
	TotalSucceeded int64         `json:"totalSucceeded" yaml:"totalSucceeded"`
	Elapsed        time.Duration `json:"-" yaml:"-"`
}

// ElapsedMillis returns the elapsed wall-clock time in milliseconds.
func (s *Summary) ElapsedMillis() int64 {
	return s.Elapsed.Milliseconds()
}

// Reporter receives diagnostics while a run is in progress.
// Implementations must be safe for concurrent use; per-call methods are
// invoked from worker goroutines.
type Reporter interface {
	// StatusFailure is called when a call completes with a non-200 status.
	StatusFailure(worker int, statusCode int)

	// TransportFailure is called when a call fails before a status is received,
	// or when the body of a received response cannot be drained.
	TransportFailure(worker int, err error)

	// WaitTimedOut is called when the ceiling timeout expires with workers still running.
	WaitTimedOut(outstanding int, timeout time.Duration)

	// WaitInterrupted is called when the coordinator's context ends before the workers do.
	WaitInterrupted(outstanding int, err error)
}

type nopReporter struct{}

func (nopReporter) StatusFailure(int, int) {}
func (nopReporter) TransportFailure(int, error) {}
func (nopReporter) WaitTimedOut(int, time.Duration) {}
func (nopReporter) WaitInterrupted(int, error) {}
