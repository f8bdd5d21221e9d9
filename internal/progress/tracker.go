package progress

import (
	"sync/atomic"

	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
)

// DefaultReportEvery is the reporting threshold in completed samples.
const DefaultReportEvery = 100

// Reporter receives progress ticks. Report may be called concurrently.
type Reporter interface {
	Report(done, total int64)
	Finish()
}

// Tracker is the shared completed-sample counter of a run. It is only ever
// incremented, once per completed sample.
type Tracker struct {
	done     atomic.Int64
	total    int64
	every    int64
	reporter Reporter
}

// NewTracker returns a tracker for total samples. every <= 0 uses DefaultReportEvery;
// a nil reporter disables reporting.
func NewTracker(total int64, every int64, r Reporter) *Tracker {
	if every <= 0 {
		every = DefaultReportEvery
	}
	return &Tracker{total: total, every: every, reporter: r}
}

// Inc records one completed sample and returns the new count. A report is
// emitted when the count hits a multiple of the threshold or the total.
func (t *Tracker) Inc() int64 {
	n := t.done.Add(1)
	tsmetrics.Progress.Set(float64(n))
	if t.reporter != nil && (n%t.every == 0 || n == t.total) {
		t.reporter.Report(n, t.total)
	}
	return n
}

// Value is a snapshot of the counter.
func (t *Tracker) Value() int64 { return t.done.Load() }

func (t *Tracker) Total() int64 { return t.total }

// Finish flushes the reporter.
func (t *Tracker) Finish() {
	if t.reporter != nil {
		t.reporter.Finish()
	}
}

// Percent returns done as an integer percentage of total.
func Percent(done, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(done * 100 / total)
}
