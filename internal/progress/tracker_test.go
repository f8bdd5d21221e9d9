package progress

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	ticks []int64
}

func (r *recorder) Report(done, total int64) {
	r.mu.Lock()
	r.ticks = append(r.ticks, done)
	r.mu.Unlock()
}

func (r *recorder) Finish() {}

func TestTrackerConcurrentIncrements(t *testing.T) {
	const total = 1000
	rec := &recorder{}
	tr := NewTracker(total, 100, rec)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < total/8; i++ {
				tr.Inc()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, total, tr.Value())
	require.ElementsMatch(t, []int64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}, rec.ticks)
}

func TestTrackerReportsAtTotal(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(3, 0, rec)
	prev := int64(0)
	for i := 0; i < 3; i++ {
		n := tr.Inc()
		require.Greater(t, n, prev)
		prev = n
	}
	require.Equal(t, []int64{3}, rec.ticks)
	require.EqualValues(t, 3, tr.Value())
}

func TestPercent(t *testing.T) {
	require.Equal(t, 50, Percent(1, 2))
	require.Equal(t, 33, Percent(1, 3))
	require.Equal(t, 100, Percent(0, 0))
}

func TestMultiAndFunc(t *testing.T) {
	var got []int64
	rec := &recorder{}
	m := Multi{rec, FuncReporter(func(done, total int64) { got = append(got, done) })}
	m.Report(5, 10)
	m.Finish()
	require.Equal(t, []int64{5}, got)
	require.Equal(t, []int64{5}, rec.ticks)
}

func TestBarReporterNeverMovesBackwards(t *testing.T) {
	r := NewBarReporter(io.Discard, 10)
	r.Report(5, 10)
	r.Report(3, 10)
	require.EqualValues(t, 5, r.bar.State().CurrentNum)
	r.Report(7, 10)
	require.EqualValues(t, 7, r.bar.State().CurrentNum)
}

func TestBarReporterFollowsTrackerTotal(t *testing.T) {
	// Sized for the whole request; the run only had 4 pending samples.
	r := NewBarReporter(io.Discard, 10)
	tr := NewTracker(4, 2, r)
	for i := 0; i < 4; i++ {
		tr.Inc()
	}
	require.EqualValues(t, 4, r.bar.GetMax64())
	require.EqualValues(t, 4, r.bar.State().CurrentNum)
}
