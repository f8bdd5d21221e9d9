package progress

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// LogReporter writes "done/total pct%" progress lines through zap.
type LogReporter struct {
	Logger *zap.Logger
}

func (r LogReporter) Report(done, total int64) {
	r.Logger.Info("generation progress",
		zap.Int64("done", done),
		zap.Int64("total", total),
		zap.Int("percent", Percent(done, total)))
}

func (r LogReporter) Finish() {}

// BarReporter draws a terminal progress bar. Ticks may arrive out of order
// from concurrent workers; the bar only moves forward. A tick carrying a
// different total resizes the bar.
type BarReporter struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	max  int64
	done int64
}

func NewBarReporter(w io.Writer, total int64) *BarReporter {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("generating"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100_000_000),
	)
	return &BarReporter{bar: bar, max: total}
}

func (r *BarReporter) Report(done, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if total != r.max {
		r.max = total
		r.bar.ChangeMax64(total)
	}
	if done <= r.done {
		return
	}
	r.done = done
	_ = r.bar.Set64(done)
}

func (r *BarReporter) Finish() { _ = r.bar.Finish() }

// FuncReporter adapts a function, e.g. an activity heartbeat.
type FuncReporter func(done, total int64)

func (f FuncReporter) Report(done, total int64) { f(done, total) }

func (f FuncReporter) Finish() {}

// Multi fans one tick out to several reporters.
type Multi []Reporter

func (m Multi) Report(done, total int64) {
	for _, r := range m {
		r.Report(done, total)
	}
}

func (m Multi) Finish() {
	for _, r := range m {
		r.Finish()
	}
}

// ForTerminal returns a bar on an interactive stderr and a log reporter otherwise.
func ForTerminal(logger *zap.Logger, total int64) Reporter {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return NewBarReporter(os.Stderr, total)
	}
	return LogReporter{Logger: logger}
}
