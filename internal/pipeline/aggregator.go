package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/ledger"
	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
	"github.com/yourorg/textsynth/internal/progress"
)

// aggregator is the only writer of the raw label log and the ground-truth
// log. All records reach it through one channel, so no file locking is
// needed. It keeps draining until the channel is closed, even after a write
// failure, so producers never block on a dead consumer.
type aggregator struct {
	raw, gt    *os.File
	rawW, gtW  *bufio.Writer
	conv       Converter
	ext        string
	tracker    *progress.Tracker
	flushEvery int64
	lastBucket int64
	ledger     *ledger.Ledger
	pending    []int64
	logger     *zap.Logger
	logged     int64
	orphaned   []int64
	err        error
	abort      context.CancelCauseFunc
}

type aggregateStats struct {
	Logged   int64
	Orphaned []int64
}

func openAggregator(dir string, conv Converter, ext string, tr *progress.Tracker, flushEvery int64, l *ledger.Ledger, logger *zap.Logger) (*aggregator, error) {
	raw, err := iopkg.OpenAppend(filepath.Join(dir, RawLogName))
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	gt, err := iopkg.OpenAppend(filepath.Join(dir, GroundTruthName))
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("open ground truth: %w", err)
	}
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}
	return &aggregator{
		raw:        raw,
		gt:         gt,
		rawW:       bufio.NewWriterSize(raw, 1<<16),
		gtW:        bufio.NewWriterSize(gt, 1<<16),
		conv:       conv,
		ext:        ext,
		tracker:    tr,
		flushEvery: flushEvery,
		ledger:     l,
		logger:     logger,
	}, nil
}

// run consumes records until in is closed, then flushes and closes both logs.
func (a *aggregator) run(in <-chan RawRecord) (aggregateStats, error) {
	for rec := range in {
		a.handle(rec)
		if bucket := a.tracker.Value() / a.flushEvery; bucket > a.lastBucket {
			a.lastBucket = bucket
			a.flush()
		}
	}
	a.flush()
	if err := a.raw.Close(); err != nil {
		a.fail(fmt.Errorf("close raw log: %w", err))
	}
	if err := a.gt.Close(); err != nil {
		a.fail(fmt.Errorf("close ground truth: %w", err))
	}
	return aggregateStats{Logged: a.logged, Orphaned: a.orphaned}, a.err
}

func (a *aggregator) handle(rec RawRecord) {
	if a.err != nil {
		a.orphan(rec, a.err)
		return
	}
	rawLine, gtLine, err := a.format(rec)
	if err != nil {
		a.orphan(rec, err)
		return
	}
	if _, err := a.rawW.WriteString(rawLine); err != nil {
		a.fail(fmt.Errorf("write raw log: %w", err))
		a.orphan(rec, err)
		return
	}
	if _, err := a.gtW.WriteString(gtLine); err != nil {
		a.fail(fmt.Errorf("write ground truth: %w", err))
		a.orphan(rec, err)
		return
	}
	a.logged++
	a.pending = append(a.pending, rec.Index)
	tsmetrics.RecordsLogged.Inc()
}

// format renders both log lines; a record is written to both logs or neither.
func (a *aggregator) format(rec RawRecord) (string, string, error) {
	if strings.ContainsAny(rec.Label, "\r\n") {
		return "", "", fmt.Errorf("label contains a line break")
	}
	codes, err := a.conv.Encode(rec.Label)
	if err != nil {
		return "", "", fmt.Errorf("encode label: %w", err)
	}
	token := IndexToken(rec.Index)
	var b strings.Builder
	b.WriteString(token)
	b.WriteString(a.ext)
	for _, c := range codes {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(c))
	}
	b.WriteByte('\n')
	return token + " " + rec.Label + "\n", b.String(), nil
}

// fail records the first fatal error and cancels the worker pool.
func (a *aggregator) fail(err error) {
	if a.err != nil {
		return
	}
	a.err = err
	if a.abort != nil {
		a.abort(err)
	}
}

func (a *aggregator) orphan(rec RawRecord, err error) {
	a.orphaned = append(a.orphaned, rec.Index)
	tsmetrics.RecordsDropped.Inc()
	a.logger.Error("dropping record; artifact has no log line",
		zap.Int64("index", rec.Index), zap.String("label", rec.Label), zap.Error(err))
}

// flush pushes buffered lines to disk and only then marks them in the ledger,
// so the ledger never claims an index the logs could have lost.
func (a *aggregator) flush() {
	if a.err != nil {
		return
	}
	for _, step := range []struct {
		name string
		fn   func() error
	}{
		{"flush raw log", a.rawW.Flush},
		{"flush ground truth", a.gtW.Flush},
		{"sync raw log", a.raw.Sync},
		{"sync ground truth", a.gt.Sync},
	} {
		if err := step.fn(); err != nil {
			a.fail(fmt.Errorf("%s: %w", step.name, err))
			return
		}
	}
	tsmetrics.LogFlushes.Inc()
	if a.ledger != nil && len(a.pending) > 0 {
		if err := a.ledger.MarkAll(a.pending); err != nil {
			a.fail(fmt.Errorf("mark ledger: %w", err))
			return
		}
	}
	a.logger.Debug("logs flushed", zap.Int64("logged", a.logged), zap.Int("marked", len(a.pending)))
	a.pending = a.pending[:0]
}
