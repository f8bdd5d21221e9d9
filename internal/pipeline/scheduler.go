package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/textsynth/internal/ledger"
	"github.com/yourorg/textsynth/internal/logging"
	"github.com/yourorg/textsynth/internal/progress"
	"github.com/yourorg/textsynth/internal/retry"
	"github.com/yourorg/textsynth/internal/storage"
	"github.com/yourorg/textsynth/internal/types"
)

// Options configures one generation run.
type Options struct {
	// Dir holds the logs, the lock file and run.json. It must be local.
	Dir string
	// Store receives artifacts; nil stores them in Dir.
	Store storage.ArtifactStore
	Ext   string
	Start int64
	Count int
	// Workers <= 0 uses max(NumCPU, 2).
	Workers int
	// ChannelSize bounds the record channel; <= 0 uses 4 * Workers.
	ChannelSize int
	Retry       retry.Policy
	FlushEvery  int64
	ReportEvery int64
	Reporter    progress.Reporter
	// Ledger, if set, makes the run skip indices already logged.
	Ledger *ledger.Ledger
	Logger *zap.Logger
}

// Scheduler owns the worker pool and the aggregator of a run.
type Scheduler struct {
	gens []Generator
	conv Converter
	opts Options
}

func New(gens []Generator, conv Converter, opts Options) (*Scheduler, error) {
	if len(gens) == 0 {
		return nil, errors.New("at least one generator is required")
	}
	if conv == nil {
		return nil, errors.New("converter is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("output dir is required")
	}
	if opts.Start < 0 || opts.Count < 0 {
		return nil, fmt.Errorf("invalid range start=%d count=%d", opts.Start, opts.Count)
	}
	if opts.Workers <= 0 {
		opts.Workers = max(runtime.NumCPU(), 2)
	}
	if opts.ChannelSize <= 0 {
		opts.ChannelSize = 4 * opts.Workers
	}
	if opts.Ext == "" {
		opts.Ext = DefaultExt
	}
	if opts.Retry.MaximumAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	opts.Logger = logging.OrNop(opts.Logger)
	return &Scheduler{gens: gens, conv: conv, opts: opts}, nil
}

// Run generates one sample per index in [Start, Start+Count). It returns
// after every worker has finished and the aggregator has closed both logs.
// If indices exhausted their retries the error wraps ErrIncomplete; any other
// error is fatal to the run.
func (s *Scheduler) Run(ctx context.Context) (types.GenerateResult, error) {
	o := s.opts
	res := types.GenerateResult{
		RunID:      uuid.NewString(),
		StartIndex: o.Start,
		Count:      o.Count,
		StartedAt:  time.Now().UTC(),
	}
	logger := o.Logger.With(zap.String("run", res.RunID))

	lock := flock.New(filepath.Join(o.Dir, LockName))
	if err := ensureDir(o.Dir); err != nil {
		return res, err
	}
	ok, err := lock.TryLock()
	if err != nil {
		return res, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return res, fmt.Errorf("another run is writing to %s", o.Dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", zap.Error(err))
		}
	}()

	store := o.Store
	if store == nil {
		if store, err = storage.NewDir(o.Dir); err != nil {
			return res, err
		}
	}

	tasks, skipped, err := s.pending()
	if err != nil {
		return res, err
	}
	res.Skipped = skipped

	tracker := progress.NewTracker(int64(len(tasks)), o.ReportEvery, o.Reporter)
	agg, err := openAggregator(o.Dir, s.conv, o.Ext, tracker, o.FlushEvery, o.Ledger, logger)
	if err != nil {
		return res, err
	}
	// A fatal aggregator error cancels the pool; the aggregator keeps draining.
	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)
	agg.abort = abort

	logger.Info("generation started",
		zap.Int64("start", o.Start), zap.Int("count", o.Count), zap.Int("pending", len(tasks)),
		zap.Int64("skipped", skipped), zap.Int("workers", o.Workers))

	records := make(chan RawRecord, o.ChannelSize)
	type aggResult struct {
		stats aggregateStats
		err   error
	}
	aggDone := make(chan aggResult, 1)
	go func() {
		st, err := agg.run(records)
		aggDone <- aggResult{st, err}
	}()

	state := &runState{}
	g, gctx := errgroup.WithContext(runCtx)
	taskCh := make(chan int64)
	g.Go(func() error {
		defer close(taskCh)
		for _, idx := range tasks {
			select {
			case taskCh <- idx:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < o.Workers; i++ {
		w := &worker{
			gens:    s.gens,
			rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
			policy:  o.Retry,
			store:   store,
			ext:     o.Ext,
			out:     records,
			tracker: tracker,
			state:   state,
			logger:  logger.With(zap.Int("worker", i)),
		}
		g.Go(func() error { return w.run(gctx, taskCh) })
	}
	runErr := g.Wait()

	// Every worker has returned, so no send can follow this close: the last
	// real record precedes the end of the stream.
	close(records)
	ar := <-aggDone
	tracker.Finish()

	slices.Sort(state.failed)
	slices.Sort(ar.stats.Orphaned)
	res.Completed = tracker.Value()
	res.Failed = state.failed
	res.Orphaned = ar.stats.Orphaned
	res.Retries = state.retries.Load()
	res.FinishedAt = time.Now().UTC()

	if err := writeManifest(o.Dir, res); err != nil {
		logger.Warn("failed to write run manifest", zap.Error(err))
	}

	fields := []zap.Field{
		zap.Int64("completed", res.Completed), zap.Int("failed", len(res.Failed)),
		zap.Int("orphaned", len(res.Orphaned)), zap.Int64("retries", res.Retries),
		zap.Duration("duration", res.Duration()),
	}
	switch {
	case ar.err != nil:
		logger.Error("aggregator failed", append(fields, zap.Error(ar.err))...)
		return res, ar.err
	case runErr != nil:
		logger.Error("generation aborted", append(fields, zap.Error(runErr))...)
		return res, runErr
	case len(res.Failed) > 0:
		logger.Error("generation incomplete", fields...)
		return res, fmt.Errorf("%w: %d of %d indices failed", ErrIncomplete, len(res.Failed), len(tasks))
	}
	logger.Info("generation finished", fields...)
	return res, nil
}

// pending lists the indices still to generate and how many the ledger already holds.
func (s *Scheduler) pending() ([]int64, int64, error) {
	o := s.opts
	done := map[int64]struct{}{}
	if o.Ledger != nil {
		logged, err := o.Ledger.Range(o.Start, o.Count)
		if err != nil {
			return nil, 0, fmt.Errorf("read ledger: %w", err)
		}
		for _, i := range logged {
			done[i] = struct{}{}
		}
	}
	tasks := make([]int64, 0, o.Count-len(done))
	for i := o.Start; i < o.Start+int64(o.Count); i++ {
		if _, ok := done[i]; ok {
			continue
		}
		tasks = append(tasks, i)
	}
	return tasks, int64(len(done)), nil
}
