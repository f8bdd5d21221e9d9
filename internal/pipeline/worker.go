package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
	"github.com/yourorg/textsynth/internal/progress"
	"github.com/yourorg/textsynth/internal/retry"
	"github.com/yourorg/textsynth/internal/storage"
)

// runState is the per-run accounting shared by all workers.
type runState struct {
	retries atomic.Int64
	mu      sync.Mutex
	failed  []int64
}

func (s *runState) fail(index int64) {
	s.mu.Lock()
	s.failed = append(s.failed, index)
	s.mu.Unlock()
}

type worker struct {
	gens    []Generator
	rnd     *rand.Rand
	policy  retry.Policy
	store   storage.ArtifactStore
	ext     string
	out     chan<- RawRecord
	tracker *progress.Tracker
	state   *runState
	logger  *zap.Logger
}

// run processes tasks until the channel closes. Only run-fatal errors are
// returned; an index whose retries ran out is recorded and skipped.
func (w *worker) run(ctx context.Context, tasks <-chan int64) error {
	for index := range tasks {
		if err := w.process(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

func (w *worker) process(ctx context.Context, index int64) error {
	gen := w.gens[w.rnd.IntN(len(w.gens))]
	out := retry.Do(ctx, w.policy, func(ctx context.Context, attempt int) (Sample, error) {
		return gen.Generate(ctx, index)
	}, func(attempt int, err error) {
		w.state.retries.Add(1)
		tsmetrics.GenerationRetries.Inc()
		w.logger.Warn("retry generate",
			zap.Int64("index", index), zap.Int("attempt", attempt), zap.Error(err))
	})
	if !out.Succeeded() {
		if !out.Exhausted() {
			return out.Err
		}
		w.state.fail(index)
		tsmetrics.GenerationFailures.Inc()
		w.logger.Error("generation failed permanently",
			zap.Int64("index", index), zap.Int("attempts", out.Attempts), zap.Error(out.Err))
		return nil
	}

	name := FileName(index, w.ext)
	if _, err := w.store.Put(ctx, name, bytes.NewReader(out.Value.Artifact)); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	// The aggregator drains until the channel is closed, so this send cannot
	// block forever.
	w.out <- RawRecord{Index: index, Label: out.Value.Label}
	tsmetrics.SamplesGenerated.Inc()
	w.tracker.Inc()
	return nil
}
