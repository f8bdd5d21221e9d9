package activities

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/charset"
	"github.com/yourorg/textsynth/internal/ledger"
	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/progress"
	"github.com/yourorg/textsynth/internal/reconcile"
	"github.com/yourorg/textsynth/internal/render"
	"github.com/yourorg/textsynth/internal/storage"
	"github.com/yourorg/textsynth/internal/types"
)

// GenerateSamples runs one generation pass into p.OutputDir. Indices already
// in the output ledger are skipped, so a retried attempt only fills the gaps
// left by the previous one.
func (a *Activities) GenerateSamples(ctx context.Context, p types.GenerateParams) (types.GenerateResult, error) {
	conv, err := charset.Load(a.cfg.CharsFile)
	if err != nil {
		return types.GenerateResult{}, temporal.NewNonRetryableApplicationError("load charset", "config", err)
	}
	gens, err := render.Set(conv.Chars(), a.cfg.MinLen, a.cfg.MaxLen, render.Options{
		Width:  a.cfg.ImageWidth,
		Height: a.cfg.ImageHeight,
		Seed:   a.cfg.Seed,
	})
	if err != nil {
		return types.GenerateResult{}, temporal.NewNonRetryableApplicationError("build generators", "config", err)
	}

	start := p.StartIndex
	if start < 0 {
		if start, err = reconcile.StartIndex(filepath.Join(p.OutputDir, pipeline.LabelsName)); err != nil {
			return types.GenerateResult{}, err
		}
	}

	var store storage.ArtifactStore
	if p.ArtifactURI != "" {
		if store, err = storage.Open(ctx, p.ArtifactURI); err != nil {
			return types.GenerateResult{}, err
		}
	}

	led, err := ledger.Open(filepath.Join(p.OutputDir, pipeline.LedgerDirName))
	if err != nil {
		return types.GenerateResult{}, fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	logger := a.logger.With(zap.String("activity", GenerateSamplesName), zap.String("dir", p.OutputDir))
	heartbeat := progress.FuncReporter(func(done, total int64) {
		activity.RecordHeartbeat(ctx, map[string]any{"done": done, "total": total})
	})

	policy := a.cfg.Retry()
	if p.MaxAttempts > 0 {
		policy.MaximumAttempts = p.MaxAttempts
	}
	sched, err := pipeline.New(gens, conv, pipeline.Options{
		Dir:         p.OutputDir,
		Store:       store,
		Ext:         a.cfg.Ext,
		Start:       start,
		Count:       p.Count,
		Workers:     p.Workers,
		Retry:       policy,
		FlushEvery:  a.cfg.FlushEvery,
		ReportEvery: a.cfg.ReportEvery,
		Reporter:    progress.Multi{progress.LogReporter{Logger: logger}, heartbeat},
		Ledger:      led,
		Logger:      logger,
	})
	if err != nil {
		return types.GenerateResult{}, temporal.NewNonRetryableApplicationError("invalid params", "params", err)
	}

	activity.GetLogger(ctx).Info("Starting generation", "start", start, "count", p.Count)
	res, err := sched.Run(ctx)
	if errors.Is(err, pipeline.ErrIncomplete) {
		logger.Warn("run incomplete", zap.Int("failed", len(res.Failed)))
	}
	return res, err
}
