package workflow

import (
	"path/filepath"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/textsynth/internal/activities"
	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/split"
	"github.com/yourorg/textsynth/internal/types"
)

// DatasetWorkflow generates samples, reconciles the raw label log and splits
// the result into train and validation manifests.
func DatasetWorkflow(ctx workflow.Context, p types.DatasetParams) (types.DatasetResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Hour,
		HeartbeatTimeout:    1 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	// Generation heartbeats on progress ticks; a long run needs a longer deadline.
	genAO := ao
	genAO.StartToCloseTimeout = 12 * time.Hour
	genAO.HeartbeatTimeout = 5 * time.Minute
	genCtx := workflow.WithActivityOptions(ctx, genAO)

	var res types.DatasetResult
	gp := types.GenerateParams{
		OutputDir:   p.OutputDir,
		ArtifactURI: p.ArtifactURI,
		StartIndex:  p.StartIndex,
		Count:       p.Count,
		Workers:     p.Workers,
		MaxAttempts: p.MaxAttempts,
	}
	if err := workflow.ExecuteActivity(genCtx, activities.GenerateSamplesName, gp).Get(ctx, &res.Generate); err != nil {
		return res, err
	}

	rp := types.ReconcileParams{
		RawURI:       filepath.Join(p.OutputDir, pipeline.RawLogName),
		CanonicalURI: filepath.Join(p.OutputDir, pipeline.LabelsName),
	}
	if err := workflow.ExecuteActivity(ctx, activities.ReconcileLabelsName, rp).Get(ctx, &res.Reconcile); err != nil {
		return res, err
	}

	splitDir := p.SplitDir
	if splitDir == "" {
		splitDir = split.DefaultOutputDir(p.OutputDir)
	}
	if p.ResetSplit {
		if err := workflow.ExecuteActivity(ctx, activities.CleanupSplitName, types.CleanupParams{Dir: splitDir}).Get(ctx, nil); err != nil {
			return res, err
		}
	}

	sp := types.SplitParams{
		DatasetDir:      p.OutputDir,
		OutputDir:       splitDir,
		ValidationRatio: p.ValidationRatio,
		Seed:            p.Seed,
		CopyImages:      p.CopyImages,
	}
	if err := workflow.ExecuteActivity(ctx, activities.SplitDatasetName, sp).Get(ctx, &res.Split); err != nil {
		return res, err
	}
	workflow.GetLogger(ctx).Info("dataset ready",
		"completed", res.Generate.Completed, "train", res.Split.Train, "validation", res.Split.Validation)
	return res, nil
}
