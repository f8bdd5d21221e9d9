package activities

import (
	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/config"
	"github.com/yourorg/textsynth/internal/logging"
)

// Registered activity names; the workflow executes activities by these names.
const (
	GenerateSamplesName = "Activities.GenerateSamples"
	ReconcileLabelsName = "Activities.ReconcileLabels"
	SplitDatasetName    = "Activities.SplitDataset"
	CleanupSplitName    = "Activities.CleanupSplit"
)

type Activities struct {
	cfg    config.Config
	logger *zap.Logger
}

func New(cfg config.Config, logger *zap.Logger) *Activities {
	return &Activities{cfg: cfg, logger: logging.OrNop(logger)}
}

// Registry is satisfied by worker.Worker and the Temporal test environments.
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

func (a *Activities) Register(r Registry) {
	r.RegisterActivityWithOptions(a.GenerateSamples, activity.RegisterOptions{Name: GenerateSamplesName})
	r.RegisterActivityWithOptions(a.ReconcileLabels, activity.RegisterOptions{Name: ReconcileLabelsName})
	r.RegisterActivityWithOptions(a.SplitDataset, activity.RegisterOptions{Name: SplitDatasetName})
	r.RegisterActivityWithOptions(a.CleanupSplit, activity.RegisterOptions{Name: CleanupSplitName})
}
