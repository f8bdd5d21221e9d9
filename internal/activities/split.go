package activities

import (
	"context"

	"github.com/yourorg/textsynth/internal/split"
	"github.com/yourorg/textsynth/internal/types"
)

func (a *Activities) SplitDataset(ctx context.Context, p types.SplitParams) (types.SplitStats, error) {
	return split.Split(ctx, split.Options{
		DatasetDir:      p.DatasetDir,
		OutputDir:       p.OutputDir,
		ValidationRatio: p.ValidationRatio,
		Seed:            p.Seed,
		CopyImages:      p.CopyImages,
		Ext:             a.cfg.Ext,
		Logger:          a.logger,
	})
}
