package activities

import (
	"context"

	"github.com/yourorg/textsynth/internal/split"
	"github.com/yourorg/textsynth/internal/types"
)

// CleanupSplit removes a previous split output directory.
// It is safe to call even if the directory doesn't exist.
func (a *Activities) CleanupSplit(ctx context.Context, p types.CleanupParams) error {
	return split.Reset(p.Dir)
}
