package activities

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/reconcile"
	"github.com/yourorg/textsynth/internal/types"
)

func (a *Activities) ReconcileLabels(ctx context.Context, p types.ReconcileParams) (types.ReconcileStats, error) {
	st, err := reconcile.Reconcile(p.RawURI, p.CanonicalURI)
	if err != nil {
		return types.ReconcileStats{}, err
	}
	a.logger.Info("labels reconciled", zap.String("out", p.CanonicalURI), zap.Int("lines", st.Lines))
	return st, nil
}
