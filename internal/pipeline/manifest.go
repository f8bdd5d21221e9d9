package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/types"
)

func ensureDir(dir string) error { return os.MkdirAll(dir, 0o755) }

// writeManifest records the accounting of a run next to its logs.
func writeManifest(dir string, res types.GenerateResult) error {
	man := map[string]any{
		"run_id":      res.RunID,
		"start_index": res.StartIndex,
		"count":       res.Count,
		"completed":   res.Completed,
		"skipped":     res.Skipped,
		"failed":      res.Failed,
		"orphaned":    res.Orphaned,
		"retries":     res.Retries,
		"started_at":  res.StartedAt.Format(time.RFC3339),
		"finished_at": res.FinishedAt.Format(time.RFC3339),
		"duration":    res.Duration().String(),
	}
	mb, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return err
	}
	w, c, err := iopkg.CreateWriter(filepath.Join(dir, ManifestName))
	if err != nil {
		return err
	}
	if _, err := w.Write(mb); err != nil {
		c.Close()
		return err
	}
	return c.Close()
}
