package types

import "time"

// DatasetParams is the input of DatasetWorkflow.
type DatasetParams struct {
	OutputDir   string // local dataset directory (logs, artifacts, run.json)
	ArtifactURI string // optional s3://bucket/prefix; empty means OutputDir
	Count       int
	Workers     int
	// If StartIndex is negative the start is derived from an existing labels.txt.
	StartIndex  int64
	MaxAttempts int
	// Split settings; SplitDir empty means the sibling "split" directory.
	SplitDir        string
	ValidationRatio float64
	Seed            *uint64
	CopyImages      bool
	// If true, the split directory is removed before splitting.
	ResetSplit bool
}

type GenerateParams struct {
	OutputDir   string
	ArtifactURI string
	StartIndex  int64
	Count       int
	Workers     int
	MaxAttempts int
}

// GenerateResult is the accounting of one generation run.
type GenerateResult struct {
	RunID      string
	StartIndex int64
	Count      int
	Completed  int64
	Skipped    int64 // already present in the ledger
	Failed     []int64
	Orphaned   []int64
	Retries    int64
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r GenerateResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

type ReconcileParams struct {
	RawURI       string // tmp_labels.txt
	CanonicalURI string // labels.txt
}

type ReconcileStats struct {
	Lines int
	// Duplicates counts raw lines dropped because a later line has the same index.
	Duplicates int
}

type SplitParams struct {
	DatasetDir      string
	OutputDir       string
	ValidationRatio float64
	Seed            *uint64
	CopyImages      bool
}

type SplitStats struct {
	Train      int
	Validation int
	Copied     int
	// Duplicates counts ground-truth lines superseded by a later line for the same file.
	Duplicates int
}

// CleanupParams instructs the cleanup activity which split directory to remove.
type CleanupParams struct {
	Dir string
}

type DatasetResult struct {
	Generate  GenerateResult
	Reconcile ReconcileStats
	Split     SplitStats
}
