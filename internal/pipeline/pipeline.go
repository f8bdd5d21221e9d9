// Package pipeline runs the concurrent generation of labeled samples: a pool
// of workers produces and persists artifacts, and a single aggregator owns the
// raw label log and the ground-truth log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Output file names inside a dataset directory.
const (
	RawLogName      = "tmp_labels.txt"
	LabelsName      = "labels.txt"
	GroundTruthName = "ground_truth.txt"
	ManifestName    = "run.json"
	LockName        = ".textsynth.lock"
	LedgerDirName   = ".ledger"

	DefaultExt        = ".jpg"
	DefaultFlushEvery = 1000
	IndexWidth        = 8
)

// ErrIncomplete is returned when some indices exhausted their retries.
var ErrIncomplete = errors.New("generation incomplete")

// Sample is one generated artifact and its text label.
type Sample struct {
	Index    int64
	Artifact []byte
	Label    string
}

// Generator produces the sample for an index. It may fail transiently and
// must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, index int64) (Sample, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, index int64) (Sample, error)

func (f GeneratorFunc) Generate(ctx context.Context, index int64) (Sample, error) {
	return f(ctx, index)
}

// Converter maps a label to its code sequence.
type Converter interface {
	Encode(label string) ([]int, error)
}

// RawRecord is what a worker hands to the aggregator.
type RawRecord struct {
	Index int64
	Label string
}

// IndexToken is the fixed-width zero-padded form of index.
func IndexToken(index int64) string {
	return fmt.Sprintf("%0*d", IndexWidth, index)
}

// FileName is the artifact name for index.
func FileName(index int64, ext string) string {
	return IndexToken(index) + ext
}
