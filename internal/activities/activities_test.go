package activities

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/yourorg/textsynth/internal/config"
	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/split"
	"github.com/yourorg/textsynth/internal/types"
)

func newTestActivities(t *testing.T) (*Activities, string) {
	t.Helper()
	root := t.TempDir()
	chars := filepath.Join(root, "chars.txt")
	require.NoError(t, os.WriteFile(chars, []byte("a\nb\nc\n"), 0o644))
	seed := uint64(11)
	cfg := config.Default()
	cfg.CharsFile = chars
	cfg.MinLen, cfg.MaxLen = 3, 4
	cfg.ImageWidth, cfg.ImageHeight = 48, 16
	cfg.Seed = &seed
	return New(cfg, nil), root
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	require.NoError(t, sc.Err())
	return n
}

func TestDatasetActivitiesEndToEnd(t *testing.T) {
	acts, root := newTestActivities(t)
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	acts.Register(env)

	dataset := filepath.Join(root, "dataset")
	val, err := env.ExecuteActivity(GenerateSamplesName, types.GenerateParams{
		OutputDir:  dataset,
		StartIndex: -1,
		Count:      20,
		Workers:    3,
	})
	require.NoError(t, err)
	var gen types.GenerateResult
	require.NoError(t, val.Get(&gen))
	require.EqualValues(t, 20, gen.Completed)
	require.Empty(t, gen.Failed)
	require.EqualValues(t, 0, gen.StartIndex)
	require.Equal(t, 20, countLines(t, filepath.Join(dataset, pipeline.GroundTruthName)))

	val, err = env.ExecuteActivity(ReconcileLabelsName, types.ReconcileParams{
		RawURI:       filepath.Join(dataset, pipeline.RawLogName),
		CanonicalURI: filepath.Join(dataset, pipeline.LabelsName),
	})
	require.NoError(t, err)
	var rec types.ReconcileStats
	require.NoError(t, val.Get(&rec))
	require.Equal(t, 20, rec.Lines)

	out := split.DefaultOutputDir(dataset)
	val, err = env.ExecuteActivity(SplitDatasetName, types.SplitParams{
		DatasetDir:      dataset,
		OutputDir:       out,
		ValidationRatio: 0.25,
		CopyImages:      true,
	})
	require.NoError(t, err)
	var st types.SplitStats
	require.NoError(t, val.Get(&st))
	require.Equal(t, 15, st.Train)
	require.Equal(t, 5, st.Validation)
	require.Equal(t, 20, st.Copied)

	_, err = env.ExecuteActivity(CleanupSplitName, types.CleanupParams{Dir: dataset})
	require.Error(t, err)
	_, err = env.ExecuteActivity(CleanupSplitName, types.CleanupParams{Dir: out})
	require.NoError(t, err)
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dataset, pipeline.GroundTruthName))
	require.NoError(t, err)
}

func TestGenerateResumesFromLabels(t *testing.T) {
	acts, root := newTestActivities(t)
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	acts.Register(env)

	dataset := filepath.Join(root, "dataset")
	require.NoError(t, os.MkdirAll(dataset, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataset, pipeline.LabelsName), []byte("00000000 abc\n00000001 cab\n"), 0o644))

	val, err := env.ExecuteActivity(GenerateSamplesName, types.GenerateParams{
		OutputDir:  dataset,
		StartIndex: -1,
		Count:      3,
		Workers:    2,
	})
	require.NoError(t, err)
	var gen types.GenerateResult
	require.NoError(t, val.Get(&gen))
	require.EqualValues(t, 2, gen.StartIndex)
	_, err = os.Stat(filepath.Join(dataset, pipeline.FileName(4, pipeline.DefaultExt)))
	require.NoError(t, err)
}

func TestGenerateMissingCharsetIsNotRetryable(t *testing.T) {
	acts, root := newTestActivities(t)
	acts.cfg.CharsFile = filepath.Join(root, "missing.txt")
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	acts.Register(env)

	_, err := env.ExecuteActivity(GenerateSamplesName, types.GenerateParams{OutputDir: root, Count: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "load charset")
}

func TestCleanupRejectsRoot(t *testing.T) {
	acts, _ := newTestActivities(t)
	for _, dir := range []string{"", ".", "/", ".."} {
		require.Error(t, acts.CleanupSplit(context.Background(), types.CleanupParams{Dir: dir}), dir)
	}
}
