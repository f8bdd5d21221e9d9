// Package split partitions a finished ground-truth log into train and
// validation manifests.
package split

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/logging"
	"github.com/yourorg/textsynth/internal/pipeline"
	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
	"github.com/yourorg/textsynth/internal/types"
)

const (
	DefaultValidationRatio = 0.25
	DefaultDirName         = "split"
	ImagesDirName          = "images"
	TrainName              = "train.txt"
	ValidationName         = "dev.txt"
)

var ErrNoEntries = errors.New("ground truth has no entries")

// Entry is one ground-truth line: an artifact file name and its codes,
// kept verbatim.
type Entry struct {
	File  string
	Codes []string
}

func (e Entry) Line() string {
	if len(e.Codes) == 0 {
		return e.File
	}
	return e.File + " " + strings.Join(e.Codes, " ")
}

type Options struct {
	DatasetDir string
	// GroundTruth defaults to DatasetDir/ground_truth.txt; may be s3://.
	GroundTruth string
	// OutputDir defaults to the "split" directory next to DatasetDir; may be
	// s3:// when CopyImages is false.
	OutputDir       string
	ValidationRatio float64
	// Seed makes the partition reproducible; nil draws a random one.
	Seed       *uint64
	CopyImages bool
	Ext        string
	Logger     *zap.Logger
}

// DefaultOutputDir is the sibling "split" directory of datasetDir.
func DefaultOutputDir(datasetDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(datasetDir)), DefaultDirName)
}

// Split parses the ground truth, optionally copies artifacts into
// OutputDir/images, partitions the entries and writes both manifests.
// Every entry lands in exactly one manifest; source files are never modified.
func Split(ctx context.Context, o Options) (types.SplitStats, error) {
	logger := logging.OrNop(o.Logger)
	if o.DatasetDir == "" {
		return types.SplitStats{}, errors.New("dataset dir is required")
	}
	if o.GroundTruth == "" {
		o.GroundTruth = filepath.Join(o.DatasetDir, pipeline.GroundTruthName)
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir(o.DatasetDir)
	}
	if o.ValidationRatio == 0 {
		o.ValidationRatio = DefaultValidationRatio
	}
	if o.ValidationRatio < 0 || o.ValidationRatio >= 1 {
		return types.SplitStats{}, fmt.Errorf("validation ratio %v outside [0,1)", o.ValidationRatio)
	}
	if o.Ext == "" {
		o.Ext = ".jpg"
	}

	var st types.SplitStats
	if iopkg.IsLocal(o.OutputDir) {
		if err := os.MkdirAll(filepath.Join(iopkg.LocalPath(o.OutputDir), ImagesDirName), 0o755); err != nil {
			return st, err
		}
	}
	if o.CopyImages {
		if !iopkg.IsLocal(o.OutputDir) {
			return st, errors.New("copying images requires a local output dir")
		}
		n, err := copyArtifacts(ctx, o.DatasetDir, filepath.Join(iopkg.LocalPath(o.OutputDir), ImagesDirName), o.Ext)
		if err != nil {
			return st, fmt.Errorf("copy artifacts: %w", err)
		}
		st.Copied = n
		logger.Info("artifacts copied", zap.Int("count", n))
	}

	rc, err := iopkg.OpenReader(o.GroundTruth)
	if err != nil {
		return st, fmt.Errorf("open ground truth: %w", err)
	}
	entries, dups, err := ParseGroundTruth(rc)
	rc.Close()
	if err != nil {
		return st, err
	}
	st.Duplicates = dups
	if dups > 0 {
		logger.Warn("ground truth lists some files more than once; kept the last line", zap.Int("duplicates", dups))
	}
	if len(entries) == 0 {
		return st, ErrNoEntries
	}

	var rng *rand.Rand
	if o.Seed != nil {
		rng = rand.New(rand.NewPCG(*o.Seed, *o.Seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	train, val := Partition(entries, o.ValidationRatio, rng)

	if err := writeManifest(joinURI(o.OutputDir, TrainName), train); err != nil {
		return st, err
	}
	if err := writeManifest(joinURI(o.OutputDir, ValidationName), val); err != nil {
		return st, err
	}
	st.Train, st.Validation = len(train), len(val)
	tsmetrics.SplitEntries.WithLabelValues("train").Add(float64(st.Train))
	tsmetrics.SplitEntries.WithLabelValues("validation").Add(float64(st.Validation))
	logger.Info("dataset split",
		zap.String("output", o.OutputDir), zap.Int("train", st.Train), zap.Int("validation", st.Validation))
	return st, nil
}

// ParseGroundTruth reads "<file> <code>..." lines. Blank lines are skipped;
// a non-integer code is an error. A file listed again (a resumed run
// regenerated it) takes the codes of its last line; dups counts the
// superseded lines.
func ParseGroundTruth(r io.Reader) (entries []Entry, dups int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	seen := make(map[string]int)
	n := 0
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		for _, c := range fields[1:] {
			if _, err := strconv.Atoi(c); err != nil {
				return nil, 0, fmt.Errorf("ground truth line %d: bad code %q", n, c)
			}
		}
		e := Entry{File: fields[0], Codes: fields[1:]}
		if i, ok := seen[e.File]; ok {
			entries[i] = e
			dups++
			continue
		}
		seen[e.File] = len(entries)
		entries = append(entries, e)
	}
	return entries, dups, sc.Err()
}

// Reset removes a previous split output directory. It refuses the
// filesystem root, relative "." and "..", and any directory that holds, or
// directly contains, a generation output directory.
func Reset(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || clean == "." || clean == ".." || clean == string(filepath.Separator) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %q", dir)
	}
	if isDatasetDir(clean) {
		return fmt.Errorf("refusing to remove a dataset directory: %s", clean)
	}
	children, err := os.ReadDir(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.IsDir() && isDatasetDir(filepath.Join(clean, c.Name())) {
			return fmt.Errorf("refusing to remove %s: it contains dataset %s", clean, c.Name())
		}
	}
	return os.RemoveAll(clean)
}

func isDatasetDir(dir string) bool {
	for _, name := range []string{pipeline.GroundTruthName, pipeline.RawLogName, pipeline.LabelsName, pipeline.LockName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Partition shuffles entries and moves ceil(ratio*n) of them to validation.
func Partition(entries []Entry, ratio float64, rng *rand.Rand) (train, val []Entry) {
	n := len(entries)
	nVal := int(math.Ceil(ratio * float64(n)))
	nVal = min(max(nVal, 0), n)
	perm := rng.Perm(n)
	val = make([]Entry, 0, nVal)
	train = make([]Entry, 0, n-nVal)
	for i, p := range perm {
		if i < nVal {
			val = append(val, entries[p])
		} else {
			train = append(train, entries[p])
		}
	}
	return train, val
}

func writeManifest(uri string, entries []Entry) error {
	w, c, err := iopkg.CreateWriter(uri)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := bw.WriteString(e.Line() + "\n"); err != nil {
			c.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		c.Close()
		return err
	}
	return c.Close()
}

func copyArtifacts(ctx context.Context, src, dst, ext string) (int, error) {
	dst = filepath.Clean(dst)
	n := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if filepath.Clean(p) == dst {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ext || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyFile(p, filepath.Join(dst, d.Name())); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func joinURI(base, name string) string {
	if iopkg.IsLocal(base) {
		return filepath.Join(iopkg.LocalPath(base), name)
	}
	return strings.TrimRight(base, "/") + "/" + name
}
