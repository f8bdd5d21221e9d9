// Package config holds the settings shared by the CLI and the Temporal worker.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/yourorg/textsynth/internal/retry"
	"github.com/yourorg/textsynth/internal/split"
	"github.com/yourorg/textsynth/internal/types"
)

var ErrInvalid = errors.New("invalid config")

type Split struct {
	Dir             string  `toml:"dir"`
	ValidationRatio float64 `toml:"validation_ratio"`
	CopyImages      bool    `toml:"copy_images"`
}

type Temporal struct {
	HostPort  string `toml:"host_port"`
	Namespace string `toml:"namespace"`
	TaskQueue string `toml:"task_queue"`
}

type Config struct {
	OutputDir   string `toml:"output_dir"`
	ArtifactURI string `toml:"artifact_uri"`
	CharsFile   string `toml:"chars_file"`
	Count       int    `toml:"num_samples"`
	Workers     int    `toml:"workers"`
	// StartIndex < 0 derives the start from an existing labels.txt.
	StartIndex  int64   `toml:"start_index"`
	MaxAttempts int     `toml:"max_attempts"`
	MinLen      int     `toml:"min_len"`
	MaxLen      int     `toml:"max_len"`
	ImageWidth  int     `toml:"image_width"`
	ImageHeight int     `toml:"image_height"`
	Ext         string  `toml:"ext"`
	FlushEvery  int64   `toml:"flush_every"`
	ReportEvery int64   `toml:"report_every"`
	Seed        *uint64 `toml:"seed"`
	LogLevel    string  `toml:"log_level"`
	MetricsAddr string  `toml:"metrics_addr"`

	Split    Split    `toml:"split"`
	Temporal Temporal `toml:"temporal"`
}

func Default() Config {
	return Config{
		OutputDir:   "out",
		CharsFile:   "chars.txt",
		Workers:     max(runtime.NumCPU(), 2),
		StartIndex:  -1,
		MaxAttempts: retry.DefaultPolicy().MaximumAttempts,
		MinLen:      3,
		MaxLen:      10,
		ImageWidth:  256,
		ImageHeight: 32,
		Ext:         ".jpg",
		FlushEvery:  1000,
		ReportEvery: 100,
		LogLevel:    "info",
		MetricsAddr: ":9090",
		Split: Split{
			ValidationRatio: split.DefaultValidationRatio,
		},
		Temporal: Temporal{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: "textsynth",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := cfg.FromEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overrides fields from TS_*, LOG_LEVEL, METRICS_ADDR and TEMPORAL_*.
func (c *Config) FromEnv() error {
	c.OutputDir = getenv("TS_OUTPUT_DIR", c.OutputDir)
	c.ArtifactURI = getenv("TS_ARTIFACT_URI", c.ArtifactURI)
	c.CharsFile = getenv("TS_CHARS_FILE", c.CharsFile)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.MetricsAddr = getenv("METRICS_ADDR", c.MetricsAddr)
	c.Split.Dir = getenv("TS_SPLIT_DIR", c.Split.Dir)
	c.Temporal.HostPort = getenv("TEMPORAL_TARGET_HOST", getenv("TEMPORAL_ADDRESS", c.Temporal.HostPort))
	c.Temporal.Namespace = getenv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Temporal.TaskQueue = getenv("TEMPORAL_TASK_QUEUE", c.Temporal.TaskQueue)

	for _, v := range []struct {
		key string
		dst *int
	}{
		{"TS_NUM_SAMPLES", &c.Count},
		{"TS_WORKERS", &c.Workers},
		{"TS_MAX_ATTEMPTS", &c.MaxAttempts},
	} {
		if s := os.Getenv(v.key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("%w: %s=%q", ErrInvalid, v.key, s)
			}
			*v.dst = n
		}
	}
	if s := os.Getenv("TS_SEED"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TS_SEED=%q", ErrInvalid, s)
		}
		c.Seed = &n
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	case c.Count < 0:
		return fmt.Errorf("%w: num_samples=%d", ErrInvalid, c.Count)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers=%d", ErrInvalid, c.Workers)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: max_attempts=%d", ErrInvalid, c.MaxAttempts)
	case c.MinLen < 1 || c.MaxLen < c.MinLen:
		return fmt.Errorf("%w: word length range [%d, %d]", ErrInvalid, c.MinLen, c.MaxLen)
	case c.Split.ValidationRatio <= 0 || c.Split.ValidationRatio >= 1:
		return fmt.Errorf("%w: validation_ratio=%v", ErrInvalid, c.Split.ValidationRatio)
	}
	return nil
}

func (c Config) Retry() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaximumAttempts = c.MaxAttempts
	return p
}

func (c Config) DatasetParams() types.DatasetParams {
	return types.DatasetParams{
		OutputDir:       c.OutputDir,
		ArtifactURI:     c.ArtifactURI,
		Count:           c.Count,
		Workers:         c.Workers,
		StartIndex:      c.StartIndex,
		MaxAttempts:     c.MaxAttempts,
		SplitDir:        c.Split.Dir,
		ValidationRatio: c.Split.ValidationRatio,
		Seed:            c.Seed,
		CopyImages:      c.Split.CopyImages,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
