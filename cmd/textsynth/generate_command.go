package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/charset"
	"github.com/yourorg/textsynth/internal/config"
	"github.com/yourorg/textsynth/internal/ledger"
	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/progress"
	"github.com/yourorg/textsynth/internal/reconcile"
	"github.com/yourorg/textsynth/internal/render"
	"github.com/yourorg/textsynth/internal/storage"
	"github.com/yourorg/textsynth/internal/types"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var noReconcile bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate samples into the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, &cfg); err != nil {
				return err
			}
			logger := ctx.log()

			res, runErr := runGenerate(cmd, cfg, logger)
			if res.RunID != "" {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary("generate", generateRows(res)))
			}
			if runErr != nil && !errors.Is(runErr, pipeline.ErrIncomplete) {
				return runErr
			}
			if !noReconcile {
				st, err := reconcile.Reconcile(
					filepath.Join(cfg.OutputDir, pipeline.RawLogName),
					filepath.Join(cfg.OutputDir, pipeline.LabelsName))
				if err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}
				logger.Info("labels reconciled", zap.Int("lines", st.Lines))
			}
			return runErr
		},
	}

	addRunFlags(cmd)
	cmd.Flags().BoolVar(&noReconcile, "no-reconcile", false, "Skip writing labels.txt after the run")
	return cmd
}

// addRunFlags registers the flags shared by generate and submit.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output directory")
	f.IntP("count", "n", 0, "Number of samples to generate")
	f.IntP("workers", "w", 0, "Worker pool size")
	f.Int64("start", -1, "First index; negative continues after an existing labels.txt")
	f.String("chars", "", "Character set file, one character per line")
	f.String("artifacts", "", "Artifact destination (directory or s3://bucket/prefix)")
	f.Int("max-attempts", 0, "Generator attempts per index")
	f.Uint64("seed", 0, "Seed for the word sampler and the split")
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputDir, _ = f.GetString("output")
	}
	if f.Changed("count") {
		cfg.Count, _ = f.GetInt("count")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("start") {
		cfg.StartIndex, _ = f.GetInt64("start")
	}
	if f.Changed("chars") {
		cfg.CharsFile, _ = f.GetString("chars")
	}
	if f.Changed("artifacts") {
		cfg.ArtifactURI, _ = f.GetString("artifacts")
	}
	if f.Changed("max-attempts") {
		cfg.MaxAttempts, _ = f.GetInt("max-attempts")
	}
	if f.Changed("seed") {
		seed, _ := f.GetUint64("seed")
		cfg.Seed = &seed
	}
	return cfg.Validate()
}

func runGenerate(cmd *cobra.Command, cfg config.Config, logger *zap.Logger) (types.GenerateResult, error) {
	conv, err := charset.Load(cfg.CharsFile)
	if err != nil {
		return types.GenerateResult{}, err
	}
	gens, err := render.Set(conv.Chars(), cfg.MinLen, cfg.MaxLen, render.Options{
		Width:  cfg.ImageWidth,
		Height: cfg.ImageHeight,
		Seed:   cfg.Seed,
	})
	if err != nil {
		return types.GenerateResult{}, err
	}

	start := cfg.StartIndex
	if start < 0 {
		if start, err = reconcile.StartIndex(filepath.Join(cfg.OutputDir, pipeline.LabelsName)); err != nil {
			return types.GenerateResult{}, err
		}
	}

	var store storage.ArtifactStore
	if cfg.ArtifactURI != "" {
		if store, err = storage.Open(cmd.Context(), cfg.ArtifactURI); err != nil {
			return types.GenerateResult{}, err
		}
	}

	led, err := ledger.Open(filepath.Join(cfg.OutputDir, pipeline.LedgerDirName))
	if err != nil {
		return types.GenerateResult{}, fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()

	sched, err := pipeline.New(gens, conv, pipeline.Options{
		Dir:         cfg.OutputDir,
		Store:       store,
		Ext:         cfg.Ext,
		Start:       start,
		Count:       cfg.Count,
		Workers:     cfg.Workers,
		Retry:       cfg.Retry(),
		FlushEvery:  cfg.FlushEvery,
		ReportEvery: cfg.ReportEvery,
		Reporter:    progress.ForTerminal(logger, int64(cfg.Count)),
		Ledger:      led,
		Logger:      logger,
	})
	if err != nil {
		return types.GenerateResult{}, err
	}
	return sched.Run(cmd.Context())
}

func generateRows(res types.GenerateResult) [][2]string {
	return [][2]string{
		{"run", res.RunID},
		{"start index", strconv.FormatInt(res.StartIndex, 10)},
		{"requested", strconv.Itoa(res.Count)},
		{"completed", strconv.FormatInt(res.Completed, 10)},
		{"skipped", strconv.FormatInt(res.Skipped, 10)},
		{"failed", strconv.Itoa(len(res.Failed))},
		{"orphaned", strconv.Itoa(len(res.Orphaned))},
		{"retries", strconv.FormatInt(res.Retries, 10)},
		{"duration", res.Duration().String()},
	}
}
