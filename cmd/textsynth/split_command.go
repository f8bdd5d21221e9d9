package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourorg/textsynth/internal/split"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var (
		dataset string
		out     string
		ratio   float64
		seed    uint64
		copyImg bool
		reset   bool
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Partition ground truth into train and validation manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dataset == "" {
				dataset = cfg.OutputDir
			}
			if out == "" {
				out = cfg.Split.Dir
			}
			if out == "" {
				out = split.DefaultOutputDir(dataset)
			}
			if !cmd.Flags().Changed("ratio") {
				ratio = cfg.Split.ValidationRatio
			}
			if !cmd.Flags().Changed("copy-images") {
				copyImg = cfg.Split.CopyImages
			}
			opts := split.Options{
				DatasetDir:      dataset,
				OutputDir:       out,
				ValidationRatio: ratio,
				Seed:            cfg.Seed,
				CopyImages:      copyImg,
				Ext:             cfg.Ext,
				Logger:          ctx.log(),
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			if reset {
				if err := split.Reset(out); err != nil {
					return err
				}
			}
			st, err := split.Split(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("split", [][2]string{
				{"output", out},
				{"train", strconv.Itoa(st.Train)},
				{"validation", strconv.Itoa(st.Validation)},
				{"copied", strconv.Itoa(st.Copied)},
			}))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "", "Dataset directory (default: configured output dir)")
	f.StringVar(&out, "out", "", "Split output directory (default: sibling \"split\" dir)")
	f.Float64Var(&ratio, "ratio", split.DefaultValidationRatio, "Validation fraction")
	f.Uint64Var(&seed, "seed", 0, "Seed for a reproducible partition")
	f.BoolVar(&copyImg, "copy-images", false, "Copy artifacts into <out>/images")
	f.BoolVar(&reset, "reset", false, "Remove the split output directory first")
	return cmd
}
