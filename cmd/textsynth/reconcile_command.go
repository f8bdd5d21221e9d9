package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/reconcile"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var raw, out string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Sort the raw label log into labels.txt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if raw == "" {
				raw = filepath.Join(cfg.OutputDir, pipeline.RawLogName)
			}
			if out == "" {
				out = filepath.Join(cfg.OutputDir, pipeline.LabelsName)
			}
			st, err := reconcile.Reconcile(raw, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("reconcile", [][2]string{
				{"output", out},
				{"lines", strconv.Itoa(st.Lines)},
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&raw, "raw", "", "Raw label log (default <output>/tmp_labels.txt)")
	cmd.Flags().StringVar(&out, "out", "", "Canonical label file (default <output>/labels.txt)")
	return cmd
}
