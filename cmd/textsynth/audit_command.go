package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yourorg/textsynth/internal/audit"
	"github.com/yourorg/textsynth/internal/ledger"
	"github.com/yourorg/textsynth/internal/pipeline"
	"github.com/yourorg/textsynth/internal/storage"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var dir, artifacts string
	var useLedger bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report artifacts without log lines and log lines without artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.OutputDir
			}
			if artifacts == "" {
				artifacts = cfg.ArtifactURI
			}
			if artifacts == "" {
				artifacts = dir
			}
			store, err := storage.Open(cmd.Context(), artifacts)
			if err != nil {
				return err
			}
			opts := audit.Options{
				Store:  store,
				RawLog: filepath.Join(dir, pipeline.RawLogName),
				Ext:    cfg.Ext,
			}
			if useLedger {
				led, err := ledger.Open(filepath.Join(dir, pipeline.LedgerDirName))
				if err != nil {
					return err
				}
				defer led.Close()
				opts.Ledger = led
			}
			rep, err := audit.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("audit", [][2]string{
				{"artifacts", strconv.Itoa(rep.Artifacts)},
				{"logged", strconv.Itoa(rep.Logged)},
				{"orphaned", strconv.Itoa(len(rep.Orphaned))},
				{"missing", strconv.Itoa(len(rep.Missing))},
			}))
			if !rep.Clean() {
				return fmt.Errorf("audit: %d orphaned artifacts, %d missing artifacts", len(rep.Orphaned), len(rep.Missing))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Dataset directory (default: configured output dir)")
	cmd.Flags().StringVar(&artifacts, "artifacts", "", "Artifact location if not the dataset directory")
	cmd.Flags().BoolVar(&useLedger, "ledger", false, "Read logged indices from the ledger instead of the raw log")
	return cmd
}
