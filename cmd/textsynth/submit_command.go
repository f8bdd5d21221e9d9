package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/types"
	"github.com/yourorg/textsynth/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait, resetSplit bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Start a DatasetWorkflow on the Temporal task queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyGenerateFlags(cmd, &cfg); err != nil {
				return err
			}
			p := cfg.DatasetParams()
			p.ResetSplit = resetSplit

			c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort, Namespace: cfg.Temporal.Namespace})
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
				ID:        "textsynth-" + uuid.NewString(),
				TaskQueue: cfg.Temporal.TaskQueue,
			}, workflow.DatasetWorkflow, p)
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			ctx.log().Info("workflow started", zap.String("id", run.GetID()), zap.String("run", run.GetRunID()))
			fmt.Fprintf(cmd.OutOrStdout(), "workflow %s run %s\n", run.GetID(), run.GetRunID())
			if !wait {
				return nil
			}

			var res types.DatasetResult
			if err := run.Get(cmd.Context(), &res); err != nil {
				return err
			}
			rows := append(generateRows(res.Generate),
				[2]string{"labels", strconv.Itoa(res.Reconcile.Lines)},
				[2]string{"train", strconv.Itoa(res.Split.Train)},
				[2]string{"validation", strconv.Itoa(res.Split.Validation)},
			)
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("dataset", rows))
			return nil
		},
	}
	addRunFlags(cmd)
	f := cmd.Flags()
	f.BoolVar(&resetSplit, "reset-split", false, "Remove the split directory before splitting")
	f.BoolVar(&wait, "wait", false, "Wait for the workflow and print its result")
	return cmd
}
