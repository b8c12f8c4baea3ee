package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/workflows"
)

func newSubmitCmd() *cobra.Command {
	var (
		wait    bool
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "submit <export>",
		Short: "Run the analysis as a Temporal workflow on the worker fleet",
		Long: "submit starts an AnalysisWorkflow for an export directory the workers\n" +
			"can read. With --wait it blocks until the report is ready.",
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			tol, err := cliCtx.Tolerance()
			if err != nil {
				return err
			}
			path, err := cliCtx.exportPath(args)
			if err != nil {
				return err
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}

			tc := cliCtx.Config.Temporal
			c, err := client.Dial(client.Options{
				HostPort:  tc.HostPort,
				Namespace: tc.Namespace,
				Logger:    cliCtx.Logger,
			})
			if err != nil {
				return fmt.Errorf("temporal client: %w", err)
			}
			defer c.Close()

			input := workflows.AnalysisInput{
				ExportPath: path,
				Tolerance:  tol.String(),
				Compound:   cliCtx.Config.Analysis.Compound,
				Publish:    publish,
			}
			run, err := c.ExecuteWorkflow(cmd.Context(), client.StartWorkflowOptions{
				ID:        fmt.Sprintf("analysis-%d", time.Now().UnixNano()),
				TaskQueue: tc.TaskQueue,
			}, workflows.AnalysisWorkflowName, input)
			if err != nil {
				return fmt.Errorf("start workflow: %w", err)
			}
			cliCtx.Logger.Info("workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())

			if !wait {
				if cliCtx.OutputFormat == "json" {
					return printJSON(cmd, map[string]string{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started workflow %s (run %s)\n", run.GetID(), run.GetRunID())
				return nil
			}

			var report domain.Report
			if err := run.Get(cmd.Context(), &report); err != nil {
				return fmt.Errorf("workflow %s: %w", run.GetID(), err)
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, &report)
			}
			renderReport(cmd.OutOrStdout(), &report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the workflow and print its report")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the report to NATS when done")
	return cmd
}
