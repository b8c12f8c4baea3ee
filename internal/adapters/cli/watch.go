package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/trackcluster/internal/adapters/nats"
	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/ports"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print analysis reports as they are published to NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			sub, err := natsadapter.NewSubscriber(cliCtx.Config.NATS.URL)
			if err != nil {
				return fmt.Errorf("report subscriber: %w", err)
			}
			defer sub.Close()

			if err := watchReports(cmd, cliCtx, sub); err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}

// watchReports renders every delivered report until the command context
// ends.
func watchReports(cmd *cobra.Command, cliCtx *CLIContext, sub ports.ReportSubscriber) error {
	out := cmd.OutOrStdout()
	err := sub.SubscribeReports(cmd.Context(), func(ctx context.Context, report *domain.Report) error {
		cliCtx.Logger.Debug("report received", "generated_at", report.GeneratedAt, "sessions", report.Sessions)
		if cliCtx.OutputFormat == "json" {
			return printJSON(cmd, report)
		}
		fmt.Fprintf(out, "--- report %s ---\n", report.GeneratedAt.Format(dateLayout))
		renderReport(out, report)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe reports: %w", err)
	}
	cliCtx.Logger.Info("watching reports", "subject", natsadapter.ReportSubjects)
	return nil
}
