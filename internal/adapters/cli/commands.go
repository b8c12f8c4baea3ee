package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/trackcluster/internal/adapters/nats"
	"github.com/samirrijal/trackcluster/internal/core/ports"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <export> [filter]",
		Short: "List sessions, optionally filtered by id, sport type or notes",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			path, err := cliCtx.exportPath(args)
			if err != nil {
				return err
			}
			filter := ""
			if len(args) > 1 {
				filter = args[1]
			}

			loader, cleanup, err := cliCtx.Loader(path)
			if err != nil {
				return err
			}
			defer cleanup()

			sessions, err := usecases.NewSessionService(loader, nil).List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, sessions)
			}
			renderSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <export> <id>",
		Short: "Show one session with its track bounds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			loader, cleanup, err := cliCtx.Loader(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			session, err := usecases.NewSessionService(loader, nil).Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, session)
			}
			renderSession(cmd.OutOrStdout(), session)
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <export>",
		Short: "Load every session and report missing tracks, empty sessions and broken files",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			path, err := cliCtx.exportPath(args)
			if err != nil {
				return err
			}
			loader, cleanup, err := cliCtx.Loader(path)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}
			stats := usecases.BuildStats(res.Sessions)
			stats.LoadedFromPath = res.Origin
			for _, e := range res.Errors {
				stats.LoadErrors = append(stats.LoadErrors, e.Error())
			}
			cliCtx.pushMetrics(cmd.Context())

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, stats)
			}
			renderStats(cmd.OutOrStdout(), &stats)
			return nil
		},
	}
}

func newOverlapCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "overlap <export>",
		Short: "Group sessions whose bounding boxes coincide within the tolerance",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, args, false, publish)
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the report to NATS")
	return cmd
}

func newCompoundCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "compound <export>",
		Short: "Overlap groups plus sessions whose boxes touch along an edge",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, args, true, publish)
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "publish the report to NATS")
	return cmd
}

func runAnalysis(cmd *cobra.Command, args []string, compound, publish bool) error {
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
	loader, cleanup, err := cliCtx.Loader(path)
	if err != nil {
		return err
	}
	defer cleanup()

	var publisher ports.ReportPublisher
	if publish {
		p, err := natsadapter.NewPublisher(cliCtx.Config.NATS.URL)
		if err != nil {
			return fmt.Errorf("report publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	res, err := usecases.NewAnalysisService(loader, publisher).
		WithLogger(cliCtx.Logger).
		Analyze(cmd.Context(), usecases.AnalysisRequest{Tolerance: tol, Compound: compound})
	if err != nil {
		return err
	}
	cliCtx.pushMetrics(cmd.Context())

	if cliCtx.OutputFormat == "json" {
		return printJSON(cmd, res)
	}
	renderReport(cmd.OutOrStdout(), res.Report)
	return nil
}
