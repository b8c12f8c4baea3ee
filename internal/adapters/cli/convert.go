package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/trackcluster/internal/core/domain"
	"github.com/samirrijal/trackcluster/internal/core/usecases"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
)

// convertResult is the json output of convert.
type convertResult struct {
	Written []string `json:"written"`
	// Skipped lists sessions without a track when converting all.
	Skipped []string `json:"skipped"`
	// Clustered is true when overlap bounds were computed.
	Clustered bool `json:"clustered"`
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <export> <id|all> <dest>",
		Short: "Write sessions as GPX with their bounds, plus overlap bounds when a tolerance is set",
		Long: "convert writes one GPX file per session. The session bounds become\n" +
			"metadata bounds, corner waypoints and a bounds route. With a tolerance\n" +
			"the inner and outer bounds of the session's overlap cluster are added\n" +
			"the same way. For 'all', dest must be a directory and is created.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			id, dest := args[1], args[2]
			all := strings.EqualFold(id, "all")

			loader, cleanup, err := cliCtx.Loader(args[0])
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			loaded, err := loader.Load(ctx)
			if err != nil {
				return err
			}
			for _, e := range loaded.Errors {
				cliCtx.Logger.Warn("session skipped", "error", e)
			}

			var analysis *domain.Analysis
			tol, err := cliCtx.Config.Analysis.ToleranceValue()
			switch {
			case errors.Is(err, config.ErrToleranceUnset):
			case err != nil:
				return err
			default:
				res, err := usecases.NewAnalysisService(nil, nil).
					WithLogger(cliCtx.Logger).
					AnalyzeSessions(ctx, loaded.Sessions, usecases.AnalysisRequest{Tolerance: tol})
				if err != nil {
					return err
				}
				analysis = res.Analysis
			}

			result := convertResult{Written: []string{}, Skipped: []string{}, Clustered: analysis != nil}
			var targets []*domain.Session
			if all {
				if err := os.MkdirAll(dest, 0o755); err != nil {
					return fmt.Errorf("destination: %w", err)
				}
				for i := range loaded.Sessions {
					s := &loaded.Sessions[i]
					if !s.HasBounds() {
						result.Skipped = append(result.Skipped, s.ID)
						continue
					}
					targets = append(targets, s)
				}
			} else {
				for i := range loaded.Sessions {
					if loaded.Sessions[i].ID == id {
						targets = append(targets, &loaded.Sessions[i])
						break
					}
				}
				if len(targets) == 0 {
					return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
				}
			}

			written := make([]string, len(targets))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(cliCtx.Config.Export.Workers, 1))
			for i, s := range targets {
				g.Go(func() error {
					var clusters *domain.SessionClusters
					if analysis != nil {
						if c, ok := analysis.Get(s.ID); ok {
							clusters = c
						}
					}
					path, err := loader.WriteSessionGPX(gctx, s, clusters, dest)
					if err != nil {
						return err
					}
					written[i] = path
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			result.Written = append(result.Written, written...)
			cliCtx.pushMetrics(ctx)

			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, result)
			}
			w := cmd.OutOrStdout()
			if !all {
				fmt.Fprintf(w, "Session %s written to %s\n", id, result.Written[0])
				return nil
			}
			fmt.Fprintf(w, "%d sessions written to %s\n", len(result.Written), dest)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(w, "Without track, skipped: %s\n", strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}
}

func newPhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <export> <photo-id>",
		Short: "Find the session a photo belongs to",
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

			photo, session, err := loader.FindPhoto(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, struct {
					Photo   any `json:"photo"`
					Session any `json:"session"`
				}{photo, session})
			}
			renderSession(cmd.OutOrStdout(), session)
			fmt.Fprintln(cmd.OutOrStdout())
			renderPhoto(cmd.OutOrStdout(), photo)
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <export>",
		Short: "Show the profile of the export's owner",
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

			user, err := loader.User()
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "json" {
				return printJSON(cmd, user)
			}
			renderUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}
