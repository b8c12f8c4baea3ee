// Package cli implements the trackcluster command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/samirrijal/trackcluster/internal/adapters/export"
	"github.com/samirrijal/trackcluster/internal/adapters/valkey"
	"github.com/samirrijal/trackcluster/internal/pkg/config"
	"github.com/samirrijal/trackcluster/internal/pkg/logging"
	"github.com/samirrijal/trackcluster/internal/pkg/metrics"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	ExportPath   string
	Tolerance    string
	Workers      int
	BoundsCache  bool
	NoColor      bool
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       *slog.Logger
	OutputFormat string
	BoundsCache  bool
}

// NewRootCommand creates the root command with its global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "trackcluster",
		Short: "Group sport sessions whose tracks cover the same area",
		Long: "trackcluster reads a sport activity export and groups sessions whose\n" +
			"bounding boxes coincide within a tolerance (overlap) or touch along an\n" +
			"edge (compound).",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json)")
	pf.StringVarP(&opts.ExportPath, "export", "e", "", "export root or Sport-sessions directory, overrides export.path")
	pf.StringVarP(&opts.Tolerance, "tolerance", "t", "", "tolerance in degrees, overrides analysis.tolerance")
	pf.IntVar(&opts.Workers, "workers", 0, "sessions parsed concurrently, overrides export.workers")
	pf.BoolVar(&opts.BoundsCache, "bounds-cache", false, "cache parsed track bounds in valkey")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newListCmd(),
		newInfoCmd(),
		newCheckCmd(),
		newOverlapCmd(),
		newCompoundCmd(),
		newSubmitCmd(),
		newWatchCmd(),
		newConvertCmd(),
		newPhotoCmd(),
		newUserCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", opts.OutputFormat)
	}

	cfg, err := config.LoadFile("trackcluster", opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.ExportPath != "" {
		cfg.Export.Path = opts.ExportPath
	}
	if opts.Tolerance != "" {
		cfg.Analysis.Tolerance = opts.Tolerance
	}
	if opts.Workers > 0 {
		cfg.Export.Workers = opts.Workers
	}
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.NoColor {
		color.NoColor = true
	}

	// Logs go to stderr so that json output stays parseable.
	logger := logging.New(cmd.ErrOrStderr(), level, "text")

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		BoundsCache:  opts.BoundsCache,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Tolerance returns the configured tolerance or an error naming the flag.
func (c *CLIContext) Tolerance() (decimal.Decimal, error) {
	tol, err := c.Config.Analysis.ToleranceValue()
	if errors.Is(err, config.ErrToleranceUnset) {
		return tol, errors.New("no tolerance given: pass --tolerance or set analysis.tolerance")
	}
	return tol, err
}

// Loader opens the export at path. The bounds cache is attached when
// requested and reachable.
func (c *CLIContext) Loader(path string) (*export.Loader, func(), error) {
	opts := []export.Option{
		export.WithWorkers(c.Config.Export.Workers),
		export.WithLogger(c.Logger),
	}
	cleanup := func() {}
	if c.BoundsCache {
		cache, err := valkey.New(c.Config.Valkey.Addr)
		if err != nil {
			c.Logger.Warn("bounds cache unavailable", "addr", c.Config.Valkey.Addr, "error", err)
		} else {
			opts = append(opts, export.WithBoundsCache(cache, c.Config.Valkey.BoundsTTL))
			cleanup = cache.Close
		}
	}
	l, err := export.New(path, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return l, cleanup, nil
}

// pushMetrics sends this run's metrics to the Pushgateway when one is
// configured. Failures are logged only.
func (c *CLIContext) pushMetrics(ctx context.Context) {
	url := c.Config.Metrics.Pushgateway
	if url == "" {
		return
	}
	if err := metrics.Push(ctx, url, "trackcluster"); err != nil {
		c.Logger.Warn("metrics push failed", "error", err)
	}
}

// exportPath returns the positional export path, or export.path.
func (c *CLIContext) exportPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.Config.Export.Path != "" {
		return c.Config.Export.Path, nil
	}
	return "", errors.New("no export path given: pass it as argument or set export.path")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
