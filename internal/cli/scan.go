package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/observability"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// scanFlags holds the command-line flags for the scan command.
// Flags that are set explicitly override .lockscan.toml.
type scanFlags struct {
	config         string
	exclude        []string
	formats        []string
	output         string
	format         string
	firstLevelOnly bool
}

// scanCommand creates the scan command.
func (c *CLI) scanCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Inventory every lockfile below a directory",
		Long: `Inventory every lockfile below a directory.

Scan walks root (default: the working directory) for package-lock.json,
yarn.lock and pnpm-lock.yaml files, skipping node_modules. Each lockfile is
parsed and correlated with the package.json next to it. Lockfiles that fail
to parse are reported and skipped.

Settings are read from <root>/.lockscan.toml (or --config) and may be
overridden with flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return c.runScan(cmd, root, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "config file (default: <root>/"+configFileName+")")
	cmd.Flags().StringSliceVarP(&flags.exclude, "exclude", "x", nil, "additional glob patterns to skip, relative to root")
	cmd.Flags().StringSliceVar(&flags.formats, "formats", nil, "lockfile kinds to scan: npm, yarn, pnpm (default: all)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "report format: json (default), text")
	cmd.Flags().BoolVar(&flags.firstLevelOnly, "first-level-only", false, "omit the full dependency list and map from the report")

	return cmd
}

// apply overlays explicitly set flags on cfg. Exclude patterns accumulate.
func (f scanFlags) apply(cmd *cobra.Command, cfg config) config {
	changed := cmd.Flags().Changed
	if changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, f.exclude...)
	}
	if changed("formats") {
		cfg.Formats = f.formats
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("first-level-only") {
		cfg.FirstLevelOnly = f.firstLevelOnly
	}
	return cfg
}

// runScan loads configuration, scans root and writes the report.
func (c *CLI) runScan(cmd *cobra.Command, root string, flags scanFlags) error {
	logger := loggerFromContext(cmd.Context())
	status := newPrinter(cmd.ErrOrStderr())

	abs, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", root)
	}

	cfg, cfgPath, err := loadConfig(flags.config, abs)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("loaded config", "path", cfgPath)
	}
	cfg = flags.apply(cmd, cfg)

	discoverOpts, err := cfg.discoverOptions()
	if err != nil {
		return err
	}
	format, err := cfg.reportFormat()
	if err != nil {
		return err
	}

	stats := &observability.Stats{}
	prog := newProgress(logger)
	results, err := scan.ParseLockFiles(abs, scan.Options{
		Logger:   logger,
		Hooks:    stats,
		Discover: discoverOpts,
	})
	if err != nil {
		return err
	}

	if stats.Found == 0 {
		status.info("No lockfiles found under %s", abs)
		return nil
	}

	for _, r := range results {
		status.success("%s %s", r.LockfilePath, styleDim.Render(fmt.Sprintf("(%d packages)", len(r.Versions))))
	}
	printFailures(status, stats.Failures)
	status.stats(
		count(stats.Parsed, "project", "projects"),
		count(stats.Skipped, "skipped", "skipped"),
		count(stats.Dependencies, "dependency", "dependencies"),
	)
	prog.done(fmt.Sprintf("Scanned %d lockfiles", stats.Found))

	rep := report.New(abs, results, report.Options{FirstLevelOnly: cfg.FirstLevelOnly})
	if cfg.Output == "" {
		return report.Write(rep, cmd.OutOrStdout(), format)
	}
	if err := report.Export(rep, cfg.Output, format); err != nil {
		return err
	}
	status.file(cfg.Output)
	return nil
}

// printFailures lists skipped lockfiles in path order.
func printFailures(p printer, failures map[string]error) {
	paths := make([]string, 0, len(failures))
	for path := range failures {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		p.failure("%s", path)
		p.detail("%s", errors.UserMessage(failures[path]))
	}
}
