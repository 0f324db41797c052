package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lockscan/pkg/lockfile"
	"github.com/matzehuels/lockscan/pkg/report"
	"github.com/matzehuels/lockscan/pkg/scan"
)

// fileCommand creates the file command for parsing a single lockfile.
func (c *CLI) fileCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "file <lockfile>",
		Short: "Parse a single lockfile",
		Long: `Parse a single lockfile and print its dependency list and map as JSON.

The format is chosen from the file name: package-lock.json, yarn.lock or
pnpm-lock.yaml. Any other name yields an empty result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFile(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runFile(cmd *cobra.Command, path, output string) error {
	logger := loggerFromContext(cmd.Context())

	if lockfile.Detect(path) == lockfile.FormatUnknown {
		newPrinter(cmd.ErrOrStderr()).warning("%s is not a recognized lockfile name", filepath.Base(path))
	}

	res, err := scan.ParseSingleLockFile(path, scan.Options{Logger: logger})
	if err != nil {
		return err
	}

	out, err := openOutput(output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer out.Close()

	if err := report.WriteLockResult(out, res); err != nil {
		return err
	}
	if output != "" {
		logger.Infof("Wrote %d dependencies to %s", len(res.Dependencies), output)
	}
	return nil
}
