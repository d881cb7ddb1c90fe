package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrun/pkg/manifest"
	"github.com/matzehuels/pkgrun/pkg/npm"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	dir    string
	stream bool
	label  string // streamed output prefix; defaults to the package name
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run [flags] <script> [args...]",
		Short: "Run an npm script in a package",
		Long: `Run "npm run <script> [args...]" in a package directory.

By default the script's output is printed once it finishes. With --stream
each line is printed as it arrives, prefixed with the package name or
--label. Flags for pkgrun must come before the script name; everything
after it is passed to the script.`,
		Example: `  pkgrun run --dir packages/app test -- --ci
  pkgrun run --dir packages/app --stream build`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScript(cmd, args[0], args[1:], opts)
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "package directory")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "stream output line by line with a label prefix")
	cmd.Flags().StringVar(&opts.label, "label", "", "prefix for streamed lines (default: package name)")

	return cmd
}

func (c *CLI) runScript(cmd *cobra.Command, script string, args []string, opts runOpts) error {
	ctx := cmd.Context()
	runner := c.newRunner()

	if !opts.stream {
		res, err := runner.RunScriptInDirectory(ctx, script, args, opts.dir).Result()
		if err != nil {
			return err
		}
		c.printRaw(res.Stdout)
		return nil
	}

	pkg := npm.Package{Name: opts.label, Location: opts.dir}
	if pkg.Name == "" {
		pkg.Name = packageName(opts.dir)
	}
	_, err := runner.RunScriptStreaming(ctx, script, args, pkg).Result()
	return err
}

// packageName returns the manifest name of the package in dir, falling
// back to the directory name.
func packageName(dir string) string {
	if doc, err := manifest.ReadManifest(manifest.Path(dir)); err == nil && doc.Name != "" {
		return doc.Name
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return filepath.Base(abs)
	}
	return dir
}
