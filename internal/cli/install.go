package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/manifest"
	"github.com/matzehuels/pkgrun/pkg/npm"
)

// installOpts holds the command-line flags for the install command.
type installOpts struct {
	deps        []string // name[@range], written to dependencies
	devDeps     []string // name[@range], written to devDependencies
	globalStyle bool
	original    bool // install the manifest as is, without swapping
	concurrency int
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts installOpts

	cmd := &cobra.Command{
		Use:   "install [dir...]",
		Short: "Install dependencies in package directories",
		Long: `Install a dependency subset in one or more package directories.

Each directory's package.json is moved aside and replaced with a manifest
declaring only the given dependencies, the client installs, and the
original manifest is put back, also when the install fails or is
interrupted. With --original the existing manifest is installed as is.

Directories default to the current directory.`,
		Example: `  # Install two dependencies into a package
  pkgrun install packages/app --dep react@^18.2.0 --dev-dep typescript@~5.4.0

  # Install every package's own manifest with yarn, four at a time
  pkgrun install packages/* --original --npm-client yarn --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.deps, "dep", nil, "dependency as name[@range] (repeatable)")
	cmd.Flags().StringArrayVar(&opts.devDeps, "dev-dep", nil, "dev dependency as name[@range] (repeatable)")
	cmd.Flags().BoolVar(&opts.globalStyle, "global-style", false, "install with npm --global-style (forces npm)")
	cmd.Flags().BoolVar(&opts.original, "original", false, "install each directory's own manifest without swapping")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "directories installed in parallel (default from config, or 4)")

	return cmd
}

func (c *CLI) runInstall(cmd *cobra.Command, args []string, opts installOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	f, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := f.Effective()

	deps, err := parseInstallDeps(opts)
	if err != nil {
		return err
	}
	if opts.original && len(deps) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "--original cannot be combined with --dep or --dev-dep")
	}

	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	concurrency := f.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency = opts.concurrency
	}
	if concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "--concurrency must be at least 1, got %d", concurrency)
	}

	runner := c.newRunner()
	iopts := npm.InstallOptions{GlobalStyle: opts.globalStyle}

	if !opts.original && len(deps) == 0 {
		for _, dir := range dirs {
			if _, err := runner.InstallDependencies(ctx, dir, nil, cfg, iopts).Result(); err != nil {
				return err
			}
		}
		c.printInfo("No dependencies to install")
		return nil
	}

	if !opts.original {
		c.printInfo("Installing %s", dependencyList(deps))
	}
	c.printCommand(plural(len(dirs), "1 package", fmt.Sprintf("%d packages", len(dirs))), npm.BuildInstall(cfg, iopts).String())

	prog := newProgress(logger)
	var spin *Spinner
	if c.interactive() && logger.GetLevel() > log.DebugLevel {
		spin = newSpinner(ctx, c.errOut, installStatus(0, len(dirs)))
		spin.Start()
		defer spin.Stop()
	}

	var finished atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, dir := range dirs {
		g.Go(func() error {
			var err error
			if opts.original {
				_, err = runner.InstallOriginalDependencies(gctx, dir, cfg, iopts).Result()
			} else {
				err = installSubset(gctx, logger, runner, dir, deps, cfg, iopts)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", displayDir(dir), err)
			}
			n := finished.Add(1)
			if spin != nil {
				spin.SetMessage(installStatus(int(n), len(dirs)))
			}
			logger.Debug("installed", "dir", dir)
			return nil
		})
	}
	err = g.Wait()
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		c.printSuccess("%s", StyleHighlight.Render(displayDir(dir)))
	}
	prog.done(fmt.Sprintf("Installed in %d %s", len(dirs), plural(len(dirs), "package", "packages")))
	return nil
}

// installSubset swaps in a manifest declaring deps, installs, and restores
// the original manifest whatever the install outcome. A restore failure is
// returned when the install itself succeeded, and logged otherwise.
func installSubset(ctx context.Context, logger *log.Logger, runner *npm.Runner, dir string, deps []manifest.Dependency, cfg npm.Config, opts npm.InstallOptions) (err error) {
	backup, err := manifest.Swap(ctx, dir, deps)
	if err != nil {
		// A failed write leaves the original at the backup path.
		if errors.Is(err, errors.ErrCodeWrite) {
			if rerr := manifest.Restore(dir); rerr != nil {
				logger.Error("manifest left at backup path", "dir", dir, "backup", manifest.BackupPath(dir), "err", rerr)
			}
		}
		return err
	}
	defer func() {
		if rerr := backup.Restore(); rerr != nil {
			if err == nil {
				err = rerr
				return
			}
			logger.Error("restore failed", "dir", dir, "err", rerr)
		}
	}()

	// Result, not Wait: a cancelled install is killed, and the manifest must
	// not come back while the process may still be running.
	_, err = runner.InstallDependencies(ctx, dir, deps, cfg, opts).Result()
	return err
}

func parseInstallDeps(opts installOpts) ([]manifest.Dependency, error) {
	deps, err := manifest.ParseDependencies(opts.deps, false)
	if err != nil {
		return nil, err
	}
	dev, err := manifest.ParseDependencies(opts.devDeps, true)
	if err != nil {
		return nil, err
	}
	return append(deps, dev...), nil
}

func dependencyList(deps []manifest.Dependency) string {
	s := ""
	for i, d := range deps {
		if i > 0 {
			s += StyleDim.Render(", ")
		}
		s += StyleValue.Render(d.String())
	}
	return s
}

func installStatus(done, total int) string {
	return fmt.Sprintf("Installing (%d/%d)", done, total)
}

// displayDir names dir for output: the directory's own name for ".",
// the cleaned path otherwise.
func displayDir(dir string) string {
	if filepath.Clean(dir) == "." {
		if abs, err := filepath.Abs(dir); err == nil {
			return filepath.Base(abs)
		}
	}
	return filepath.Clean(dir)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
