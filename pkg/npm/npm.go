// Package npm drives the external package manager for a monorepo.
//
// # Overview
//
// The package has two layers:
//
//   - Command builders ([BuildInstall], [BuildRunScript], [BuildDistTag],
//     [BuildPublish], [ExecOptions]) are pure functions producing the
//     executable, argument vector and execution options for each action.
//   - [Runner] composes a builder with an [exec.Executor] for each action,
//     choosing blocking, asynchronous or streaming execution.
//
// # Install
//
// The install policy is an ordered rule table:
//
//	base            npm|yarn   install
//	global-style    npm        --global-style
//	yarn + mutex    -          --mutex <token>
//	yarn            -          --non-interactive
//	client args     -          <args...>
//
// Global-style forces npm before the yarn rules run, so a yarn
// configuration with global-style produces a plain npm install.
//
// Runner never swaps manifests. Installing a dependency subset is done by
// the caller around InstallDependencies with the manifest package.
//
// # Errors
//
// Process failures surface as [errors.ExecutionError]; nothing is retried.
//
// [exec.Executor]: github.com/matzehuels/pkgrun/pkg/exec.Executor
// [errors.ExecutionError]: github.com/matzehuels/pkgrun/pkg/errors.ExecutionError
package npm

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgrun/pkg/async"
	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/exec"
	"github.com/matzehuels/pkgrun/pkg/manifest"
)

// Runner executes package-manager actions through an Executor.
// It holds no per-call state and is safe for concurrent use across
// different directories.
type Runner struct {
	exec   exec.Executor
	logger *log.Logger
}

// NewRunner creates a Runner. A nil logger falls back to log.Default().
func NewRunner(e exec.Executor, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{exec: e, logger: logger}
}

// InstallDependencies installs in dir with the install command for cfg and
// opts. With no dependencies it resolves immediately without starting a
// process. The manifest in dir is used as is; swapping it for deps is the
// caller's job.
func (r *Runner) InstallDependencies(ctx context.Context, dir string, deps []manifest.Dependency, cfg Config, opts InstallOptions) *async.Future[exec.Result] {
	r.logger.Debug("installInDir", "dir", filepath.Base(dir), "dependencies", dependencyNames(deps))

	if len(deps) == 0 {
		r.logger.Debug("installInDir", "msg", "no dependencies to install")
		return async.Resolved(exec.Result{}, nil)
	}
	return r.install(ctx, dir, cfg, opts)
}

// InstallOriginalDependencies installs whatever the manifest in dir
// declares, with the same command as InstallDependencies.
func (r *Runner) InstallOriginalDependencies(ctx context.Context, dir string, cfg Config, opts InstallOptions) *async.Future[exec.Result] {
	r.logger.Debug("installInDir", "dir", filepath.Base(dir), "manifest", manifest.Path(dir))
	return r.install(ctx, dir, cfg, opts)
}

func (r *Runner) install(ctx context.Context, dir string, cfg Config, opts InstallOptions) *async.Future[exec.Result] {
	if err := cfg.Validate(); err != nil {
		return async.Resolved(exec.Result{}, err)
	}
	cmd := BuildInstall(cfg, opts)
	r.logger.Debug("installInDir", "cmd", cmd.String())
	return r.exec.Start(ctx, cmd.Name, cmd.Args, ExecOptions(dir, cfg.Registry))
}

// AddDistTag points tag at pkg@version. It blocks until npm exits.
func (r *Runner) AddDistTag(ctx context.Context, dir, pkg, version, tag, registry string) error {
	r.logger.Debug("addDistTag", "tag", tag, "version", version, "package", pkg)
	if err := validateDistTag(pkg, tag); err != nil {
		return err
	}
	if version == "" {
		return errors.New(errors.ErrCodeInvalidInput, "version cannot be empty")
	}
	cmd := BuildDistTag(DistTagAdd, pkg, version, tag)
	_, err := r.exec.Run(ctx, cmd.Name, cmd.Args, ExecOptions(dir, registry))
	return err
}

// RemoveDistTag removes tag from pkg. It blocks until npm exits.
func (r *Runner) RemoveDistTag(ctx context.Context, dir, pkg, tag, registry string) error {
	r.logger.Debug("removeDistTag", "tag", tag, "package", pkg)
	if err := validateDistTag(pkg, tag); err != nil {
		return err
	}
	cmd := BuildDistTag(DistTagRemove, pkg, "", tag)
	_, err := r.exec.Run(ctx, cmd.Name, cmd.Args, ExecOptions(dir, registry))
	return err
}

// CheckDistTag reports whether tag appears anywhere in the dist-tag listing
// of pkg. It blocks until npm exits. The check is a substring match over
// the raw listing, so "next" also matches a "next-major" tag.
func (r *Runner) CheckDistTag(ctx context.Context, dir, pkg, tag, registry string) (bool, error) {
	r.logger.Debug("checkDistTag", "tag", tag, "package", pkg)
	if err := validateDistTag(pkg, tag); err != nil {
		return false, err
	}
	cmd := BuildDistTag(DistTagList, pkg, "", tag)
	out, err := r.exec.Run(ctx, cmd.Name, cmd.Args, ExecOptions(dir, registry))
	if err != nil {
		return false, err
	}
	return strings.Contains(out, tag), nil
}

// RunScriptInDirectory runs "npm run script args..." in dir.
func (r *Runner) RunScriptInDirectory(ctx context.Context, script string, args []string, dir string) *async.Future[exec.Result] {
	r.logger.Debug("runScriptInDir", "script", script, "args", args, "dir", filepath.Base(dir))
	cmd := BuildRunScript(script, args)
	return r.exec.Start(ctx, cmd.Name, cmd.Args, ExecOptions(dir, ""))
}

// RunScriptStreaming runs "npm run script args..." in pkg.Location,
// streaming output labelled with pkg.Name.
func (r *Runner) RunScriptStreaming(ctx context.Context, script string, args []string, pkg Package) *async.Future[exec.Result] {
	r.logger.Debug("runScriptInPackageStreaming", "script", script, "args", args, "package", pkg.Name)
	cmd := BuildRunScript(script, args)
	return r.exec.Stream(ctx, cmd.Name, cmd.Args, ExecOptions(pkg.Location, ""), pkg.Name)
}

// PublishTagged runs "npm publish --tag tag" in dir.
func (r *Runner) PublishTagged(ctx context.Context, tag, dir, registry string) *async.Future[exec.Result] {
	r.logger.Debug("publishTaggedInDir", "tag", tag, "dir", filepath.Base(dir))
	if err := errors.ValidateTag(tag); err != nil {
		return async.Resolved(exec.Result{}, err)
	}
	cmd := BuildPublish(tag)
	return r.exec.Start(ctx, cmd.Name, cmd.Args, ExecOptions(dir, registry))
}

func validateDistTag(pkg, tag string) error {
	if err := errors.ValidateNpmPackageName(pkg); err != nil {
		return err
	}
	return errors.ValidateTag(tag)
}

func dependencyNames(deps []manifest.Dependency) []string {
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.String()
	}
	return names
}
