// Package pkg provides the core libraries behind pkgrun.
//
// # Overview
//
// pkgrun drives an external package manager (npm, or the compatible yarn)
// for the packages of a monorepo. The libraries are organized as:
//
//  1. [manifest] - Temporary manifest substitution: back up package.json,
//     write a synthetic manifest declaring an explicit dependency subset,
//     and restore the original afterwards.
//  2. [npm] - Command construction for every client action and the Runner
//     that executes them.
//  3. [exec] - Blocking, asynchronous and streaming process execution.
//  4. [async] - The Future type returned by asynchronous operations.
//  5. [errors] - Code-based structured errors and input validation.
//  6. [observability] - Hooks for process and swap events.
//
// # Architecture
//
// Installing a dependency subset into one package directory:
//
//	caller
//	   ↓
//	[manifest].Swap        package.json → package.json.backup, synthetic written
//	   ↓
//	[npm].Runner           npm|yarn install with client args, mutex, registry
//	   ↓
//	[exec].Executor        os/exec, captured or streamed output
//	   ↓
//	Backup.Restore         package.json.backup → package.json (always)
//
// The Runner never swaps manifests itself; composing swap, install and
// restore is the caller's job, as internal/cli does for "pkgrun install".
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/pkgrun/pkg/exec"
//	    "github.com/matzehuels/pkgrun/pkg/manifest"
//	    "github.com/matzehuels/pkgrun/pkg/npm"
//	)
//
//	deps, _ := manifest.ParseDependencies([]string{"lodash@^4.17.0"}, false)
//
//	backup, err := manifest.Swap(ctx, "packages/app", deps)
//	if err != nil {
//	    return err
//	}
//	defer backup.Restore()
//
//	runner := npm.NewRunner(exec.NewLocal(nil), nil)
//	cfg := npm.Config{NpmClient: "yarn", Mutex: "file:/tmp/.yarn-mutex"}
//	_, err = runner.InstallDependencies(ctx, "packages/app", deps, cfg, npm.InstallOptions{}).Result()
//
// [manifest]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/manifest
// [npm]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/npm
// [exec]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/exec
// [async]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/async
// [errors]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pkgrun/pkg/observability
package pkg
