// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about external process execution and manifest swaps.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExecHooks(&myExecHooks{})
//	    observability.SetSwapHooks(&mySwapHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Exec().OnExecStart(ctx, "npm", args, dir)
//	// ... run process ...
//	observability.Exec().OnExecComplete(ctx, "npm", args, exitCode, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Exec Hooks
// =============================================================================

// ExecHooks receives events from external process execution.
type ExecHooks interface {
	// OnExecStart records a process about to be started in dir.
	OnExecStart(ctx context.Context, name string, args []string, dir string)

	// OnExecComplete records a finished process. exitCode is -1 when the
	// process could not be started.
	OnExecComplete(ctx context.Context, name string, args []string, exitCode int, duration time.Duration, err error)
}

// =============================================================================
// Swap Hooks
// =============================================================================

// SwapHooks receives events from temporary manifest substitution.
type SwapHooks interface {
	// OnSwap records a temporary manifest written to dir with the given
	// number of dependencies. err is non-nil when the swap failed.
	OnSwap(ctx context.Context, dir string, deps int, err error)

	// OnRestore records the original manifest being moved back into dir.
	OnRestore(dir string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExecHooks is a no-op implementation of ExecHooks.
type NoopExecHooks struct{}

func (NoopExecHooks) OnExecStart(context.Context, string, []string, string) {}
func (NoopExecHooks) OnExecComplete(context.Context, string, []string, int, time.Duration, error) {
}

// NoopSwapHooks is a no-op implementation of SwapHooks.
type NoopSwapHooks struct{}

func (NoopSwapHooks) OnSwap(context.Context, string, int, error) {}
func (NoopSwapHooks) OnRestore(string, error)                    {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	execHooks ExecHooks = NoopExecHooks{}
	swapHooks SwapHooks = NoopSwapHooks{}
	hooksMu   sync.RWMutex
)

// SetExecHooks registers custom exec hooks.
// This should be called once at application startup before any process runs.
func SetExecHooks(h ExecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		execHooks = h
	}
}

// SetSwapHooks registers custom swap hooks.
func SetSwapHooks(h SwapHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		swapHooks = h
	}
}

// Exec returns the registered exec hooks.
func Exec() ExecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return execHooks
}

// Swap returns the registered swap hooks.
func Swap() SwapHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return swapHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	execHooks = NoopExecHooks{}
	swapHooks = NoopSwapHooks{}
}
