package cli

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks traces process and swap events at debug level. It is
// registered by the root command when --verbose is set.
type logHooks struct {
	logger *log.Logger
}

// OnExecStart does nothing; the executor already logs each start.
func (h *logHooks) OnExecStart(context.Context, string, []string, string) {}

func (h *logHooks) OnExecComplete(_ context.Context, name string, args []string, exitCode int, d time.Duration, err error) {
	kv := []any{"cmd", name + " " + strings.Join(args, " "), "exit", exitCode, "took", d.Round(time.Millisecond)}
	if err != nil {
		h.logger.Debug("exec failed", kv...)
		return
	}
	h.logger.Debug("exec finished", kv...)
}

func (h *logHooks) OnSwap(_ context.Context, dir string, deps int, err error) {
	if err != nil {
		h.logger.Debug("swap failed", "dir", dir, "err", err)
		return
	}
	h.logger.Debug("swapped manifest", "dir", dir, "dependencies", deps)
}

func (h *logHooks) OnRestore(dir string, err error) {
	if err != nil {
		h.logger.Debug("restore failed", "dir", dir, "err", err)
		return
	}
	h.logger.Debug("restored manifest", "dir", dir)
}
