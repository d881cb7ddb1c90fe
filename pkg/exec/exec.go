// Package exec runs external package-manager processes.
//
// Three execution modes are provided by [Executor]:
//
//   - Run blocks until the process exits and returns its standard output.
//   - Start returns immediately with an [async.Future] for the [Result].
//   - Stream behaves like Start but forwards output line by line as it
//     arrives, each line prefixed with a label.
//
// A process that exits nonzero or cannot be started is reported as an
// [errors.ExecutionError] carrying the exit code and captured output.
// No retries are performed.
//
// [errors.ExecutionError]: github.com/matzehuels/pkgrun/pkg/errors.ExecutionError
package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	osexec "os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgrun/pkg/async"
	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/observability"
)

// waitDelay bounds how long a cancelled process may keep its output pipes
// open through grandchildren before Wait gives up on them.
const waitDelay = 5 * time.Second

// Options controls where and with which environment a process runs.
type Options struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is the complete child environment in "KEY=value" form.
	// Nil means the child inherits the current process environment.
	Env []string
}

// Result describes a process that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executor is the process-execution collaborator used by the npm facade.
type Executor interface {
	// Run executes name synchronously and returns its standard output.
	Run(ctx context.Context, name string, args []string, opts Options) (string, error)

	// Start executes name asynchronously.
	Start(ctx context.Context, name string, args []string, opts Options) *async.Future[Result]

	// Stream executes name asynchronously, forwarding each output line
	// prefixed with label while also capturing it in the Result.
	Stream(ctx context.Context, name string, args []string, opts Options, label string) *async.Future[Result]
}

// Local runs processes on the local machine with os/exec.
type Local struct {
	// Stdout and Stderr receive streamed output. They default to os.Stdout
	// and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	logger *log.Logger
}

// NewLocal creates a Local executor that logs through logger.
// A nil logger falls back to log.Default().
func NewLocal(logger *log.Logger) *Local {
	if logger == nil {
		logger = log.Default()
	}
	return &Local{Stdout: os.Stdout, Stderr: os.Stderr, logger: logger}
}

// Run implements [Executor].
func (l *Local) Run(ctx context.Context, name string, args []string, opts Options) (string, error) {
	res, err := l.run(ctx, name, args, opts, nil, nil)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Start implements [Executor].
func (l *Local) Start(ctx context.Context, name string, args []string, opts Options) *async.Future[Result] {
	return async.Go(ctx, func(ctx context.Context) (Result, error) {
		return l.run(ctx, name, args, opts, nil, nil)
	})
}

// Stream implements [Executor].
func (l *Local) Stream(ctx context.Context, name string, args []string, opts Options, label string) *async.Future[Result] {
	outW, errW := l.Stdout, l.Stderr
	if outW == nil {
		outW = os.Stdout
	}
	if errW == nil {
		errW = os.Stderr
	}
	return async.Go(ctx, func(ctx context.Context) (Result, error) {
		var mu sync.Mutex
		prefix := Label(label)
		po := newPrefixWriter(&mu, outW, prefix)
		pe := newPrefixWriter(&mu, errW, prefix)
		res, err := l.run(ctx, name, args, opts, po, pe)
		po.Flush()
		pe.Flush()
		return res, err
	})
}

// run executes the process, capturing both streams. When teeOut or teeErr
// is non-nil the corresponding stream is also copied there as it arrives.
func (l *Local) run(ctx context.Context, name string, args []string, opts Options, teeOut, teeErr io.Writer) (Result, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env
	cmd.WaitDelay = waitDelay

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = tee(&outBuf, teeOut)
	cmd.Stderr = tee(&errBuf, teeErr)

	l.logger.Debug("exec", "cmd", name, "args", args, "dir", opts.Dir)
	observability.Exec().OnExecStart(ctx, name, args, opts.Dir)

	start := time.Now()
	runErr := cmd.Run()
	res := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		xerr := &errors.ExecutionError{
			Command:  name,
			Args:     args,
			Dir:      opts.Dir,
			ExitCode: -1,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Cause:    runErr,
		}
		var exitErr *osexec.ExitError
		if stderrors.As(runErr, &exitErr) {
			xerr.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			xerr.Cause = ctx.Err()
		}
		res.ExitCode = xerr.ExitCode
		l.logger.Debug("exec failed", "cmd", name, "code", xerr.ExitCode, "err", runErr)
		observability.Exec().OnExecComplete(ctx, name, args, xerr.ExitCode, res.Duration, xerr)
		return res, xerr
	}

	observability.Exec().OnExecComplete(ctx, name, args, 0, res.Duration, nil)
	return res, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
