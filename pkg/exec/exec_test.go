package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/goleak"

	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use /bin/sh")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func newTestExecutor() *Local {
	var logs bytes.Buffer
	return NewLocal(log.New(&logs))
}

func TestRun(t *testing.T) {
	skipWithoutShell(t)
	l := newTestExecutor()

	out, err := l.Run(context.Background(), "/bin/sh", []string{"-c", "echo latest: 1.2.3"}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "latest: 1.2.3\n" {
		t.Errorf("Run() = %q, want %q", out, "latest: 1.2.3\n")
	}
}

func TestRunWorkingDirectory(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	l := newTestExecutor()

	out, err := l.Run(context.Background(), "/bin/sh", []string{"-c", "pwd"}, Options{Dir: dir})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(out))
	if got != want {
		t.Errorf("working directory = %q, want %q", got, want)
	}
}

func TestRunEnvironment(t *testing.T) {
	skipWithoutShell(t)
	l := newTestExecutor()

	env := append(os.Environ(), "npm_config_registry=http://localhost:4873")
	out, err := l.Run(context.Background(), "/bin/sh", []string{"-c", `printf %s "$npm_config_registry"`}, Options{Env: env})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "http://localhost:4873" {
		t.Errorf("child saw registry %q, want %q", out, "http://localhost:4873")
	}
}

func TestRunNonzeroExit(t *testing.T) {
	skipWithoutShell(t)
	l := newTestExecutor()

	_, err := l.Run(context.Background(), "/bin/sh", []string{"-c", "echo partial; echo 'npm ERR! 404' >&2; exit 3"}, Options{})
	if err == nil {
		t.Fatal("Run() should fail on nonzero exit")
	}

	var xerr *errors.ExecutionError
	if !stderrors.As(err, &xerr) {
		t.Fatalf("error type = %T, want *errors.ExecutionError", err)
	}
	if xerr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", xerr.ExitCode)
	}
	if xerr.Stdout != "partial\n" {
		t.Errorf("Stdout = %q, want %q", xerr.Stdout, "partial\n")
	}
	if !strings.Contains(xerr.Stderr, "npm ERR! 404") {
		t.Errorf("Stderr = %q, want it to contain npm ERR! 404", xerr.Stderr)
	}
	if !errors.Is(err, errors.ErrCodeExecution) {
		t.Error("errors.Is(err, ErrCodeExecution) = false, want true")
	}
}

func TestRunSpawnFailure(t *testing.T) {
	l := newTestExecutor()

	_, err := l.Run(context.Background(), "pkgrun-definitely-not-installed", []string{"install"}, Options{})
	var xerr *errors.ExecutionError
	if !stderrors.As(err, &xerr) {
		t.Fatalf("error type = %T, want *errors.ExecutionError", err)
	}
	if xerr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", xerr.ExitCode)
	}
	if xerr.Cause == nil {
		t.Error("Cause should carry the spawn error")
	}
}

func TestStart(t *testing.T) {
	skipWithoutShell(t)
	l := newTestExecutor()

	f := l.Start(context.Background(), "/bin/sh", []string{"-c", "echo out; echo err >&2"}, Options{})
	res, err := f.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Errorf("Result = %+v, want stdout %q and stderr %q", res, "out\n", "err\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestStartContextCancelled(t *testing.T) {
	skipWithoutShell(t)
	l := newTestExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := l.Start(ctx, "/bin/sh", []string{"-c", "exec sleep 5"}, Options{}).Result()
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want it to wrap %v", err, context.DeadlineExceeded)
	}
}

func TestStream(t *testing.T) {
	skipWithoutShell(t)
	var stdout, stderr bytes.Buffer
	l := newTestExecutor()
	l.Stdout = &stdout
	l.Stderr = &stderr

	f := l.Stream(context.Background(), "/bin/sh", []string{"-c", "echo one; echo two; printf three; echo warn >&2"}, Options{}, "pkg-a")
	res, err := f.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}

	if res.Stdout != "one\ntwo\nthree" {
		t.Errorf("captured stdout = %q, want %q", res.Stdout, "one\ntwo\nthree")
	}

	prefix := Label("pkg-a")
	wantOut := prefix + "one\n" + prefix + "two\n" + prefix + "three\n"
	if stdout.String() != wantOut {
		t.Errorf("streamed stdout = %q, want %q", stdout.String(), wantOut)
	}
	if stderr.String() != prefix+"warn\n" {
		t.Errorf("streamed stderr = %q, want %q", stderr.String(), prefix+"warn\n")
	}
}

func TestLabel(t *testing.T) {
	if Label("") != "" {
		t.Errorf("Label(\"\") = %q, want empty", Label(""))
	}
	if !strings.Contains(Label("@scope/pkg"), "@scope/pkg") {
		t.Errorf("Label() = %q, want it to contain the package name", Label("@scope/pkg"))
	}
	if Label("pkg-a") != Label("pkg-a") {
		t.Error("Label() should be deterministic")
	}
}

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := newPrefixWriter(&mu, &buf, "> ")

	_, _ = w.Write([]byte("ab"))
	_, _ = w.Write([]byte("c\nde"))
	_, _ = w.Write([]byte("f\n\n"))
	w.Flush()

	want := "> abc\n> def\n> \n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

type recordingHooks struct {
	observability.NoopExecHooks
	mu     sync.Mutex
	starts []string
	codes  []int
}

func (r *recordingHooks) OnExecStart(_ context.Context, name string, _ []string, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, name)
}

func (r *recordingHooks) OnExecComplete(_ context.Context, _ string, _ []string, code int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
}

func TestExecHooks(t *testing.T) {
	skipWithoutShell(t)
	hooks := &recordingHooks{}
	observability.SetExecHooks(hooks)
	defer observability.Reset()

	l := newTestExecutor()
	_, _ = l.Run(context.Background(), "/bin/sh", []string{"-c", "exit 0"}, Options{})
	_, _ = l.Run(context.Background(), "/bin/sh", []string{"-c", "exit 2"}, Options{})

	if len(hooks.starts) != 2 {
		t.Fatalf("OnExecStart called %d times, want 2", len(hooks.starts))
	}
	if len(hooks.codes) != 2 || hooks.codes[0] != 0 || hooks.codes[1] != 2 {
		t.Errorf("OnExecComplete codes = %v, want [0 2]", hooks.codes)
	}
}
