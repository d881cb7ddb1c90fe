package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopExecHooks{}
	e.OnExecStart(ctx, "npm", []string{"install"}, "/tmp/pkg")
	e.OnExecComplete(ctx, "npm", []string{"install"}, 1, time.Second, errors.New("exit 1"))

	s := NoopSwapHooks{}
	s.OnSwap(ctx, "/tmp/pkg", 3, nil)
	s.OnRestore("/tmp/pkg", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Exec().(NoopExecHooks); !ok {
		t.Error("Exec() should return NoopExecHooks by default")
	}
	if _, ok := Swap().(NoopSwapHooks); !ok {
		t.Error("Swap() should return NoopSwapHooks by default")
	}

	customExec := &testExecHooks{}
	SetExecHooks(customExec)
	if Exec() != customExec {
		t.Error("SetExecHooks should set custom hooks")
	}

	customSwap := &testSwapHooks{}
	SetSwapHooks(customSwap)
	if Swap() != customSwap {
		t.Error("SetSwapHooks should set custom hooks")
	}

	Reset()
	if _, ok := Exec().(NoopExecHooks); !ok {
		t.Error("Reset() should restore NoopExecHooks")
	}
	if _, ok := Swap().(NoopSwapHooks); !ok {
		t.Error("Reset() should restore NoopSwapHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testExecHooks{}
	SetExecHooks(custom)
	SetExecHooks(nil)

	if Exec() != custom {
		t.Error("SetExecHooks(nil) should be ignored")
	}
}

type testExecHooks struct{ NoopExecHooks }
type testSwapHooks struct{ NoopSwapHooks }
