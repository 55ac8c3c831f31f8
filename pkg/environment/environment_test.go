package environment

import (
	"testing"

	"pscript/pkg/perr"
	"pscript/pkg/pool"
	"pscript/pkg/value"
)

func TestGlobalFallbackFromChildScope(t *testing.T) {
	env := New()
	env.DeclareGlobal("x", mustInt(t, 1))

	child := env.Global().Child().Child()
	v, err := child.Get("x")
	if err != nil {
		t.Fatalf("expected global fallback, got error: %v", err)
	}
	if v.Int() != 1 {
		t.Fatalf("unexpected value %d", v.Int())
	}
}

func TestFunctionScopeDoesNotSeeCallerLocals(t *testing.T) {
	env := New()
	caller := env.Global().Child()
	caller.Declare("local_only", mustInt(t, 42))

	callee := env.PushFrame(&FunctionDescriptor{Name: "f"})
	if _, err := callee.Get("local_only"); !perr.Is(err, perr.UndefinedVariable) {
		t.Fatalf("expected UndefinedVariable leaking caller local into callee, got %v", err)
	}
	env.PopFrame()
}

func TestPopFrameDoesNotLeakNames(t *testing.T) {
	env := New()
	callee := env.PushFrame(&FunctionDescriptor{Name: "f"})
	callee.Declare("temp", mustInt(t, 1))
	env.PopFrame()

	caller := env.Global()
	if _, err := caller.Get("temp"); !perr.Is(err, perr.UndefinedVariable) {
		t.Fatalf("expected popped frame's locals to be invisible, got %v", err)
	}
}

func TestDeclareShadowReplacesValue(t *testing.T) {
	env := New()
	scope := env.Global()
	scope.Declare("x", mustInt(t, 1))
	scope.Declare("x", mustInt(t, 2))
	v, err := scope.Get("x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Int() != 2 {
		t.Fatalf("expected shadowing declare to replace value, got %d", v.Int())
	}
}

func mustInt(t *testing.T, n int32) value.Value {
	t.Helper()
	p := pool.New(4096)
	v, err := value.FromInteger(p, n)
	if err != nil {
		t.Fatalf("FromInteger: %v", err)
	}
	return v
}
