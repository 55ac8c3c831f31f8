package extern

import (
	"testing"

	"pscript/pkg/perr"
	"pscript/pkg/value"
)

func TestChainFallsThroughToNext(t *testing.T) {
	base := NewLibrary("base")
	base.RegisterFunction("greet", 0, func(args []value.Value) (value.Value, error) {
		return value.Null(), nil
	})
	head := NewLibrary("head").Chain(base)

	if _, _, ok := head.LookupFunction("greet"); !ok {
		t.Fatalf("expected fallthrough lookup to find base's function")
	}
}

func TestHeadShadowsNext(t *testing.T) {
	called := ""
	base := NewLibrary("base")
	base.RegisterFunction("f", 0, func(args []value.Value) (value.Value, error) {
		called = "base"
		return value.Null(), nil
	})
	head := NewLibrary("head").Chain(base)
	head.RegisterFunction("f", 0, func(args []value.Value) (value.Value, error) {
		called = "head"
		return value.Null(), nil
	})

	fn, _, ok := head.LookupFunction("f")
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	fn(nil)
	if called != "head" {
		t.Fatalf("expected head's registration to shadow base's, got %q", called)
	}
}

func TestCallRejectsTooManyArguments(t *testing.T) {
	lib := NewLibrary("lib")
	lib.RegisterFunction("f", 9, func(args []value.Value) (value.Value, error) {
		return value.Null(), nil
	})
	args := make([]value.Value, 9)
	_, err, matched := lib.Call("f", args)
	if !matched {
		t.Fatalf("expected the arity check to short-circuit before lookup miss")
	}
	if !perr.Is(err, perr.ArityLimitExceeded) {
		t.Fatalf("expected ArityLimitExceeded, got %v", err)
	}
}

func TestCallUnknownFunctionReportsNoMatch(t *testing.T) {
	lib := NewLibrary("lib")
	_, _, matched := lib.Call("missing", nil)
	if matched {
		t.Fatalf("expected no match for an unregistered function")
	}
}
