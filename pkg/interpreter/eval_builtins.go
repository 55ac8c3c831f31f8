package interpreter

import (
	"time"

	"pscript/pkg/ast"
	"pscript/pkg/environment"
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// evalBuiltin dispatches the four built-in markers (spec §4.3.4).
func (it *Interpreter) evalBuiltin(name string, argNodes []ast.Node, scope *environment.Scope, nsPrefix string, node ast.Node) (value.Value, error) {
	switch name {
	case "__print":
		if len(argNodes) != 1 {
			return value.Null(), perr.At(perr.ArityError, toPos(node), "__print expects exactly one argument, got %d", len(argNodes))
		}
		v, err := it.evalExpr(argNodes[0], scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		if err := value.Display(it.Handles.Out, v); err != nil {
			return value.Null(), err
		}
		if _, err := it.Handles.Out.Write([]byte("\n")); err != nil {
			return value.Null(), err
		}
		value.Destroy(v)
		return value.FromInteger(it.Pool, 0)
	case "__readln":
		if len(argNodes) != 0 {
			return value.Null(), perr.At(perr.ArityError, toPos(node), "__readln expects no arguments, got %d", len(argNodes))
		}
		line, err := it.Handles.ReadLine()
		if err != nil {
			return value.Null(), err
		}
		return value.FromString(it.Pool, line)
	case "__time":
		if len(argNodes) != 0 {
			return value.Null(), perr.At(perr.ArityError, toPos(node), "__time expects no arguments, got %d", len(argNodes))
		}
		return value.FromUint(it.Pool, uint32(time.Now().Unix()))
	case "__ref":
		if len(argNodes) != 1 {
			return value.Null(), perr.At(perr.ArityError, toPos(node), "__ref expects exactly one argument, got %d", len(argNodes))
		}
		return it.evalExpr(argNodes[0], scope, nsPrefix, true)
	default:
		return value.Null(), perr.At(perr.UndefinedFunction, toPos(node), "unknown builtin %q", name)
	}
}
