package interpreter

import (
	"strings"

	"pscript/pkg/ast"
	"pscript/pkg/environment"
	"pscript/pkg/extern"
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

var builtinNames = map[string]bool{
	"__print":  true,
	"__readln": true,
	"__time":   true,
	"__ref":    true,
}

// evalCall resolves and invokes a call_expression node, following spec
// §4.3.3's fixed order: builtin marker, then member function of an in-scope
// receiver, then namespace-qualified function (with or without a body),
// else UndefinedFunction.
func (it *Interpreter) evalCall(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	name := node.Token()
	args := node.Children()

	if builtinNames[name] {
		return it.evalBuiltin(name, args, scope, nsPrefix, node)
	}

	if receiver, method, ok := splitReceiver(name); ok {
		if recvVal, err := scope.Get(receiver); err == nil {
			return it.evalMemberCall(recvVal, method, args, scope, nsPrefix)
		}
	}

	qualified := nsPrefix + name
	fn, ok := it.Env.LookupFunction(qualified)
	if !ok {
		fn, ok = it.Env.LookupFunction(name)
		qualified = name
	}
	if !ok {
		return value.Null(), perr.At(perr.UndefinedFunction, toPos(node), "undefined function %q", name)
	}
	if fn.Body == nil {
		return it.evalExternCall(fn, qualified, args, scope, nsPrefix, node)
	}
	return it.invoke(fn, args, scope, nsPrefix, node)
}

// splitReceiver splits a dotted name at its last dot into receiver and
// method ("a.b.c" gives "a.b" and "c"); ok is false when name has no dot.
// evalCall only dispatches a member call when the receiver part names a
// variable in scope.
func splitReceiver(name string) (receiver, method string, ok bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}

// evalMemberCallExpr evaluates a member_call_expression node: a dotted
// method call whose receiver is an arbitrary expression rather than a bare
// in-scope identifier (e.g. "Hello, {}".format([...]), l[0].format([...])).
// Evaluated in reference mode so an identifier/index/member receiver still
// shares storage with its source, matching evalCall's identifier-receiver
// path for list.append mutation visibility.
func (it *Interpreter) evalMemberCallExpr(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	children := node.Children()
	recv, err := it.evalExpr(children[0], scope, nsPrefix, true)
	if err != nil {
		return value.Null(), err
	}
	return it.evalMemberCall(recv, node.Token(), children[1:], scope, nsPrefix)
}

func (it *Interpreter) evalMemberCall(recv value.Value, method string, argNodes []ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	args := make([]value.Value, len(argNodes))
	for i, an := range argNodes {
		v, err := it.evalExpr(an, scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}

	switch recv.Tag() {
	case value.TagList:
		return it.listMemberCall(recv, method, args)
	case value.TagString:
		return it.stringMemberCall(recv, method, args)
	default:
		return value.Null(), perr.New(perr.UndefinedFunction, "no member function %q on %s", method, recv.Tag())
	}
}

func (it *Interpreter) evalExternCall(fn *environment.FunctionDescriptor, name string, argNodes []ast.Node, scope *environment.Scope, nsPrefix string, node ast.Node) (value.Value, error) {
	if len(argNodes) != len(fn.Params) {
		return value.Null(), perr.At(perr.ArityError, toPos(node), "function %q expects %d arguments, got %d", name, len(fn.Params), len(argNodes))
	}
	args := make([]value.Value, len(argNodes))
	for i, an := range argNodes {
		v, err := it.evalExpr(an, scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	result, err, matched := it.Externs.Call(name, args)
	if !matched {
		return value.Null(), extern.ErrNotFound(name)
	}
	return result, err
}

// invoke binds arguments into a fresh function-call scope (parent = nil)
// and executes the body, returning its Return value or null (spec §4.3.3).
func (it *Interpreter) invoke(fn *environment.FunctionDescriptor, argNodes []ast.Node, scope *environment.Scope, nsPrefix string, node ast.Node) (value.Value, error) {
	if len(argNodes) != len(fn.Params) {
		return value.Null(), perr.At(perr.ArityError, toPos(node), "function %q expects %d arguments, got %d", fn.Name, len(fn.Params), len(argNodes))
	}

	callScope := it.Env.PushFrame(fn)
	for i, param := range fn.Params {
		var v value.Value
		var err error
		if param.IsRef {
			v, err = it.evalExpr(argNodes[i], scope, nsPrefix, true)
		} else {
			v, err = it.evalExpr(argNodes[i], scope, nsPrefix, false)
		}
		if err != nil {
			it.Env.PopFrame()
			return value.Null(), err
		}
		if !param.IsRef && param.Type == value.TagStruct && v.Tag() == value.TagStruct && v.StructName() != param.StructType {
			it.Env.PopFrame()
			return value.Null(), perr.At(perr.TypeError, toPos(node), "argument %d of %q: cannot narrow struct %s to %s", i, fn.Name, v.StructName(), param.StructType)
		}
		if !param.IsRef && param.Type != value.TagAny && v.Tag() != param.Type {
			if !value.MayCast(v.Tag(), param.Type) {
				it.Env.PopFrame()
				return value.Null(), perr.At(perr.TypeError, toPos(node), "argument %d of %q: cannot convert %s to %s", i, fn.Name, v.Tag(), param.Type)
			}
			coerced, err := value.Coerce(v, param.Type)
			if err != nil {
				it.Env.PopFrame()
				return value.Null(), err
			}
			value.Destroy(v)
			v = coerced
		}
		callScope.Declare(param.Name, v)
	}

	o, err := it.execStatements(fn.Body.(ast.Node), callScope, nsPrefix)
	it.Env.PopFrame()
	if err != nil {
		return value.Null(), err
	}
	if o.isReturn() {
		return o.val, nil
	}
	return value.Null(), nil
}
