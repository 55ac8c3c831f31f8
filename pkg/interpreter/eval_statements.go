package interpreter

import (
	"strings"

	"pscript/pkg/ast"
	"pscript/pkg/environment"
	"pscript/pkg/extern"
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// execStatements is the node dispatcher (spec §4.3.1). scope is the current
// lexical scope; nsPrefix is the dotted namespace prefix new definitions are
// registered under ("" at the top level, "a.b." inside an import or
// namespace block).
func (it *Interpreter) execStatements(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	switch node.Kind() {
	case ast.KindScript, ast.KindContent, ast.KindCompound, ast.KindStatement:
		return it.execSequence(node, scope, nsPrefix)
	case ast.KindDecl:
		return it.execDecl(node, scope, nsPrefix)
	case ast.KindFunction:
		return plain(value.Null()), it.execFunctionDef(node, nsPrefix)
	case ast.KindStruct:
		return plain(value.Null()), it.execStructDef(node, nsPrefix)
	case ast.KindExternVar:
		return plain(value.Null()), it.execExternVar(node, nsPrefix)
	case ast.KindImport:
		return plain(value.Null()), it.execImport(node)
	case ast.KindNamespace:
		return it.execNamespace(node, nsPrefix)
	case ast.KindReturn:
		return it.execReturn(node, scope, nsPrefix)
	case ast.KindIf:
		return it.execIf(node, scope, nsPrefix)
	case ast.KindWhile:
		return it.execWhile(node, scope, nsPrefix)
	case ast.KindFor:
		return it.execFor(node, scope, nsPrefix)
	case ast.KindForRange:
		return it.execForRange(node, scope, nsPrefix)
	default:
		v, err := it.evalExpr(node, scope, nsPrefix, false)
		return plain(v), err
	}
}

// execSequence iterates children, short-circuiting as soon as one yields a
// Return outcome (spec §4.3.1: "after each child check whether the top of
// the call stack has a return value set; if so, short-circuit" — modeled
// here as outcome propagation instead of a call-stack flag).
func (it *Interpreter) execSequence(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	var last outcome = plain(value.Null())
	for _, child := range node.Children() {
		o, err := it.execStatements(child, scope, nsPrefix)
		if err != nil {
			return outcome{}, err
		}
		last = o
		if o.isReturn() {
			return o, nil
		}
	}
	return last, nil
}

func (it *Interpreter) execDecl(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	init := ast.Child(node, 0)
	v, err := it.evalExpr(init, scope, nsPrefix, false)
	if err != nil {
		return outcome{}, err
	}
	scope.Declare(node.Token(), v)
	return plain(value.Null()), nil
}

func (it *Interpreter) execFunctionDef(node ast.Node, nsPrefix string) error {
	paramList := ast.FindChild(node, ast.KindParamList)
	returnType := ast.FindChild(node, ast.KindType)
	var body ast.Node
	for _, c := range node.Children() {
		if c.Kind() == ast.KindCompound {
			body = c
		}
	}

	params := make([]environment.Param, 0, len(paramList.Children()))
	for _, p := range paramList.Children() {
		typeNode := ast.Child(p, 0)
		tag, isRef := parseTypeTag(typeNode.Token())
		param := environment.Param{Name: p.Token(), Type: tag, IsRef: isRef}
		if tag == value.TagStruct {
			param.StructType = strings.TrimPrefix(typeNode.Token(), "&")
		}
		params = append(params, param)
	}
	retTag, _ := parseTypeTag(returnType.Token())

	it.Env.RegisterFunction(&environment.FunctionDescriptor{
		Name:       nsPrefix + node.Token(),
		Params:     params,
		ReturnType: retTag,
		Body:       body,
	})
	return nil
}

func (it *Interpreter) execStructDef(node ast.Node, nsPrefix string) error {
	var fields []environment.FieldDef
	global := it.Env.Global()
	for _, f := range node.Children() {
		typeNode := ast.Child(f, 0)
		tag, _ := parseTypeTag(typeNode.Token())
		fd := environment.FieldDef{Name: f.Token(), Type: tag, StructType: typeNode.Token()}
		if len(f.Children()) > 1 {
			defExpr := f.Children()[1]
			dv, err := it.evalExpr(defExpr, global, nsPrefix, false)
			if err != nil {
				return err
			}
			fd.HasDefault = true
			fd.Default = dv
		}
		fields = append(fields, fd)
	}
	it.Env.RegisterStruct(&environment.StructDescriptor{Name: nsPrefix + node.Token(), Fields: fields})
	return nil
}

func (it *Interpreter) execExternVar(node ast.Node, nsPrefix string) error {
	typeNode := ast.Child(node, 0)
	if it.Externs == nil {
		return extern.ErrNoBridge()
	}
	host, ok := it.Externs.LookupVariable(nsPrefix + node.Token())
	if !ok {
		host, ok = it.Externs.LookupVariable(node.Token())
	}
	if !ok {
		return extern.ErrNotFound(node.Token())
	}
	it.Env.DeclareGlobal(node.Token(), value.FromExternal(host, typeNode.Token()))
	return nil
}

func (it *Interpreter) execImport(node ast.Node) error {
	dotted := node.Token()
	_, source, already, err := it.Imports.Resolve(dotted)
	if err != nil {
		return err
	}
	if already {
		return nil
	}
	root, err := ParseSource(source, dotted)
	if err != nil {
		return err
	}
	prefix := dotted + "."
	scope := environment.NewScope(it.Env)
	_, err = it.execStatements(root, scope, prefix)
	return err
}

func (it *Interpreter) execNamespace(node ast.Node, nsPrefix string) (outcome, error) {
	prefix := nsPrefix + node.Token() + "."
	return it.execSequence(node, it.Env.Global(), prefix)
}

func (it *Interpreter) execReturn(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	if len(node.Children()) == 0 {
		return returning(value.Null()), nil
	}
	v, err := it.evalExpr(node.Children()[0], scope, nsPrefix, false)
	if err != nil {
		return outcome{}, err
	}
	return returning(v), nil
}

func (it *Interpreter) execIf(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	cond, err := it.evalExpr(ast.Child(node, 0), scope, nsPrefix, false)
	if err != nil {
		return outcome{}, err
	}
	if cond.Tag() != value.TagBoolean {
		return outcome{}, perr.New(perr.TypeError, "if condition must be boolean, got %s", cond.Tag())
	}
	if cond.Bool() {
		return it.execStatements(ast.Child(node, 1), scope.Child(), nsPrefix)
	}
	if len(node.Children()) > 2 {
		elseNode := node.Children()[2]
		if elseNode.Kind() == ast.KindIf {
			return it.execIf(elseNode, scope, nsPrefix)
		}
		return it.execStatements(elseNode, scope.Child(), nsPrefix)
	}
	return plain(value.Null()), nil
}

func (it *Interpreter) execWhile(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	condNode := ast.Child(node, 0)
	bodyNode := ast.Child(node, 1)
	for {
		cond, err := it.evalExpr(condNode, scope, nsPrefix, false)
		if err != nil {
			return outcome{}, err
		}
		if cond.Tag() != value.TagBoolean {
			return outcome{}, perr.New(perr.TypeError, "while condition must be boolean, got %s", cond.Tag())
		}
		if !cond.Bool() {
			return plain(value.Null()), nil
		}
		o, err := it.execStatements(bodyNode, scope.Child(), nsPrefix)
		if err != nil {
			return outcome{}, err
		}
		if o.isReturn() {
			return o, nil
		}
	}
}

func (it *Interpreter) execFor(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	initNode := ast.Child(node, 0)
	condNode := ast.Child(node, 1)
	stepNode := ast.Child(node, 2)
	bodyNode := ast.Child(node, 3)

	iterScope := scope.Child()
	if _, err := it.execDecl(initNode, iterScope, nsPrefix); err != nil {
		return outcome{}, err
	}
	for {
		cond, err := it.evalExpr(condNode, iterScope, nsPrefix, false)
		if err != nil {
			return outcome{}, err
		}
		if cond.Tag() != value.TagBoolean {
			return outcome{}, perr.New(perr.TypeError, "for condition must be boolean, got %s", cond.Tag())
		}
		if !cond.Bool() {
			return plain(value.Null()), nil
		}
		o, err := it.execStatements(bodyNode, iterScope.Child(), nsPrefix)
		if err != nil {
			return outcome{}, err
		}
		if o.isReturn() {
			return o, nil
		}
		if _, err := it.evalExpr(stepNode, iterScope, nsPrefix, false); err != nil {
			return outcome{}, err
		}
	}
}

func (it *Interpreter) execForRange(node ast.Node, scope *environment.Scope, nsPrefix string) (outcome, error) {
	iterableNode := ast.Child(node, 0)
	bodyNode := ast.Child(node, 1)
	iterable, err := it.evalExpr(iterableNode, scope, nsPrefix, false)
	if err != nil {
		return outcome{}, err
	}
	if iterable.Tag() != value.TagList {
		return outcome{}, perr.New(perr.TypeError, "for-range requires a list, got %s", iterable.Tag())
	}
	for i := 0; i < iterable.ListLen(); i++ {
		elem, err := iterable.ListGet(i)
		if err != nil {
			return outcome{}, err
		}
		elemCopy, err := value.Copy(elem)
		if err != nil {
			return outcome{}, err
		}
		iterScope := scope.Child()
		iterScope.Declare(node.Token(), elemCopy)
		o, err := it.execStatements(bodyNode, iterScope, nsPrefix)
		if err != nil {
			return outcome{}, err
		}
		if o.isReturn() {
			return o, nil
		}
	}
	return plain(value.Null()), nil
}

// parseTypeTag maps a declared type-expression token ("int", "&int", a
// struct name, "any") to a runtime Tag and its by-reference flag (spec
// §6.1's "&" reference-parameter prefix).
func parseTypeTag(token string) (value.Tag, bool) {
	isRef := false
	if len(token) > 0 && token[0] == '&' {
		isRef = true
		token = token[1:]
	}
	switch token {
	case "int":
		return value.TagInteger, isRef
	case "uint":
		return value.TagUint, isRef
	case "float":
		return value.TagReal, isRef
	case "str":
		return value.TagString, isRef
	case "list":
		return value.TagList, isRef
	case "any":
		return value.TagAny, isRef
	case "bool":
		return value.TagBoolean, isRef
	default:
		return value.TagStruct, isRef
	}
}
