package interpreter

import (
	"strconv"
	"strings"

	"pscript/pkg/ast"
	"pscript/pkg/environment"
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// evalExpr evaluates an expression node to a Value. refMode requests a
// reference alias rather than a by-value copy where the node is an
// identifier, index, or member access (spec §4.3.2: "Identifier evaluation
// returns either a by-value copy of the bound value or a reference alias
// (caller-selected ref flag)").
func (it *Interpreter) evalExpr(node ast.Node, scope *environment.Scope, nsPrefix string, refMode bool) (value.Value, error) {
	switch node.Kind() {
	case ast.KindInteger:
		n, err := strconv.ParseInt(node.Token(), 10, 32)
		if err != nil {
			return value.Null(), perr.At(perr.ParseError, toPos(node), "invalid integer literal %q", node.Token())
		}
		return value.FromInteger(it.Pool, int32(n))
	case ast.KindUint:
		n, err := strconv.ParseUint(strings.TrimSuffix(node.Token(), "u"), 10, 32)
		if err != nil {
			return value.Null(), perr.At(perr.ParseError, toPos(node), "invalid uint literal %q", node.Token())
		}
		return value.FromUint(it.Pool, uint32(n))
	case ast.KindReal:
		f, err := strconv.ParseFloat(node.Token(), 32)
		if err != nil {
			return value.Null(), perr.At(perr.ParseError, toPos(node), "invalid real literal %q", node.Token())
		}
		return value.FromReal(it.Pool, float32(f))
	case ast.KindString:
		return value.FromString(it.Pool, node.Token())
	case ast.KindBoolean:
		return value.FromBoolean(it.Pool, node.Token() == "true")
	case ast.KindIdentifier:
		v, err := scope.Get(node.Token())
		if err != nil {
			return value.Null(), err
		}
		if refMode {
			return value.Ref(v), nil
		}
		return value.Copy(v)
	case ast.KindOp:
		return it.evalOp(node, scope, nsPrefix)
	case ast.KindUnary:
		return it.evalUnary(node, scope, nsPrefix)
	case ast.KindIndex:
		v, err := it.resolveLvalue(node, scope, nsPrefix)
		if err != nil {
			return value.Null(), err
		}
		if refMode {
			return value.Ref(v), nil
		}
		return value.Copy(v)
	case ast.KindMember:
		v, err := it.resolveLvalue(node, scope, nsPrefix)
		if err != nil {
			return value.Null(), err
		}
		if refMode {
			return value.Ref(v), nil
		}
		return value.Copy(v)
	case ast.KindList:
		return it.evalListLiteral(node, scope, nsPrefix)
	case ast.KindConstruct:
		return it.evalConstruct(node, scope, nsPrefix)
	case ast.KindCall:
		return it.evalCall(node, scope, nsPrefix)
	case ast.KindMemberCall:
		return it.evalMemberCallExpr(node, scope, nsPrefix)
	default:
		return value.Null(), nil
	}
}

func (it *Interpreter) evalOp(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	op := node.Token()
	if op == "=" || op == "+=" || op == "-=" || op == "*=" || op == "/=" {
		return it.evalAssign(node, scope, nsPrefix)
	}

	lhs, err := it.evalExpr(ast.Child(node, 0), scope, nsPrefix, false)
	if err != nil {
		return value.Null(), err
	}
	rhs, err := it.evalExpr(ast.Child(node, 1), scope, nsPrefix, false)
	if err != nil {
		return value.Null(), err
	}
	return value.BinaryOp(lhs, op, rhs)
}

func (it *Interpreter) evalAssign(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	op := node.Token()
	lhsNode := ast.Child(node, 0)
	rhs, err := it.evalExpr(ast.Child(node, 1), scope, nsPrefix, false)
	if err != nil {
		return value.Null(), err
	}

	newVal := rhs
	if op != "=" {
		current, err := it.evalExpr(lhsNode, scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		binOp := strings.TrimSuffix(op, "=")
		newVal, err = value.BinaryOp(current, binOp, rhs)
		value.Destroy(current)
		if err != nil {
			return value.Null(), err
		}
	}
	if err := it.assignTo(lhsNode, scope, nsPrefix, newVal); err != nil {
		return value.Null(), err
	}
	return value.Copy(newVal)
}

func (it *Interpreter) evalUnary(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	op := node.Token()
	operand := ast.Child(node, 0)
	if op == "&" {
		return it.evalExpr(operand, scope, nsPrefix, true)
	}
	if op == "++" || op == "--" {
		current, err := it.evalExpr(operand, scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		updated, err := value.UnaryOp(op, current)
		value.Destroy(current)
		if err != nil {
			return value.Null(), err
		}
		if err := it.assignTo(operand, scope, nsPrefix, updated); err != nil {
			return value.Null(), err
		}
		return value.Copy(updated)
	}
	v, err := it.evalExpr(operand, scope, nsPrefix, false)
	if err != nil {
		return value.Null(), err
	}
	result, err := value.UnaryOp(op, v)
	value.Destroy(v)
	return result, err
}

func (it *Interpreter) evalListLiteral(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	children := node.Children()
	elems := make([]value.Value, 0, len(children))
	elemType := value.TagAny
	for i, c := range children {
		v, err := it.evalExpr(c, scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		if i == 0 {
			elemType = v.Tag()
		}
		elems = append(elems, v)
	}
	return value.FromList(it.Pool, elemType, elems)
}

// evalConstruct evaluates "Type { args... }": a builtin numeric cast
// (int(x), uint(x)) or a struct constructor with positional arguments bound
// in declaration order, unfilled members taking their stored default (spec
// §4.3.2).
func (it *Interpreter) evalConstruct(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	name := node.Token()
	args := node.Children()

	switch name {
	case "int":
		return it.castConstruct(args, scope, nsPrefix, value.TagInteger)
	case "uint":
		return it.castConstruct(args, scope, nsPrefix, value.TagUint)
	case "float":
		return it.castConstruct(args, scope, nsPrefix, value.TagReal)
	case "bool":
		return it.castConstruct(args, scope, nsPrefix, value.TagBoolean)
	}

	qualified := nsPrefix + name
	sd, ok := it.Env.LookupStruct(qualified)
	if !ok {
		sd, ok = it.Env.LookupStruct(name)
	}
	if !ok {
		return value.Null(), perr.At(perr.UndefinedStruct, toPos(node), "undefined struct %q", name)
	}

	fields := make(map[string]value.Value, len(sd.Fields))
	order := make([]string, 0, len(sd.Fields))
	for i, f := range sd.Fields {
		order = append(order, f.Name)
		if i < len(args) {
			v, err := it.evalExpr(args[i], scope, nsPrefix, false)
			if err != nil {
				return value.Null(), err
			}
			v, err = bindFieldValue(f, v, toPos(node), sd.Name)
			if err != nil {
				return value.Null(), err
			}
			fields[f.Name] = v
			continue
		}
		if !f.HasDefault {
			return value.Null(), perr.At(perr.TypeError, toPos(node), "missing argument for field %q of %s", f.Name, sd.Name)
		}
		dv, err := value.Copy(f.Default)
		if err != nil {
			return value.Null(), err
		}
		fields[f.Name] = dv
	}
	return value.FromStruct(it.Pool, sd.Name, order, fields)
}

func (it *Interpreter) castConstruct(args []ast.Node, scope *environment.Scope, nsPrefix string, target value.Tag) (value.Value, error) {
	if len(args) != 1 {
		return value.Null(), perr.New(perr.ArityError, "cast constructor requires exactly one argument")
	}
	v, err := it.evalExpr(args[0], scope, nsPrefix, false)
	if err != nil {
		return value.Null(), err
	}
	return value.Coerce(v, target)
}

func toPos(node ast.Node) perr.Position {
	p := node.Pos()
	return perr.Position{Filename: p.Filename, Line: p.Line, Column: p.Column}
}
