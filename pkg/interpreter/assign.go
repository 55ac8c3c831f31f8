package interpreter

import (
	"pscript/pkg/ast"
	"pscript/pkg/environment"
	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// resolveLvalue evaluates an index or member-access expression down to its
// addressable slot's current value, without copying (spec §4.3.2: "Index
// expression... returns the contained value (addressable)", "Member
// access... the final step returns an addressable slot").
func (it *Interpreter) resolveLvalue(node ast.Node, scope *environment.Scope, nsPrefix string) (value.Value, error) {
	switch node.Kind() {
	case ast.KindIdentifier:
		return scope.Get(node.Token())
	case ast.KindIndex:
		base, err := it.resolveLvalue(ast.Child(node, 0), scope, nsPrefix)
		if err != nil {
			return value.Null(), err
		}
		if base.Tag() != value.TagList {
			return value.Null(), perr.At(perr.TypeError, toPos(node), "index operator requires a list, got %s", base.Tag())
		}
		idx, err := it.evalExpr(ast.Child(node, 1), scope, nsPrefix, false)
		if err != nil {
			return value.Null(), err
		}
		if idx.Tag() != value.TagInteger {
			return value.Null(), perr.At(perr.TypeError, toPos(node), "index must be an integer, got %s", idx.Tag())
		}
		return base.ListGet(int(idx.Int()))
	case ast.KindMember:
		base, err := it.resolveLvalue(ast.Child(node, 0), scope, nsPrefix)
		if err != nil {
			return value.Null(), err
		}
		if base.Tag() != value.TagStruct {
			return value.Null(), perr.At(perr.TypeError, toPos(node), "member access requires a struct, got %s", base.Tag())
		}
		return base.Field(node.Token())
	default:
		return it.evalExpr(node, scope, nsPrefix, false)
	}
}

// assignTo writes newVal into the lvalue node names: an identifier rebinds
// in scope, an index expression overwrites a list slot, a member expression
// overwrites a struct field. Anything else is NotAssignable (spec §4.3.2).
func (it *Interpreter) assignTo(node ast.Node, scope *environment.Scope, nsPrefix string, newVal value.Value) error {
	switch node.Kind() {
	case ast.KindIdentifier:
		return scope.Assign(node.Token(), newVal)
	case ast.KindIndex:
		base, err := it.resolveLvalue(ast.Child(node, 0), scope, nsPrefix)
		if err != nil {
			return err
		}
		if base.Tag() != value.TagList {
			return perr.At(perr.TypeError, toPos(node), "index operator requires a list, got %s", base.Tag())
		}
		idx, err := it.evalExpr(ast.Child(node, 1), scope, nsPrefix, false)
		if err != nil {
			return err
		}
		if idx.Tag() != value.TagInteger {
			return perr.At(perr.TypeError, toPos(node), "index must be an integer, got %s", idx.Tag())
		}
		old, err := base.ListGet(int(idx.Int()))
		if err != nil {
			return err
		}
		value.Destroy(old)
		return base.ListSet(int(idx.Int()), newVal)
	case ast.KindMember:
		base, err := it.resolveLvalue(ast.Child(node, 0), scope, nsPrefix)
		if err != nil {
			return err
		}
		if base.Tag() != value.TagStruct {
			return perr.At(perr.TypeError, toPos(node), "member access requires a struct, got %s", base.Tag())
		}
		old, err := base.Field(node.Token())
		if err != nil {
			return err
		}
		if sd, ok := it.Env.LookupStruct(base.StructName()); ok {
			if fd, ok := findFieldDef(sd, node.Token()); ok {
				newVal, err = bindFieldValue(fd, newVal, toPos(node), sd.Name)
				if err != nil {
					return err
				}
			}
		}
		value.Destroy(old)
		return base.SetField(node.Token(), newVal)
	default:
		return perr.At(perr.NotAssignable, toPos(node), "expression is not assignable")
	}
}

// findFieldDef locates name's FieldDef on a struct descriptor.
func findFieldDef(sd *environment.StructDescriptor, name string) (environment.FieldDef, bool) {
	for _, f := range sd.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return environment.FieldDef{}, false
}

// bindFieldValue validates (and, for numeric-family mismatches, coerces) a
// value being stored into a struct field against its FieldDef, used both at
// construction (evalConstruct) and at field assignment (assignTo). A
// struct-typed field rejects any value whose tag isn't struct or whose
// struct name differs from the declared one (spec.md:54's narrowing rule
// applies to struct fields, not just bare variable assignment).
func bindFieldValue(fd environment.FieldDef, v value.Value, pos perr.Position, structName string) (value.Value, error) {
	if fd.Type == value.TagStruct {
		if v.Tag() != value.TagStruct || v.StructName() != fd.StructType {
			return value.Null(), perr.At(perr.TypeError, pos, "field %q of struct %s expects struct %s, got %s", fd.Name, structName, fd.StructType, v.Tag())
		}
		return v, nil
	}
	if fd.Type == value.TagAny || v.Tag() == fd.Type {
		return v, nil
	}
	if !value.MayCast(v.Tag(), fd.Type) {
		return value.Null(), perr.At(perr.TypeError, pos, "field %q of struct %s expects %s, got %s", fd.Name, structName, fd.Type, v.Tag())
	}
	coerced, err := value.Coerce(v, fd.Type)
	if err != nil {
		return value.Null(), err
	}
	value.Destroy(v)
	return coerced, nil
}
