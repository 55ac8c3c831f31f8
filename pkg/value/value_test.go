package value

import (
	"testing"

	"pscript/pkg/pool"
)

func TestScalarCopyIsIndependent(t *testing.T) {
	p := pool.New(4096)
	v1, _ := FromInteger(p, 10)
	v2, err := Copy(v1)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if v1.scalarPtr == v2.scalarPtr {
		t.Fatalf("expected copy to allocate independent storage")
	}
	if v2.Int() != 10 {
		t.Fatalf("expected copy to carry the same value, got %d", v2.Int())
	}
}

func TestListCopyShareIdentity(t *testing.T) {
	p := pool.New(4096)
	e0, _ := FromInteger(p, 1)
	e1, _ := FromInteger(p, 2)
	l1, err := FromList(p, TagInteger, []Value{e0, e1})
	if err != nil {
		t.Fatalf("FromList: %v", err)
	}
	l2, err := Copy(l1)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if err := l2.ListSet(1, mustInt(p, 99)); err != nil {
		t.Fatalf("ListSet: %v", err)
	}
	got, _ := l1.ListGet(1)
	if got.Int() != 99 {
		t.Fatalf("expected mutation through l2 to be visible via l1, got %d", got.Int())
	}
}

func mustInt(p *pool.Pool, n int32) Value {
	v, err := FromInteger(p, n)
	if err != nil {
		panic(err)
	}
	return v
}

func TestListAppendRejectsForeignType(t *testing.T) {
	p := pool.New(4096)
	l, _ := FromList(p, TagInteger, nil)
	if err := l.ListAppend(mustInt(p, 1)); err != nil {
		t.Fatalf("append of matching type should succeed: %v", err)
	}
	s, _ := FromString(p, "x")
	if err := l.ListAppend(s); err == nil {
		t.Fatalf("expected TypeError appending a string to an integer list")
	}
}

func mustStruct(p *pool.Pool, name string, fields map[string]Value) Value {
	order := make([]string, 0, len(fields))
	for k := range fields {
		order = append(order, k)
	}
	v, err := FromStruct(p, name, order, fields)
	if err != nil {
		panic(err)
	}
	return v
}

func TestListAppendRejectsForeignStructType(t *testing.T) {
	p := pool.New(4096)
	point := mustStruct(p, "Point", map[string]Value{"x": mustInt(p, 1)})
	l, _ := FromList(p, TagStruct, []Value{point})
	circle := mustStruct(p, "Circle", map[string]Value{"r": mustInt(p, 2)})
	if err := l.ListAppend(circle); err == nil {
		t.Fatalf("expected TypeError appending a Circle to a list of Point")
	}
	anotherPoint := mustStruct(p, "Point", map[string]Value{"x": mustInt(p, 3)})
	if err := l.ListAppend(anotherPoint); err != nil {
		t.Fatalf("append of matching struct type should succeed: %v", err)
	}
}

func TestSetFieldRejectsForeignStructType(t *testing.T) {
	p := pool.New(4096)
	point := mustStruct(p, "Point", map[string]Value{"x": mustInt(p, 1)})
	container := mustStruct(p, "Wrapper", map[string]Value{"inner": point})
	circle := mustStruct(p, "Circle", map[string]Value{"r": mustInt(p, 2)})
	if err := container.SetField("inner", circle); err == nil {
		t.Fatalf("expected TypeError assigning a Circle to a field declared Point")
	}
	anotherPoint := mustStruct(p, "Point", map[string]Value{"x": mustInt(p, 5)})
	if err := container.SetField("inner", anotherPoint); err != nil {
		t.Fatalf("assignment of matching struct type should succeed: %v", err)
	}
}

func TestRefDestroyIsNoop(t *testing.T) {
	p := pool.New(4096)
	v, _ := FromInteger(p, 7)
	alias := Ref(v)
	Destroy(alias)
	if !p.Verify(v.scalarPtr) {
		t.Fatalf("destroying an alias must not free the aliased storage")
	}
}

func TestMayCastNumericFamily(t *testing.T) {
	if !MayCast(TagInteger, TagReal) {
		t.Fatalf("integer->real should be castable")
	}
	if MayCast(TagString, TagInteger) {
		t.Fatalf("string->integer must not be castable")
	}
	if !MayCast(TagList, TagList) {
		t.Fatalf("a tag is always castable to itself")
	}
}

func TestCoerceWidensBooleanToInteger(t *testing.T) {
	p := pool.New(4096)
	b, _ := FromBoolean(p, true)
	i, err := Coerce(b, TagInteger)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if i.Int() != 1 {
		t.Fatalf("expected true to coerce to 1, got %d", i.Int())
	}
}

func TestBinaryOpWideningIsCommutativeOnResultTag(t *testing.T) {
	p := pool.New(4096)
	i, _ := FromInteger(p, 3)
	u, _ := FromUint(p, 4)

	r1, err := BinaryOp(i, "+", u)
	if err != nil {
		t.Fatalf("i+u: %v", err)
	}
	r2, err := BinaryOp(u, "+", i)
	if err != nil {
		t.Fatalf("u+i: %v", err)
	}
	if r1.Tag() != r2.Tag() {
		t.Fatalf("expected commutative result tag, got %s and %s", r1.Tag(), r2.Tag())
	}
	if r1.Tag() != TagUint {
		t.Fatalf("expected widening to uint, got %s", r1.Tag())
	}
}

func TestStringConcat(t *testing.T) {
	p := pool.New(4096)
	a, _ := FromString(p, "hello, ")
	b, _ := FromString(p, "pengu")
	r, err := BinaryOp(a, "+", b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if r.Str() != "hello, pengu" {
		t.Fatalf("unexpected concat result %q", r.Str())
	}
}

func TestFormatPositionalPlaceholders(t *testing.T) {
	p := pool.New(4096)
	name, _ := FromString(p, "pengu")
	out := Format("Hello, {}", []Value{name})
	if out != "Hello, pengu" {
		t.Fatalf("unexpected format result %q", out)
	}
}

func TestFormatNestedList(t *testing.T) {
	p := pool.New(4096)
	l, _ := FromList(p, TagInteger, []Value{mustInt(p, 1), mustInt(p, 2), mustInt(p, 3)})
	out := Format("list = {}", []Value{l})
	if out != "list = [1, 2, 3]" {
		t.Fatalf("unexpected format result %q", out)
	}
}

func TestParseIntRoundTrip(t *testing.T) {
	p := pool.New(4096)
	v, err := ParseInt(p, "42")
	if err != nil {
		t.Fatalf("parse_int: %v", err)
	}
	if Render(v) != "42" {
		t.Fatalf("expected round-trip rendering, got %q", Render(v))
	}
}
