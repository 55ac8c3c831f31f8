package value

import (
	"encoding/binary"

	"pscript/pkg/perr"
	"pscript/pkg/pool"
)

// composite is the shared storage behind string/list/struct values. Go
// pointer identity gives us the "shared handle" the spec asks for directly:
// every Copy of a composite Value shares the same *composite, so mutating
// through one alias is visible through every other (spec §8.1 invariant 2).
//
// The refcount itself additionally lives in the pool (refPtr), matching
// spec §4.2's "composite constructors additionally allocate the refcount
// record and initialize it to 1" — freeing it on the last release keeps the
// pool's allocate/free bookkeeping honest for composites, not just scalars.
type composite struct {
	pool   *pool.Pool
	refPtr pool.Pointer
	kind   Tag

	str string

	elemType       Tag
	elemStructName string
	elements       []Value

	structName string
	fieldOrder []string
	fields     map[string]Value
}

func newRefcount(p *pool.Pool) (pool.Pointer, error) {
	ptr := p.Allocate(8)
	if ptr == pool.NullPointer {
		return pool.NullPointer, perr.New(perr.OutOfMemory, "allocate refcount record")
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, 1)
	_ = p.WriteBytes(ptr, buf)
	return ptr, nil
}

func (c *composite) refcount() uint32 {
	data, err := c.pool.Bytes(c.refPtr, 8)
	if err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

func (c *composite) setRefcount(n uint32) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, n)
	_ = c.pool.WriteBytes(c.refPtr, buf)
}

func (c *composite) incRef() {
	c.setRefcount(c.refcount() + 1)
}

func (c *composite) decRef() {
	n := c.refcount()
	if n == 0 {
		return
	}
	n--
	if n == 0 {
		c.pool.Free(c.refPtr)
		return
	}
	c.setRefcount(n)
}

// FromString builds an immutable composite string value.
func FromString(p *pool.Pool, s string) (Value, error) {
	ref, err := newRefcount(p)
	if err != nil {
		return Null(), err
	}
	return Value{tag: TagString, pool: p, comp: &composite{pool: p, refPtr: ref, kind: TagString, str: s}}, nil
}

func (v Value) Str() string {
	if v.comp == nil {
		return ""
	}
	return v.comp.str
}

// FromList builds a composite list value. elemType is the declared element
// type recorded at construction (the type of the first inserted element, or
// TagAny/TagNull if empty) (spec §3.3).
func FromList(p *pool.Pool, elemType Tag, elements []Value) (Value, error) {
	ref, err := newRefcount(p)
	if err != nil {
		return Null(), err
	}
	var elemStructName string
	if elemType == TagStruct && len(elements) > 0 {
		elemStructName = elements[0].StructName()
	}
	return Value{tag: TagList, pool: p, comp: &composite{
		pool: p, refPtr: ref, kind: TagList, elemType: elemType, elemStructName: elemStructName, elements: elements,
	}}, nil
}

func (v Value) ElemType() Tag {
	if v.comp == nil {
		return TagAny
	}
	return v.comp.elemType
}

func (v Value) ListLen() int {
	if v.comp == nil {
		return 0
	}
	return len(v.comp.elements)
}

// ListGet returns element i of a list value, addressable (the interpreter
// assigns back into the same slot via ListSet).
func (v Value) ListGet(i int) (Value, error) {
	if v.comp == nil || i < 0 || i >= len(v.comp.elements) {
		return Null(), perr.New(perr.IndexError, "index %d out of range", i)
	}
	return v.comp.elements[i], nil
}

// ListSet overwrites element i of a list value in place.
func (v Value) ListSet(i int, elem Value) error {
	if v.comp == nil || i < 0 || i >= len(v.comp.elements) {
		return perr.New(perr.IndexError, "index %d out of range", i)
	}
	v.comp.elements[i] = elem
	return nil
}

// ListAppend appends elem to the list, rejecting a mismatched element type
// unless the list's declared type is any/null (spec §3.3, §8.1 invariant 4).
// When the element type is struct, the struct's declared name is pinned on
// the first append the same way elemType itself is, so a list of Point
// cannot silently also accept a Circle (both being TagStruct) — spec.md:54's
// narrowing rule applies to structs inside a list just as it does to a bare
// assignment.
func (v Value) ListAppend(elem Value) error {
	if v.comp == nil {
		return perr.New(perr.TypeError, "append to non-list value")
	}
	if v.comp.elemType != TagAny && v.comp.elemType != TagNull && v.comp.elemType != elem.tag {
		return perr.New(perr.TypeError, "cannot append %s to list of %s", elem.tag, v.comp.elemType)
	}
	if v.comp.elemType == TagStruct && v.comp.elemStructName != "" && elem.StructName() != v.comp.elemStructName {
		return perr.New(perr.TypeError, "cannot append struct %s to list of %s", elem.StructName(), v.comp.elemStructName)
	}
	if v.comp.elemType == TagAny || v.comp.elemType == TagNull {
		v.comp.elemType = elem.tag
	}
	if v.comp.elemType == TagStruct && v.comp.elemStructName == "" {
		v.comp.elemStructName = elem.StructName()
	}
	v.comp.elements = append(v.comp.elements, elem)
	return nil
}

// FromStruct builds a composite struct value with the given type name and
// ordered fields.
func FromStruct(p *pool.Pool, structName string, order []string, fields map[string]Value) (Value, error) {
	ref, err := newRefcount(p)
	if err != nil {
		return Null(), err
	}
	return Value{tag: TagStruct, pool: p, comp: &composite{
		pool: p, refPtr: ref, kind: TagStruct, structName: structName, fieldOrder: order, fields: fields,
	}}, nil
}

func (v Value) StructName() string {
	if v.comp == nil {
		return ""
	}
	return v.comp.structName
}

func (v Value) StructFieldOrder() []string {
	if v.comp == nil {
		return nil
	}
	return v.comp.fieldOrder
}

// Field returns the named struct member, addressable.
func (v Value) Field(name string) (Value, error) {
	if v.comp == nil || v.comp.fields == nil {
		return Null(), perr.New(perr.TypeError, "field access on non-struct value")
	}
	fv, ok := v.comp.fields[name]
	if !ok {
		return Null(), perr.New(perr.TypeError, "no field %q on struct %s", name, v.comp.structName)
	}
	return fv, nil
}

// SetField overwrites the named struct member in place, rejecting a struct
// value that narrows the field from one declared struct type to another
// (spec.md:54).
func (v Value) SetField(name string, fv Value) error {
	if v.comp == nil || v.comp.fields == nil {
		return perr.New(perr.TypeError, "field assignment on non-struct value")
	}
	old, ok := v.comp.fields[name]
	if !ok {
		return perr.New(perr.TypeError, "no field %q on struct %s", name, v.comp.structName)
	}
	if old.Tag() == TagStruct && fv.Tag() == TagStruct && old.StructName() != fv.StructName() {
		return perr.New(perr.TypeError, "cannot assign struct %s to field %q of struct %s (expected %s)", fv.StructName(), name, v.comp.structName, old.StructName())
	}
	v.comp.fields[name] = fv
	return nil
}

// externalHandle wraps a raw host pointer plus its declared element type
// name. External values are non-owning: they carry no refcount (spec §3.2).
type externalHandle struct {
	host     any
	typeName string
}

// FromExternal wraps a host pointer as an external value.
func FromExternal(host any, typeName string) Value {
	return Value{tag: TagExternal, ext: &externalHandle{host: host, typeName: typeName}}
}

func (v Value) External() any {
	if v.ext == nil {
		return nil
	}
	return v.ext.host
}

func (v Value) ExternalTypeName() string {
	if v.ext == nil {
		return ""
	}
	return v.ext.typeName
}
