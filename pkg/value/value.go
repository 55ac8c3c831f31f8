// Package value implements the tagged value system: scalar values stored
// inline in a pool.Pool, and reference-counted composite values (string,
// list, struct) shared by handle.
//
// Grounded on original_source/include/pscript/value.hpp (type tag set,
// ownership rules) and on able's pkg/runtime/values.go for the idiomatic-Go
// shape of a tagged value — here a single struct with a Tag discriminator
// rather than able's Kind()-interface-per-type pattern, since pscript's
// scalars need pool-backed storage rather than Go-native fields.
package value

import (
	"encoding/binary"
	"math"

	"pscript/pkg/perr"
	"pscript/pkg/pool"
)

// Tag is the runtime type tag a Value carries (spec §3.1). Any exists only
// as a declared parameter/field type; it is never the tag of a runtime
// Value.
type Tag string

const (
	TagNull     Tag = "null"
	TagAny      Tag = "any"
	TagInteger  Tag = "integer"
	TagUint     Tag = "uint"
	TagReal     Tag = "real"
	TagBoolean  Tag = "boolean"
	TagString   Tag = "string"
	TagList     Tag = "list"
	TagStruct   Tag = "struct"
	TagExternal Tag = "external"
)

func (t Tag) IsScalar() bool {
	switch t {
	case TagInteger, TagUint, TagReal, TagBoolean:
		return true
	default:
		return false
	}
}

func (t Tag) IsComposite() bool {
	switch t {
	case TagString, TagList, TagStruct:
		return true
	default:
		return false
	}
}

// Value is a tagged value record: (tag, scalar storage handle, composite
// handle, external handle, is_reference) (spec §3.2).
type Value struct {
	tag       Tag
	pool      *pool.Pool
	scalarPtr pool.Pointer
	comp      *composite
	ext       *externalHandle
	isRef     bool
}

// Null returns the value with no storage.
func Null() Value { return Value{tag: TagNull} }

func (v Value) Tag() Tag     { return v.tag }
func (v Value) IsRef() bool  { return v.isRef }
func (v Value) IsNull() bool { return v.tag == TagNull }

func putScalarBytes(p *pool.Pool, ptr pool.Pointer, tag Tag, raw uint32) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, raw)
	_ = p.WriteBytes(ptr, buf)
}

func scalarRaw(p *pool.Pool, ptr pool.Pointer) uint32 {
	data, err := p.Bytes(ptr, 8)
	if err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}

// FromInteger allocates inline pool storage for an i32 value.
func FromInteger(p *pool.Pool, v int32) (Value, error) {
	ptr := p.Allocate(8)
	if ptr == pool.NullPointer {
		return Null(), perr.New(perr.OutOfMemory, "allocate integer")
	}
	putScalarBytes(p, ptr, TagInteger, uint32(v))
	return Value{tag: TagInteger, pool: p, scalarPtr: ptr}, nil
}

// FromUint allocates inline pool storage for a u32 value.
func FromUint(p *pool.Pool, v uint32) (Value, error) {
	ptr := p.Allocate(8)
	if ptr == pool.NullPointer {
		return Null(), perr.New(perr.OutOfMemory, "allocate uint")
	}
	putScalarBytes(p, ptr, TagUint, v)
	return Value{tag: TagUint, pool: p, scalarPtr: ptr}, nil
}

// FromReal allocates inline pool storage for an f32 value.
func FromReal(p *pool.Pool, v float32) (Value, error) {
	ptr := p.Allocate(8)
	if ptr == pool.NullPointer {
		return Null(), perr.New(perr.OutOfMemory, "allocate real")
	}
	putScalarBytes(p, ptr, TagReal, math.Float32bits(v))
	return Value{tag: TagReal, pool: p, scalarPtr: ptr}, nil
}

// FromBoolean allocates inline pool storage for a boolean value.
func FromBoolean(p *pool.Pool, v bool) (Value, error) {
	ptr := p.Allocate(8)
	if ptr == pool.NullPointer {
		return Null(), perr.New(perr.OutOfMemory, "allocate boolean")
	}
	var raw uint32
	if v {
		raw = 1
	}
	putScalarBytes(p, ptr, TagBoolean, raw)
	return Value{tag: TagBoolean, pool: p, scalarPtr: ptr}, nil
}

func (v Value) Int() int32 {
	return int32(scalarRaw(v.pool, v.scalarPtr))
}

func (v Value) Uint() uint32 {
	return scalarRaw(v.pool, v.scalarPtr)
}

func (v Value) Real() float32 {
	return math.Float32frombits(scalarRaw(v.pool, v.scalarPtr))
}

func (v Value) Bool() bool {
	return scalarRaw(v.pool, v.scalarPtr) != 0
}

// Copy duplicates v: scalars get fresh storage with the bytes copied over;
// composites copy the handle and increment the shared refcount; null and
// external values copy by value (spec §4.2).
func Copy(v Value) (Value, error) {
	switch {
	case v.tag == TagNull:
		return Null(), nil
	case v.tag.IsScalar():
		raw := scalarRaw(v.pool, v.scalarPtr)
		ptr := v.pool.Allocate(8)
		if ptr == pool.NullPointer {
			return Null(), perr.New(perr.OutOfMemory, "copy %s", v.tag)
		}
		putScalarBytes(v.pool, ptr, v.tag, raw)
		return Value{tag: v.tag, pool: v.pool, scalarPtr: ptr}, nil
	case v.tag.IsComposite():
		if v.comp != nil {
			v.comp.incRef()
		}
		return Value{tag: v.tag, pool: v.pool, comp: v.comp}, nil
	case v.tag == TagExternal:
		return Value{tag: TagExternal, ext: v.ext}, nil
	default:
		return Null(), nil
	}
}

// Move steals v's storage and resets v to null, returning the stolen value.
func Move(v *Value) Value {
	moved := *v
	*v = Null()
	return moved
}

// Ref returns a non-owning alias of v sharing the same storage/handle
// without bumping any refcount (spec §4.2, §9: "Owned vs Alias").
func Ref(v Value) Value {
	alias := v
	alias.isRef = true
	return alias
}

// Destroy releases v's storage. Scalars free their pool block. Composites
// decrement the shared refcount and free the backing storage once it
// reaches zero. Reference aliases do nothing: they never owned a share.
func Destroy(v Value) {
	if v.isRef {
		return
	}
	switch {
	case v.tag.IsScalar():
		v.pool.Free(v.scalarPtr)
	case v.tag.IsComposite():
		if v.comp != nil {
			v.comp.decRef()
		}
	}
}
