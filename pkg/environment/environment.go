// Package environment implements lexical scoping, the global variable
// table, the function and struct descriptor tables, and the call-stack
// frame model (spec §3.4, §5.3).
//
// Grounded on able's pkg/runtime/environment.go (parent-chained scope with
// Define/Assign/Get) for the scope shape, generalized here to pscript's
// "function-call scopes have parent = nil" rule and global fallback, and on
// original_source/include/pscript/context.hpp's block_scope/function/
// struct_description/function_call structs for the table shapes.
package environment

import (
	"sort"

	"pscript/pkg/perr"
	"pscript/pkg/value"
)

// Scope is a chained block of local variables. A function-call scope has
// parent == nil: the caller's locals are never visible across a call
// boundary, only globals are (spec §3.4, §5.3).
type Scope struct {
	values map[string]value.Value
	parent *Scope
	env    *Environment
}

// NewScope creates a root scope (no parent) bound to env, used at function
// call boundaries.
func NewScope(env *Environment) *Scope {
	return &Scope{values: make(map[string]value.Value), env: env}
}

// Child creates a nested scope whose parent fallback is s, used for
// if/while/for bodies.
func (s *Scope) Child() *Scope {
	return &Scope{values: make(map[string]value.Value), parent: s, env: s.env}
}

// Declare binds name in this scope. Declaring an existing name destroys the
// old value and replaces it (spec §4.3.1, §9 open question: shadowing a
// previously declared name of a different type is allowed).
func (s *Scope) Declare(name string, v value.Value) {
	if old, ok := s.values[name]; ok {
		value.Destroy(old)
	}
	s.values[name] = v
}

// Get looks up name in this scope, its parent chain, and finally globals
// (spec §5.3: "Globals are searched unconditionally when a scope chain ends
// without a hit").
func (s *Scope) Get(name string) (value.Value, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.values[name]; ok {
			return v, nil
		}
	}
	if s.env != nil {
		if v, ok := s.env.globals[name]; ok {
			return v, nil
		}
	}
	return value.Null(), perr.New(perr.UndefinedVariable, "undefined variable %q", name)
}

// Assign rebinds an already-declared name in place (used by "=" and the
// compound assignment operators), walking the same scope-then-globals path
// as Get.
func (s *Scope) Assign(name string, v value.Value) error {
	for sc := s; sc != nil; sc = sc.parent {
		if old, ok := sc.values[name]; ok {
			value.Destroy(old)
			sc.values[name] = v
			return nil
		}
	}
	if s.env != nil {
		if old, ok := s.env.globals[name]; ok {
			value.Destroy(old)
			s.env.globals[name] = v
			return nil
		}
	}
	return perr.New(perr.UndefinedVariable, "undefined variable %q", name)
}

// Keys returns the names declared directly in this scope, sorted.
func (s *Scope) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Param is a function parameter's declared name, type, and by-reference
// flag (the "&T" prefix of spec §6.1). StructType carries the declared
// struct name when Type is TagStruct — without it every struct-typed
// parameter would collapse to the same generic tag and a call could bind a
// value of the wrong struct type (spec.md:54's narrowing rule applies at
// call boundaries, not just assignment).
type Param struct {
	Name       string
	Type       value.Tag
	StructType string
	IsRef      bool
}

// FunctionDescriptor is a registered function: its parameter list, declared
// return type, and body node (nil body means it is an extern declaration)
// (spec §3.4).
type FunctionDescriptor struct {
	Name       string
	Params     []Param
	ReturnType value.Tag
	Body       any // ast.Node; kept as any to avoid an import cycle with pkg/ast
}

func (f *FunctionDescriptor) IsExtern() bool { return f.Body == nil }

// FieldDef is a struct member's declared name and type. Default is its
// initializer's one-time evaluation in global scope, computed when the
// struct descriptor is registered and reused (via value.Copy) at every
// subsequent construction (spec §9 open question: defaults are not
// re-evaluated per instance).
type FieldDef struct {
	Name       string
	Type       value.Tag
	StructType string
	HasDefault bool
	Default    value.Value
}

// StructDescriptor is a registered struct type: its ordered member list.
type StructDescriptor struct {
	Name   string
	Fields []FieldDef
}

// Frame is a call-stack record pairing a function descriptor with its
// execution scope. Per spec §9's design note, the return-value propagation
// itself is modeled as an explicit Outcome returned from Execute, not as a
// mutable slot on Frame; Frame exists purely for diagnostics and to bound
// scope lifetime.
type Frame struct {
	Function *FunctionDescriptor
	Scope    *Scope
}

// Environment owns the globals table, function table, struct table, and
// call stack for one execution context. Spec §9: "encapsulate them inside
// the context value; do not use process-globals" — there is exactly one
// Environment per interpreter run, never a package-level table.
type Environment struct {
	globals map[string]value.Value
	funcs   map[string]*FunctionDescriptor
	structs map[string]*StructDescriptor
	stack   []*Frame
}

// New creates an empty Environment.
func New() *Environment {
	return &Environment{
		globals: make(map[string]value.Value),
		funcs:   make(map[string]*FunctionDescriptor),
		structs: make(map[string]*StructDescriptor),
	}
}

// Global returns the root scope: a Scope with no parent whose Get/Assign
// still consult the same globals table it is backed by.
func (e *Environment) Global() *Scope {
	return &Scope{values: e.globals, env: e}
}

func (e *Environment) DeclareGlobal(name string, v value.Value) {
	if old, ok := e.globals[name]; ok {
		value.Destroy(old)
	}
	e.globals[name] = v
}

func (e *Environment) GetGlobal(name string) (value.Value, error) {
	if v, ok := e.globals[name]; ok {
		return v, nil
	}
	return value.Null(), perr.New(perr.UndefinedVariable, "undefined variable %q", name)
}

// RegisterFunction adds or overwrites a function descriptor under its fully
// namespace-prefixed name.
func (e *Environment) RegisterFunction(fn *FunctionDescriptor) {
	e.funcs[fn.Name] = fn
}

// LookupFunction returns the descriptor for a fully-qualified name.
func (e *Environment) LookupFunction(name string) (*FunctionDescriptor, bool) {
	fn, ok := e.funcs[name]
	return fn, ok
}

// RegisterStruct adds or overwrites a struct descriptor under its fully
// namespace-prefixed name.
func (e *Environment) RegisterStruct(sd *StructDescriptor) {
	e.structs[sd.Name] = sd
}

// LookupStruct returns the descriptor for a fully-qualified struct name.
func (e *Environment) LookupStruct(name string) (*StructDescriptor, bool) {
	sd, ok := e.structs[name]
	return sd, ok
}

// PushFrame opens a new function-call scope (parent = nil) and pushes a
// call-stack frame for it. Returns the new scope for binding parameters
// into.
func (e *Environment) PushFrame(fn *FunctionDescriptor) *Scope {
	scope := NewScope(e)
	e.stack = append(e.stack, &Frame{Function: fn, Scope: scope})
	return scope
}

// PopFrame closes the top frame: its scope's locals are destroyed, dropping
// refcounts on their values (spec §3.5 "Scope owns its local variables").
func (e *Environment) PopFrame() {
	if len(e.stack) == 0 {
		return
	}
	top := e.stack[len(e.stack)-1]
	for _, v := range top.Scope.values {
		value.Destroy(v)
	}
	e.stack = e.stack[:len(e.stack)-1]
}

// CurrentFrame returns the top call-stack frame, or nil if the call stack
// is empty (top-level script execution).
func (e *Environment) CurrentFrame() *Frame {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

// Depth reports the current call-stack depth.
func (e *Environment) Depth() int { return len(e.stack) }
