// Package interpreter implements the tree-walking evaluator: node dispatch,
// the operator table, function-call resolution, the built-in and member
// function tables, and import execution (spec §4.3-§4.5).
//
// Grounded on able's pkg/interp package structure (an Interpreter struct
// wrapping an Environment plus one Execute entry point that catches any
// propagated error and writes a diagnostic instead of panicking) and on
// original_source/src/interpreter.cpp's execute(node, scope, namespace)
// recursive signature, generalized here into explicit Go error returns
// instead of C++ exceptions per spec §9's design note.
package interpreter

import (
	"fmt"

	"pscript/pkg/ast"
	"pscript/pkg/driver"
	"pscript/pkg/environment"
	"pscript/pkg/extern"
	"pscript/pkg/parser"
	"pscript/pkg/pool"
)

// Interpreter owns the memory pool, the environment (globals/functions/
// structs/call stack), the extern bridge, and import resolution for one
// program run. There is exactly one per execution (spec §5.3).
type Interpreter struct {
	Pool    *pool.Pool
	Env     *environment.Environment
	Externs *extern.Library
	Imports *driver.ImportResolver
	Handles *driver.RuntimeHandles
}

// New builds an Interpreter over an already-sized pool and runtime handles.
func New(p *pool.Pool, handles *driver.RuntimeHandles) *Interpreter {
	externs := handles.Externs
	if externs == nil {
		externs = extern.NewLibrary("root")
	}
	return &Interpreter{
		Pool:    p,
		Env:     environment.New(),
		Externs: externs,
		Imports: driver.NewImportResolver(handles.ModuleRoots),
		Handles: handles,
	}
}

// ParseSource parses one module's source text into an ast.Tree, shared by
// Execute's caller and by import execution (spec §4.5).
func ParseSource(source, filename string) (ast.Node, error) {
	return parser.ParseModule(source, filename)
}

// Execute runs a parsed script to completion. Any propagated error is caught
// here and written as a diagnostic to the error sink, and the same error is
// then returned so the caller can still tell that the run failed (the CLI
// uses it for its exit status; the REPL ignores it and keeps going).
func (it *Interpreter) Execute(script *driver.Script) error {
	_, err := it.execStatements(script.AST, it.Env.Global(), "")
	if err != nil {
		fmt.Fprintf(it.Handles.Err, "execution terminated due to unexpected exception: %s\n", err.Error())
		return err
	}
	return nil
}
