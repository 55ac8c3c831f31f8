// Package driver provides the execution shell around the evaluator: a
// parsed Script bound to its source text, the RuntimeHandles passed into
// every execution, a package manifest, git-backed dependency fetching, and
// the ImportResolver.
//
// Grounded on able's pkg/driver/manifest.go for the manifest shape and YAML
// decode style, and able's cmd/able/main_test.go for the go-git usage
// pattern (generalized here into a real fetch path instead of a
// test-fixture helper).
package driver

import "pscript/pkg/ast"

// Script is a parse result bound to its source string and filename (spec
// §2 "Script"). The parsed AST may be shared by multiple holders (e.g. a
// REPL re-executing the same script against successive contexts).
type Script struct {
	Filename string
	Source   string
	AST      ast.Node
}
