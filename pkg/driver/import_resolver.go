package driver

import (
	"os"
	"path/filepath"
	"strings"

	"pscript/pkg/perr"
)

// ImportResolver turns a dotted module path into a file read, preventing
// re-execution of an already-imported module (spec §4.5, §8.1 invariant 6).
//
// Grounded on spec.md §4.5 directly and on
// original_source/include/pscript/context.hpp's imported-scripts tracking
// (an "already imported" set consulted before re-parsing a module); the
// cache is the only mechanism that keeps a cyclic import (A imports B,
// B imports A) from looping forever (spec §9 open question).
type ImportResolver struct {
	roots    []string
	imported map[string]bool
}

// NewImportResolver builds a resolver searching roots in order.
func NewImportResolver(roots []string) *ImportResolver {
	return &ImportResolver{roots: roots, imported: make(map[string]bool)}
}

// Resolve turns "a.b.c" into the relative path "a/b/c.ps", searches roots in
// order for the first existing file, and returns its contents plus the
// absolute path used as the idempotency key. alreadyImported is true (and
// source is empty) when this exact file was previously resolved.
func (r *ImportResolver) Resolve(dottedPath string) (absPath, source string, alreadyImported bool, err error) {
	relPath := strings.ReplaceAll(dottedPath, ".", string(filepath.Separator)) + ".ps"

	for _, root := range r.roots {
		candidate := filepath.Join(root, relPath)
		data, readErr := os.ReadFile(candidate)
		if readErr != nil {
			continue
		}
		abs, absErr := filepath.Abs(candidate)
		if absErr != nil {
			abs = candidate
		}
		if r.imported[abs] {
			return abs, "", true, nil
		}
		r.imported[abs] = true
		return abs, string(data), false, nil
	}

	return "", "", false, perr.New(perr.ModuleNotFound, "module %q not found on any of %d search roots", dottedPath, len(r.roots))
}

// NamespacePrefix returns the dotted prefix every definition in an imported
// module is registered under (spec §4.5): "a.b.c." for "import a.b.c;".
func NamespacePrefix(dottedPath string) string {
	return dottedPath + "."
}
