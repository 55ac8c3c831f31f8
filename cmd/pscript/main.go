// Command pscript runs a pscript source file, or without one drops into an
// interactive REPL against a persistent context (spec §6.4).
//
// Grounded on able's cmd/able/main.go (os.Exit(run(args)), a hand-rolled arg
// switch with no cobra/urfave dependency — the teacher has none) and on
// phroun-pawscript's use of golang.org/x/term for interactive line reading,
// simplified here to pscript's synchronous, non-multiline REPL model.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"

	"pscript/pkg/driver"
	"pscript/pkg/interpreter"
	"pscript/pkg/pool"
)

const defaultMemoryBytes = 1 << 20 // 1 MiB, spec §6.4's default

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var filePath string
	var memoryBytes uint64 = defaultMemoryBytes

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--file", "-f":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "pscript: --file requires a path argument")
				return 1
			}
			i++
			filePath = args[i]
		case "--memory", "-m":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "pscript: --memory requires a byte count argument")
				return 1
			}
			i++
			n, err := strconv.ParseUint(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "pscript: invalid --memory value %q: %v\n", args[i], err)
				return 1
			}
			memoryBytes = n
		case "--help", "-h":
			printUsage()
			return 0
		default:
			fmt.Fprintf(os.Stderr, "pscript: unrecognized argument %q\n", args[i])
			printUsage()
			return 1
		}
	}

	handles := driver.NewRuntimeHandles(os.Stdin, os.Stdout, os.Stderr)
	if manifest, err := driver.LoadManifest("package.yml"); err == nil {
		handles.ModuleRoots = manifest.ResolvedModuleRoots()
		depRoots, err := materializeDependencies(manifest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pscript: %v\n", err)
			return 1
		}
		handles.ModuleRoots = append(handles.ModuleRoots, depRoots...)
	}

	if filePath != "" {
		return runFile(filePath, memoryBytes, handles)
	}
	return runREPL(memoryBytes, handles)
}

// materializeDependencies resolves every manifest dependency to a module
// search root: a path dependency is used as declared, a git dependency is
// cloned (or updated) into a cache directory next to the manifest via
// driver.FetchGitDependency.
func materializeDependencies(manifest *driver.Manifest) ([]string, error) {
	cacheDir := filepath.Join(filepath.Dir(manifest.Path), ".pscript-cache")
	roots := make([]string, 0, len(manifest.Dependencies))
	for name, dep := range manifest.Dependencies {
		if dep.Git != "" {
			dest, err := driver.FetchGitDependency(cacheDir, name, dep)
			if err != nil {
				return nil, fmt.Errorf("dependency %q: %w", name, err)
			}
			roots = append(roots, dest)
			continue
		}
		roots = append(roots, dep.Path)
	}
	return roots, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: pscript [--file|-f PATH] [--memory|-m BYTES]")
}

func runFile(path string, memoryBytes uint64, handles *driver.RuntimeHandles) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pscript: %v\n", err)
		return 1
	}
	root, err := interpreter.ParseSource(string(source), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pscript: %v\n", err)
		return 1
	}
	it := interpreter.New(pool.New(memoryBytes), handles)
	script := &driver.Script{Filename: path, Source: string(source), AST: root}
	if err := it.Execute(script); err != nil {
		return 1
	}
	return 0
}

// runREPL reads one line at a time, parses each as a complete script, and
// executes it against a single persistent Interpreter (spec §6.4). Raw
// terminal line editing via golang.org/x/term is used when stdin is a TTY;
// a plain bufio.Scanner is the fallback otherwise (piped input, tests, CI).
func runREPL(memoryBytes uint64, handles *driver.RuntimeHandles) int {
	it := interpreter.New(pool.New(memoryBytes), handles)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		return runREPLInteractive(fd, it, handles)
	}
	return runREPLScripted(os.Stdin, it, handles)
}

func runREPLInteractive(fd int, it *interpreter.Interpreter, handles *driver.RuntimeHandles) int {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pscript: %v\n", err)
		return 1
	}
	defer term.Restore(fd, oldState)

	rw := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(rw, "pscript> ")

	for {
		line, err := t.ReadLine()
		if err != nil {
			fmt.Fprint(t, "\r\n")
			return 0
		}
		replLine(line, it, handles, t)
	}
}

func runREPLScripted(in io.Reader, it *interpreter.Interpreter, handles *driver.RuntimeHandles) int {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		replLine(scanner.Text(), it, handles, handles.Out)
	}
	return 0
}

func replLine(line string, it *interpreter.Interpreter, handles *driver.RuntimeHandles, out io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line == ":memory" {
		fmt.Fprintln(out, it.Pool.DebugDump())
		return
	}

	root, err := interpreter.ParseSource(line, "<repl>")
	if err != nil {
		fmt.Fprintf(handles.Err, "%v\n", err)
		return
	}
	script := &driver.Script{Filename: "<repl>", Source: line, AST: root}
	_ = it.Execute(script)
}
