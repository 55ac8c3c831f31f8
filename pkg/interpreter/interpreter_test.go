package interpreter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pscript/pkg/driver"
	"pscript/pkg/pool"
	"pscript/pkg/value"
)

func run(t *testing.T, source string) (*Interpreter, string, error) {
	t.Helper()
	root, err := ParseSource(source, "test.ps")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	var errOut bytes.Buffer
	handles := driver.NewRuntimeHandles(bytes.NewReader(nil), &out, &errOut)
	it := New(pool.New(1<<16), handles)
	script := &driver.Script{Filename: "test.ps", Source: source, AST: root}
	execErr := it.Execute(script)
	return it, out.String(), execErr
}

func TestArithmeticPrecedence(t *testing.T) {
	it, _, err := run(t, `
let x = 2*(3+2);
let y = 2*3+2;
let z = 2+2*3;
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	x, _ := it.Env.GetGlobal("x")
	y, _ := it.Env.GetGlobal("y")
	z, _ := it.Env.GetGlobal("z")
	if x.Tag() != value.TagInteger || x.Int() != 10 {
		t.Fatalf("x = %v, want integer 10", value.Render(x))
	}
	if y.Tag() != value.TagInteger || y.Int() != 8 {
		t.Fatalf("y = %v, want integer 8", value.Render(y))
	}
	if z.Tag() != value.TagInteger || z.Int() != 8 {
		t.Fatalf("z = %v, want integer 8", value.Render(z))
	}
}

func TestFibonacciRecursion(t *testing.T) {
	it, out, err := run(t, `
fn fib(n:int) -> int {
	if (n <= 1) {
		return n;
	}
	return fib(n-1) + fib(n-2);
}
__print(fib(11));
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "89\n" {
		t.Fatalf("output = %q, want %q", out, "89\n")
	}
	_ = it
}

func TestWhileLoopTriangleSum(t *testing.T) {
	_, out, err := run(t, `
let sum = 0;
let i = 1;
while (i <= 5) {
	sum = sum + i;
	i = i + 1;
}
__print(sum);
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "15\n" {
		t.Fatalf("output = %q, want %q", out, "15\n")
	}
}

func TestReferenceSemanticsAcrossCall(t *testing.T) {
	_, out, err := run(t, `
fn mutate(l:&list) -> int {
	l[1] = 3;
	return 0;
}
let l = [1, 2, 3];
mutate(l);
__print(l[1]);
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "3\n" {
		t.Fatalf("output = %q, want %q", out, "3\n")
	}
}

func TestStringFormatting(t *testing.T) {
	_, out, err := run(t, `
__print("Hello, {}".format(["pengu"]));
__print("list = {}".format([[1,2,3]]));
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "Hello, pengu\nlist = [1, 2, 3]\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestImportResolvesQualifiedCall(t *testing.T) {
	dir := t.TempDir()
	stdDir := filepath.Join(dir, "std")
	if err := os.MkdirAll(stdDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	moduleSrc := `fn print(x:int) -> int { __print(x); return 0; }`
	if err := os.WriteFile(filepath.Join(stdDir, "io.ps"), []byte(moduleSrc), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	source := `
import std.io;
std.io.print(5);
`
	root, err := ParseSource(source, "test.ps")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out, errOut bytes.Buffer
	handles := driver.NewRuntimeHandles(bytes.NewReader(nil), &out, &errOut)
	handles.ModuleRoots = []string{dir}
	it := New(pool.New(1<<16), handles)
	script := &driver.Script{Filename: "test.ps", Source: source, AST: root}
	if err := it.Execute(script); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.String() != "5\n" {
		t.Fatalf("output = %q, want %q", out.String(), "5\n")
	}
}

func TestListAppendRejectsForeignType(t *testing.T) {
	_, _, err := run(t, `
let l = [1, 2];
l.append("nope");
`)
	if err == nil {
		t.Fatalf("expected append type error")
	}
}

func TestArityErrorOnMismatchedCall(t *testing.T) {
	_, _, err := run(t, `
fn one(x:int) -> int { return x; }
one(1, 2);
`)
	if err == nil {
		t.Fatalf("expected ArityError")
	}
}

func TestStructConstructionWithDefaults(t *testing.T) {
	it, _, err := run(t, `
struct Point {
	x: int;
	y: int = 9;
};
let p = Point{1};
`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	p, _ := it.Env.GetGlobal("p")
	x, err := p.Field("x")
	if err != nil {
		t.Fatalf("field x: %v", err)
	}
	if x.Int() != 1 {
		t.Fatalf("p.x = %d, want 1", x.Int())
	}
	y, err := p.Field("y")
	if err != nil {
		t.Fatalf("field y: %v", err)
	}
	if y.Int() != 9 {
		t.Fatalf("p.y = %d, want 9", y.Int())
	}
}

func TestCallRejectsNarrowingStructArgument(t *testing.T) {
	_, _, err := run(t, `
struct Point { x: int; };
struct Circle { r: int; };
fn takesPoint(p: Point) -> int { return p->x; }
let c = Circle { 5 };
takesPoint(c);
`)
	if err == nil {
		t.Fatalf("expected TypeError passing a Circle where a Point is declared")
	}
}

func TestConstructRejectsNarrowingFieldValue(t *testing.T) {
	_, _, err := run(t, `
struct Point { x: int; };
struct Circle { r: int; };
struct Wrapper { inner: Point; };
let c = Circle { 5 };
let w = Wrapper { c };
`)
	if err == nil {
		t.Fatalf("expected TypeError constructing Wrapper with a Circle field")
	}
}

func TestFieldAssignmentRejectsNarrowingStructType(t *testing.T) {
	_, _, err := run(t, `
struct Point { x: int; };
struct Circle { r: int; };
struct Wrapper { inner: Point; };
let p = Point { 1 };
let w = Wrapper { p };
let c = Circle { 5 };
w->inner = c;
`)
	if err == nil {
		t.Fatalf("expected TypeError assigning a Circle into a field declared Point")
	}
}

func TestFunctionScopeDoesNotLeak(t *testing.T) {
	_, _, err := run(t, `
fn helper() -> int {
	let secret = 1;
	return secret;
}
helper();
__print(secret);
`)
	if err == nil {
		t.Fatalf("expected UndefinedVariable for leaked scope")
	}
}
