package runtime

import (
	"bytes"
	"strings"
	"testing"
)

// run compiles and interprets source against a fresh VM, returning whatever
// it printed to stdout. Fails the test on any compile or runtime error.
func run(t *testing.T, source string) string {
	t.Helper()
	vm := NewVM(false)
	var out bytes.Buffer
	vm.stdout = &out
	if err := vm.Interpret(source); err != nil {
		t.Fatalf("Interpret(%q) failed: %v", source, err)
	}
	return out.String()
}

// runErr is like run but expects interpretation to fail, returning the error.
func runErr(t *testing.T, source string) error {
	t.Helper()
	vm := NewVM(false)
	var out bytes.Buffer
	vm.stdout = &out
	return vm.Interpret(source)
}

func TestArithmeticAndPrecedence(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{`print 1 + 2 * 3;`, "7\n"},
		{`print (1 + 2) * 3;`, "9\n"},
		{`print 10 / 2 - 1;`, "4\n"},
		{`print -5 + 2;`, "-3\n"},
		{`print 1 == 1;`, "true\n"},
		{`print 1 != 2;`, "true\n"},
		{`print 3 < 4;`, "true\n"},
		{`print !false;`, "true\n"},
		{`print "a" + "b";`, "ab\n"},
	}
	for _, tt := range tests {
		if got := run(t, tt.source); got != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.source, got, tt.expected)
		}
	}
}

func TestGlobalAndLocalVariables(t *testing.T) {
	source := `
		var a = 1;
		var b = 2;
		{
			var c = a + b;
			var a = c;
			print a;
		}
		print a;
	`
	got := run(t, source)
	want := "3\n1\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			"while loop",
			`var sum = 0; var i = 0; while (i < 5) { sum = sum + i; i = i + 1; } print sum;`,
			"10\n",
		},
		{
			"for loop",
			`var sum = 0; for (var i = 0; i < 5; i = i + 1) { sum = sum + i; } print sum;`,
			"10\n",
		},
		{
			"if/else",
			`if (1 < 2) { print "yes"; } else { print "no"; }`,
			"yes\n",
		},
		{
			"and/or short-circuit",
			`print false and nope; print true or nope;`,
			"false\ntrue\n",
		},
	}
	for _, tt := range tests {
		if got := run(t, tt.source); got != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestFunctionsAndClosures(t *testing.T) {
	source := `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`
	got := run(t, source)
	want := "1\n2\n3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursion(t *testing.T) {
	source := `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`
	if got := run(t, source); got != "55\n" {
		t.Errorf("got %q, want %q", got, "55\n")
	}
}

func TestClassesAndMethods(t *testing.T) {
	source := `
		class Counter {
			init(start) {
				this.value = start;
			}
			bump() {
				this.value = this.value + 1;
				return this.value;
			}
		}
		var c = Counter(10);
		print c.bump();
		print c.bump();
	`
	got := run(t, source)
	want := "11\n12\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBoundMethodsCloseOverReceiver(t *testing.T) {
	source := `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				print this.name;
			}
		}
		var g = Greeter("Ada");
		var bound = g.greet;
		bound();
	`
	if got := run(t, source); got != "Ada\n" {
		t.Errorf("got %q, want %q", got, "Ada\n")
	}
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	err := runErr(t, `print nope;`)
	if err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}
	if !strings.Contains(err.Error(), "Undefined variable") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestRedefiningGlobalIsRuntimeError(t *testing.T) {
	err := runErr(t, `var a = 1; var a = 2;`)
	if err == nil {
		t.Fatal("expected an error redefining an existing global")
	}
}

func TestSyntaxErrorIsCompileError(t *testing.T) {
	err := runErr(t, `var = 1;`)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Fatalf("expected *CompileError, got %T", err)
	}
}

func TestNativeClockReturnsANumber(t *testing.T) {
	source := `
		var t = clock();
		print t > 0;
	`
	if got := run(t, source); got != "true\n" {
		t.Errorf("got %q, want %q", got, "true\n")
	}
}
