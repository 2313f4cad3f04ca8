package runtime

import "testing"

func compile(t *testing.T, source string) *ObjFunction {
	t.Helper()
	vm := NewVM(false)
	fn, err := Compile(vm, source)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", source, err)
	}
	return fn
}

func TestCompileUsesShortConstantForm(t *testing.T) {
	fn := compile(t, `print 1;`)
	code := fn.Chunk.Code
	if len(code) < 2 || OpCode(code[0]) != OpConstant {
		t.Fatalf("expected first instruction to be OP_CONSTANT, got %v", code)
	}
}

func TestCompileUsesLongConstantFormPastThreshold(t *testing.T) {
	// One `print N;` statement per number forces more than 255 distinct constants into
	// the chunk, which must push the compiler onto the 24-bit operand form.
	source := ""
	for i := 0; i < 300; i++ {
		source += "print " + itoa(i) + ";"
	}
	fn := compile(t, source)

	sawLong := false
	code := fn.Chunk.Code
	for i := 0; i < len(code); {
		op := OpCode(code[i])
		switch op {
		case OpConstantLong:
			sawLong = true
			i += 4
		case OpConstant:
			i += 2
		case OpPrint:
			i++
		default:
			i++
		}
	}
	if !sawLong {
		t.Error("expected at least one OP_CONSTANT_LONG once the constant pool exceeds 255 entries")
	}
}

func TestCompileReportsMultipleDiagnosticsInOnePass(t *testing.T) {
	vm := NewVM(false)
	_, err := Compile(vm, "var = 1; var = 2;")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if len(err.Diagnostics) < 2 {
		t.Errorf("expected panic-mode recovery to surface multiple diagnostics, got %d: %v",
			len(err.Diagnostics), err.Diagnostics)
	}
}

func TestCompileClosureEmitsUpvalueOperands(t *testing.T) {
	fn := compile(t, `
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`)
	var outer *ObjFunction
	for _, c := range fn.Chunk.Constants {
		if c.IsObjKind(ObjFunctionKind) {
			outer = c.AsFunction()
		}
	}
	if outer == nil {
		t.Fatal("expected outer's function among the script's constants")
	}
	// outer's chunk should contain an OP_CLOSURE for inner with one upvalue
	// pair following the function constant operand: flag 1 (local, short
	// form) and index 1 (x's slot).
	found := false
	code := outer.Chunk.Code
	for i := 0; i+3 < len(code); i++ {
		if OpCode(code[i]) == OpClosure && code[i+2] == 1 && code[i+3] == 1 {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected OP_CLOSURE with upvalue pair (1, 1) in outer's chunk, got %v", code)
	}
}

func TestCompileInvalidAssignmentTargetIsAnError(t *testing.T) {
	vm := NewVM(false)
	_, err := Compile(vm, `1 + 2 = 3;`)
	if err == nil {
		t.Fatal("expected a compile error for an invalid assignment target")
	}
}

func TestCompileReturnAtTopLevelIsAnError(t *testing.T) {
	vm := NewVM(false)
	_, err := Compile(vm, `return 1;`)
	if err == nil {
		t.Fatal("expected a compile error for a top-level return")
	}
}
