package runtime

import (
	"fmt"
	"io"
	"os"
	"unsafe"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// CallFrame is one live call's view into the VM stack: the closure it is
// executing, its instruction pointer into that closure's chunk, and the
// stack slot its locals start at.
type CallFrame struct {
	closure *ObjClosure
	ip      int
	slots   int
}

// VM is the single execution engine every compiled chunk runs on -- there
// is no separate tree-walking path.
type VM struct {
	stack      [stackMax]Value
	stackTop   int
	frames     [framesMax]CallFrame
	frameCount int

	globals *Table
	strings *Table

	openUpvalues *ObjUpvalue

	objects        Obj
	bytesAllocated int
	nextGC         int
	stress         bool
	trace          bool

	initString *ObjString

	// compilerRoot lets the GC see the live compile-time Compiler chain
	// while Compile is running; nil the rest of the time.
	compilerRoot **Compiler

	stdout io.Writer
}

// NewVM builds a ready-to-run VM: empty stack, fresh globals/intern tables,
// the cached "init" string, and every native function bound. stress, when
// true, forces a collection on every single allocation (a debug mode).
func NewVM(stress bool) *VM {
	vm := &VM{
		globals: NewTable(),
		strings: NewTable(),
		nextGC:  1024 * 1024,
		stress:  stress,
		stdout:  os.Stdout,
	}
	vm.initString = vm.internString("init")
	defineNatives(vm)
	return vm
}

func (vm *VM) push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// SetTrace turns on per-instruction tracing to stderr, mirroring clox's
// DEBUG_TRACE_EXECUTION build flag as a runtime switch instead. Full
// disassembly is out of scope; this is wired only as a visible stub of the
// hook a real implementation would hang a disassembler off of.
func (vm *VM) SetTrace(on bool) { vm.trace = on }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Interpret compiles source and runs it to completion on a fresh call
// frame. The returned error, when non-nil, is either a *CompileError or a
// *RuntimeError -- the two diagnostic tiers described in
func (vm *VM) Interpret(source string) error {
	function, compileErr := Compile(vm, source)
	if compileErr != nil {
		return compileErr
	}

	vm.push(ObjVal(function))
	closure := vm.newClosure(function)
	vm.pop()
	vm.push(ObjVal(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}

	return vm.run()
}

// call pushes a new frame invoking closure with the argCount values already
// sitting on top of the stack, including the callee/this slot reserved
// beneath them.
func (vm *VM) call(closure *ObjClosure, argCount int) *RuntimeError {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argCount - 1
	return nil
}

// callValue dispatches OP_CALL's callee, which may be a closure, a native,
// a bound method, or a class acting as its own constructor.
func (vm *VM) callValue(callee Value, argCount int) *RuntimeError {
	if callee.IsObj() {
		switch callee.AsObj().kind() {
		case ObjClosureKind:
			return vm.call(callee.AsClosure(), argCount)
		case ObjNativeKind:
			native := callee.AsNative()
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result, err := native.Function(vm, args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stackTop -= argCount + 1
			vm.push(result)
			return nil
		case ObjClassKind:
			class := callee.AsClass()
			instance := vm.newInstance(class)
			vm.stack[vm.stackTop-argCount-1] = ObjVal(instance)
			if init, ok := class.Methods.Get(vm.initString); ok {
				return vm.call(init.AsClosure(), argCount)
			} else if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil
		case ObjBoundMethodKind:
			bound := callee.AsBoundMethod()
			vm.stack[vm.stackTop-argCount-1] = bound.Receiver
			return vm.call(bound.Method, argCount)
		}
	}
	return vm.runtimeError("Can only call functions and classes.")
}

// invokeFromClass looks up name on class's method table and calls it
// directly, without materializing an intermediate bound method -- the
// OP_INVOKE fast path described in
func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(method.AsClosure(), argCount)
}

func (vm *VM) invoke(name *ObjString, argCount int) *RuntimeError {
	receiver := vm.peek(argCount)
	if !receiver.IsObjKind(ObjInstanceKind) {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := receiver.AsInstance()
	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

// bindMethod looks up name on class, wraps it with the instance currently
// on top of the stack as its receiver, and replaces that top-of-stack value
// with the bound method.
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) *RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	bound := vm.newBoundMethod(vm.peek(0), method.AsClosure())
	vm.pop()
	vm.push(ObjVal(bound))
	return nil
}

// stackIndex recovers the stack slot a live pointer into vm.stack refers
// to, mirroring the pointer arithmetic clox's captureUpvalue/closeUpvalues
// do on `Value*` directly.
func stackIndex(vm *VM, loc *Value) int {
	base := uintptr(unsafe.Pointer(&vm.stack[0]))
	cur := uintptr(unsafe.Pointer(loc))
	return int((cur - base) / unsafe.Sizeof(vm.stack[0]))
}

// captureUpvalue returns the open upvalue for the stack slot at index,
// creating one if none exists yet. Open upvalues thread in descending
// stack-index order so a fresh capture can be spliced in without rescanning
// the whole list.
func (vm *VM) captureUpvalue(index int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && stackIndex(vm, uv.Location) > index {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && stackIndex(vm, uv.Location) == index {
		return uv
	}

	created := vm.newUpvalue(&vm.stack[index])
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack index from,
// copying its value into the upvalue's own Closed cell so it survives the
// frame's locals being popped.
func (vm *VM) closeUpvalues(from int) {
	for vm.openUpvalues != nil && stackIndex(vm, vm.openUpvalues.Location) >= from {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.Next
	}
}

// runtimeError builds a *RuntimeError carrying the formatted message and a
// frame-by-frame stack trace (innermost first), then resets the stack so a
// REPL session can keep going after the failure.
func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	message := fmt.Sprintf(format, args...)
	trace := make([]string, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := fn.Chunk.GetLine(frame.ip - 1)
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	vm.resetStack()
	return &RuntimeError{Message: message, Trace: trace}
}

func readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func readShort(frame *CallFrame) uint16 {
	code := frame.closure.Function.Chunk.Code
	hi, lo := code[frame.ip], code[frame.ip+1]
	frame.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func readLong(frame *CallFrame) int {
	code := frame.closure.Function.Chunk.Code
	v := int(code[frame.ip])<<16 | int(code[frame.ip+1])<<8 | int(code[frame.ip+2])
	frame.ip += 3
	return v
}

func readConstant(frame *CallFrame, idx int) Value {
	return frame.closure.Function.Chunk.Constants[idx]
}

// run is the bytecode dispatch loop. It is the only place instructions
// execute -- there is no secondary interpreter for "simple" programs.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		if vm.trace {
			fmt.Fprintf(os.Stderr, "          ip=%04d op=%s\n", frame.ip, OpCode(frame.closure.Function.Chunk.Code[frame.ip]))
		}
		op := OpCode(readByte(frame))
		switch op {
		case OpConstant:
			idx := int(readByte(frame))
			vm.push(readConstant(frame, idx))
		case OpConstantLong:
			idx := readLong(frame)
			vm.push(readConstant(frame, idx))

		case OpNil:
			vm.push(NilVal())
		case OpTrue:
			vm.push(BoolVal(true))
		case OpFalse:
			vm.push(BoolVal(false))
		case OpPop:
			vm.pop()
		case OpPopN:
			n := int(readByte(frame))
			vm.stackTop -= n

		case OpGetLocal:
			slot := int(readByte(frame))
			vm.push(vm.stack[frame.slots+slot])
		case OpGetLocalLong:
			slot := readLong(frame)
			vm.push(vm.stack[frame.slots+slot])
		case OpSetLocal:
			slot := int(readByte(frame))
			vm.stack[frame.slots+slot] = vm.peek(0)
		case OpSetLocalLong:
			slot := readLong(frame)
			vm.stack[frame.slots+slot] = vm.peek(0)

		case OpGetGlobal, OpGetGlobalLong:
			name := vm.readGlobalName(frame, op)
			value, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)
		case OpDefineGlobal, OpDefineGlobalLong:
			name := vm.readGlobalName(frame, op)
			if !vm.globals.SetIfNew(name, vm.peek(0)) {
				return vm.runtimeError("Already a variable named '%s'.", name.Chars)
			}
			vm.pop()
		case OpSetGlobal, OpSetGlobalLong:
			name := vm.readGlobalName(frame, op)
			if !vm.globals.SetIfExists(name, vm.peek(0)) {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			idx := int(readByte(frame))
			vm.push(*frame.closure.Upvalues[idx].Location)
		case OpGetUpvalueLong:
			idx := readLong(frame)
			vm.push(*frame.closure.Upvalues[idx].Location)
		case OpSetUpvalue:
			idx := int(readByte(frame))
			*frame.closure.Upvalues[idx].Location = vm.peek(0)
		case OpSetUpvalueLong:
			idx := readLong(frame)
			*frame.closure.Upvalues[idx].Location = vm.peek(0)

		case OpGetProperty, OpGetPropertyLong:
			if !vm.peek(0).IsObjKind(ObjInstanceKind) {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := vm.peek(0).AsInstance()
			name := vm.readGlobalName(frame, op)
			if value, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(value)
				break
			}
			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}
		case OpSetProperty, OpSetPropertyLong:
			if !vm.peek(1).IsObjKind(ObjInstanceKind) {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := vm.peek(1).AsInstance()
			name := vm.readGlobalName(frame, op)
			instance.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(BoolVal(ValuesEqual(a, b)))
		case OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolVal(a > b) }); err != nil {
				return err
			}
		case OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return BoolVal(a < b) }); err != nil {
				return err
			}
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(NumberVal(-vm.pop().AsNumber()))
		case OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a - b) }); err != nil {
				return err
			}
		case OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a * b) }); err != nil {
				return err
			}
		case OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return NumberVal(a / b) }); err != nil {
				return err
			}
		case OpNot:
			vm.push(BoolVal(vm.pop().IsFalsey()))

		case OpPrint:
			fmt.Fprintln(vm.stdout, FormatValue(vm.pop()))

		case OpJump:
			offset := readShort(frame)
			frame.ip += int(offset)
		case OpJumpIfFalse:
			offset := readShort(frame)
			if vm.peek(0).IsFalsey() {
				frame.ip += int(offset)
			}
		case OpLoop:
			offset := readShort(frame)
			frame.ip -= int(offset)

		case OpCall:
			argCount := int(readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpInvoke, OpInvokeLong:
			name := vm.readGlobalName(frame, op)
			argCount := int(readByte(frame))
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure, OpClosureLong:
			idx := vm.readOperand(frame, op)
			function := readConstant(frame, idx).AsFunction()
			closure := vm.newClosure(function)
			vm.push(ObjVal(closure))
			for i := 0; i < function.UpvalueCount; i++ {
				flag := readByte(frame)
				isLocal := flag&1 != 0
				isLong := flag&2 != 0
				var index int
				if isLong {
					index = readLong(frame)
				} else {
					index = int(readByte(frame))
				}
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slots + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass, OpClassLong:
			name := vm.readGlobalName(frame, op)
			vm.push(ObjVal(vm.newClass(name)))
		case OpMethod, OpMethodLong:
			name := vm.readGlobalName(frame, op)
			method := vm.peek(0)
			class := vm.peek(1).AsClass()
			class.Methods.Set(name, method)
			vm.pop()

		default:
			return vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

// readGlobalName reads either the short (one byte) or long (three byte)
// form of a named-operand instruction and resolves it to the interned
// ObjString constant it indexes.
func (vm *VM) readGlobalName(frame *CallFrame, op OpCode) *ObjString {
	return readConstant(frame, vm.readOperand(frame, op)).AsString()
}

func (vm *VM) readOperand(frame *CallFrame, op OpCode) int {
	switch op {
	case OpGetGlobalLong, OpDefineGlobalLong, OpSetGlobalLong,
		OpGetPropertyLong, OpSetPropertyLong, OpInvokeLong,
		OpClosureLong, OpClassLong, OpMethodLong:
		return readLong(frame)
	default:
		return int(readByte(frame))
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) Value) *RuntimeError {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

// add implements OP_ADD's two forms: number+number, or string+string
// (concatenation, interning the result),
func (vm *VM) add() *RuntimeError {
	switch {
	case vm.peek(0).IsNumber() && vm.peek(1).IsNumber():
		b := vm.pop().AsNumber()
		a := vm.pop().AsNumber()
		vm.push(NumberVal(a + b))
	case vm.peek(0).IsObjKind(ObjStringKind) && vm.peek(1).IsObjKind(ObjStringKind):
		b := vm.pop().AsString()
		a := vm.pop().AsString()
		vm.push(ObjVal(vm.internString(a.Chars + b.Chars)))
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
	return nil
}
