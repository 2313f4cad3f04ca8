package runtime

import (
	"fmt"
	"time"
)

// defineNatives binds every built-in global the VM starts with.
func defineNatives(vm *VM) {
	vm.defineNative("clock", nativeClock)
	vm.defineNative("error", nativeError)
	vm.defineNative("get", nativeGet)
	vm.defineNative("delete", nativeDelete)
	vm.defineNative("is", nativeIs)
}

func (vm *VM) defineNative(name string, fn NativeFn) {
	nameStr := vm.internString(name)
	vm.push(ObjVal(nameStr))
	native := vm.newNative(name, fn)
	vm.push(ObjVal(native))
	vm.globals.Set(nameStr, vm.peek(0))
	vm.pop()
	vm.pop()
}

// nativeClock returns the process's wall-clock time in fractional seconds.
func nativeClock(vm *VM, args []Value) (Value, error) {
	return NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}

// nativeError raises a runtime error carrying the given message (or a
// generic one with no argument), letting scripts fail deliberately with a
// message of their choosing.
func nativeError(vm *VM, args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, fmt.Errorf("error() called")
	}
	return Value{}, fmt.Errorf("%s", FormatValue(args[0]))
}

// nativeGet reads a named field off an instance, returning an optional
// default (or nil) when the field is absent, instead of raising -- the
// reflective counterpart to `.` property access, which always raises.
func nativeGet(vm *VM, args []Value) (Value, error) {
	if len(args) < 2 {
		return Value{}, fmt.Errorf("get() expects an instance and a field name.")
	}
	if !args[0].IsObjKind(ObjInstanceKind) {
		return Value{}, fmt.Errorf("get() expects an instance as its first argument.")
	}
	if !args[1].IsObjKind(ObjStringKind) {
		return Value{}, fmt.Errorf("get() expects a string field name.")
	}
	instance := args[0].AsInstance()
	name := args[1].AsString()
	if value, ok := instance.Fields.Get(name); ok {
		return value, nil
	}
	if len(args) >= 3 {
		return args[2], nil
	}
	return NilVal(), nil
}

// nativeDelete removes a field from an instance, returning whether it was
// present.
func nativeDelete(vm *VM, args []Value) (Value, error) {
	if len(args) < 2 {
		return Value{}, fmt.Errorf("delete() expects an instance and a field name.")
	}
	if !args[0].IsObjKind(ObjInstanceKind) {
		return Value{}, fmt.Errorf("delete() expects an instance as its first argument.")
	}
	if !args[1].IsObjKind(ObjStringKind) {
		return Value{}, fmt.Errorf("delete() expects a string field name.")
	}
	instance := args[0].AsInstance()
	name := args[1].AsString()
	return BoolVal(instance.Fields.Delete(name)), nil
}

// nativeIs reports whether an instance's class is identical to the given
// class -- there is no
// inheritance in this language, so this is exact-class identity rather than
// an `instanceof`-style ancestry check.
func nativeIs(vm *VM, args []Value) (Value, error) {
	if len(args) < 2 {
		return Value{}, fmt.Errorf("is() expects an instance and a class.")
	}
	if !args[0].IsObjKind(ObjInstanceKind) {
		return BoolVal(false), nil
	}
	if !args[1].IsObjKind(ObjClassKind) {
		return Value{}, fmt.Errorf("is() expects a class as its second argument.")
	}
	return BoolVal(args[0].AsInstance().Class == args[1].AsClass()), nil
}
