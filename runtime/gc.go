package runtime

import (
	"log"
	"os"
)

// gcLog is the VM's internal diagnostics logger (GC cycle stats under
// -trace), kept off of stdout so it never interleaves with a running
// program's `print` output.
var gcLog = log.New(os.Stderr, "gc: ", 0)

// gcGrowFactor is the fixed multiplier applied to bytesAllocated after a
// collection to compute the next collection threshold.
const gcGrowFactor = 2

// fnv1aHash computes the 32-bit FNV-1a hash used to key interned strings.
func fnv1aHash(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// internString returns the canonical ObjString for chars, allocating and
// interning a new one only if none already exists: at most one String per
// byte sequence exists for the VM's lifetime.
func (vm *VM) internString(chars string) *ObjString {
	hash := fnv1aHash(chars)
	if s := vm.strings.FindString(chars, hash); s != nil {
		return s
	}
	s := &ObjString{Chars: chars, Hash: hash}
	vm.registerObject(s, len(chars))
	// A fresh object must be reachable from some root before the next
	// allocation; push it on the VM stack while it's threaded into the
	// intern table.
	vm.push(ObjVal(s))
	vm.strings.Set(s, NilVal())
	vm.pop()
	return s
}

func (vm *VM) newFunction(name string) *ObjFunction {
	f := &ObjFunction{Chunk: NewChunk()}
	if name != "" {
		f.Name = vm.internString(name)
	}
	vm.registerObject(f, 96)
	return f
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	vm.registerObject(c, 32+8*fn.UpvalueCount)
	return c
}

func (vm *VM) newUpvalue(slot *Value) *ObjUpvalue {
	uv := &ObjUpvalue{Location: slot}
	vm.registerObject(uv, 40)
	return uv
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	vm.registerObject(c, 64)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	vm.registerObject(i, 64)
	return i
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	vm.registerObject(b, 48)
	return b
}

func (vm *VM) newNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Function: fn}
	vm.registerObject(n, 32)
	return n
}

// registerObject accounts o's (approximate) size against bytesAllocated and
// triggers a collection first, before threading o onto the VM's object
// list. The order matters: o must not be linked (and so visible to sweep)
// until after any collection this very allocation provokes, or a collection
// mid-allocation would sweep an object nothing has rooted yet (mirrors
// clox's allocateObject, where reallocate's stress check runs before the
// new object is linked).
func (vm *VM) registerObject(o Obj, size int) {
	vm.bytesAllocated += size
	if vm.stress || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
	h := o.header()
	h.next = vm.objects
	vm.objects = o
}

func objectSize(o Obj) int {
	switch t := o.(type) {
	case *ObjString:
		return len(t.Chars)
	case *ObjFunction:
		return 96
	case *ObjClosure:
		return 32 + 8*len(t.Upvalues)
	case *ObjUpvalue:
		return 40
	case *ObjClass:
		return 64
	case *ObjInstance:
		return 64
	case *ObjBoundMethod:
		return 48
	case *ObjNative:
		return 32
	default:
		return 16
	}
}

// gcState is the transient mark-phase worklist; it exists only for the
// duration of one collectGarbage call.
type gcState struct {
	vm        *VM
	grayStack []Obj
}

func (gc *gcState) markValue(v Value) {
	if v.Type == ValObj {
		gc.markObject(v.obj)
	}
}

// markObject marks o gray (sets its mark bit and pushes it on the gray
// worklist) if it isn't already marked. A nil object is a no-op.
func (gc *gcState) markObject(o Obj) {
	if o == nil {
		return
	}
	h := o.header()
	if h.marked {
		return
	}
	h.marked = true
	gc.grayStack = append(gc.grayStack, o)
}

func (gc *gcState) markRoots() {
	vm := gc.vm
	for i := 0; i < vm.stackTop; i++ {
		gc.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		gc.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		gc.markObject(uv)
	}
	vm.globals.Mark(gc)
	if vm.compilerRoot != nil {
		for c := *vm.compilerRoot; c != nil; c = c.enclosing {
			if c.function != nil {
				gc.markObject(c.function)
			}
		}
	}
	if vm.initString != nil {
		gc.markObject(vm.initString)
	}
}

// blacken scans one gray object's referents and marks them.
func (gc *gcState) blacken(o Obj) {
	switch t := o.(type) {
	case *ObjClosure:
		gc.markObject(t.Function)
		for _, uv := range t.Upvalues {
			// Slots stay nil while OP_CLOSURE is still capturing.
			if uv != nil {
				gc.markObject(uv)
			}
		}
	case *ObjFunction:
		if t.Name != nil {
			gc.markObject(t.Name)
		}
		for _, c := range t.Chunk.Constants {
			gc.markValue(c)
		}
	case *ObjClass:
		gc.markObject(t.Name)
		t.Methods.Mark(gc)
	case *ObjInstance:
		gc.markObject(t.Class)
		t.Fields.Mark(gc)
	case *ObjBoundMethod:
		gc.markValue(t.Receiver)
		gc.markObject(t.Method)
	case *ObjUpvalue:
		gc.markValue(t.Closed)
	case *ObjString, *ObjNative:
		// no outgoing references
	}
}

func (gc *gcState) traceReferences() {
	for len(gc.grayStack) > 0 {
		o := gc.grayStack[len(gc.grayStack)-1]
		gc.grayStack = gc.grayStack[:len(gc.grayStack)-1]
		gc.blacken(o)
	}
}

// sweep walks the object list, clearing mark bits on survivors and unlinking
// (and discounting from bytesAllocated) everything left white.
func (gc *gcState) sweep() {
	vm := gc.vm
	var prev Obj
	object := vm.objects
	for object != nil {
		h := object.header()
		if h.marked {
			h.marked = false
			prev = object
			object = h.next
			continue
		}
		unreached := object
		object = h.next
		if prev != nil {
			prev.header().next = object
		} else {
			vm.objects = object
		}
		vm.bytesAllocated -= objectSize(unreached)
	}
}

// collectGarbage runs one full tracing mark-sweep cycle to completion --
// "incremental" in name only; it is never interleaved with bytecode
// execution.
func (vm *VM) collectGarbage() {
	before := vm.bytesAllocated
	gc := &gcState{vm: vm}
	gc.markRoots()
	gc.traceReferences()
	vm.strings.RemoveWhite()
	gc.sweep()
	vm.nextGC = vm.bytesAllocated * gcGrowFactor
	if vm.nextGC < 1024 {
		vm.nextGC = 1024
	}
	if vm.trace {
		gcLog.Printf("collected %d bytes (%d -> %d), next at %d", before-vm.bytesAllocated, before, vm.bytesAllocated, vm.nextGC)
	}
}
