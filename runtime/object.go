package runtime

// ObjKind tags a heap object variant. The set is closed and small -> encode
// it as a sum type with exhaustive switches rather than open polymorphism.
type ObjKind int

const (
	ObjStringKind ObjKind = iota
	ObjUpvalueKind
	ObjFunctionKind
	ObjClosureKind
	ObjClassKind
	ObjInstanceKind
	ObjBoundMethodKind
	ObjNativeKind
)

// Obj is satisfied by every heap object variant. Every variant embeds
// objHeader, which carries the GC mark bit and the intrusive next-pointer
// threading all live objects for sweep.
type Obj interface {
	kind() ObjKind
	header() *objHeader
}

type objHeader struct {
	marked bool
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

// ObjString is an interned, immutable byte sequence. Two Strings with equal
// contents always share one heap object -> string equality is pointer
// equality (see the intern table in table.go).
type ObjString struct {
	objHeader
	Chars string
	Hash  uint32
}

func (s *ObjString) kind() ObjKind { return ObjStringKind }

// ObjUpvalue is open while it still points into a live VM stack slot, and
// closed once it owns its own value cell (see captureUpvalue/closeUpvalues
// in vm.go). Open upvalues thread through Next in descending-address order.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	Next     *ObjUpvalue
}

func (u *ObjUpvalue) kind() ObjKind { return ObjUpvalueKind }

// ObjFunction is a compiled function body: its arity, how many upvalues its
// closures must capture, an optional name, and the Chunk holding its code.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func (f *ObjFunction) kind() ObjKind { return ObjFunctionKind }

// ObjClosure pairs a Function with the live upvalues it captured at the
// point of its OP_CLOSURE instantiation.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) kind() ObjKind { return ObjClosureKind }

// ObjClass holds a name and a method table (name -> Closure value).
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

func (c *ObjClass) kind() ObjKind { return ObjClassKind }

// ObjInstance is a class pointer plus a per-instance field table.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

func (i *ObjInstance) kind() ObjKind { return ObjInstanceKind }

// ObjBoundMethod pairs a receiver with the closure it was looked up from, so
// calling it later still sees the right `this`.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

func (b *ObjBoundMethod) kind() ObjKind { return ObjBoundMethodKind }

// NativeFn is the built-in call signature. It returns the result value and
// an error; a non-nil error is raised as a runtime error carrying its text,
// matching the native-call-signals-failure contract in
type NativeFn func(vm *VM, args []Value) (Value, error)

type ObjNative struct {
	objHeader
	Name     string
	Function NativeFn
}

func (n *ObjNative) kind() ObjKind { return ObjNativeKind }
