package runtime

// ValueType tags a Value cell. The encoding below is a fixed-size struct
// instead of an interface so Values can live on the VM's value stack without
// boxing.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the uniform tagged cell: nil, boolean, double, or a pointer to
// a heap Obj. NaN-boxing is a valid alternative encoding, but this
// tagged-struct form is what is implemented here.
type Value struct {
	Type ValueType
	num  float64
	obj  Obj
	b    bool
}

func NilVal() Value                { return Value{Type: ValNil} }
func BoolVal(b bool) Value          { return Value{Type: ValBool, b: b} }
func NumberVal(n float64) Value     { return Value{Type: ValNumber, num: n} }
func ObjVal(o Obj) Value            { return Value{Type: ValObj, obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj        { return v.obj }

// IsObjKind reports whether v holds a heap object of the given kind.
func (v Value) IsObjKind(k ObjKind) bool {
	return v.Type == ValObj && v.obj != nil && v.obj.kind() == k
}

func (v Value) AsString() *ObjString     { return v.obj.(*ObjString) }
func (v Value) AsFunction() *ObjFunction { return v.obj.(*ObjFunction) }
func (v Value) AsClosure() *ObjClosure   { return v.obj.(*ObjClosure) }
func (v Value) AsClass() *ObjClass       { return v.obj.(*ObjClass) }
func (v Value) AsInstance() *ObjInstance { return v.obj.(*ObjInstance) }
func (v Value) AsBoundMethod() *ObjBoundMethod {
	return v.obj.(*ObjBoundMethod)
}
func (v Value) AsNative() *ObjNative { return v.obj.(*ObjNative) }

// IsFalsey implements the truthiness rule: nil and false are falsey, every
// other value -- including 0 and "" -- is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// ValuesEqual implements equality: nil=nil, booleans by value, numbers
// by IEEE ==, objects by pointer identity (sound for strings because of
// interning).
func ValuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.b == b.b
	case ValNumber:
		return a.num == b.num
	case ValObj:
		return a.obj == b.obj
	default:
		return false
	}
}

func (v Value) String() string {
	return FormatValue(v)
}
