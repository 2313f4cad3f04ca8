package runtime

import (
	"strconv"
	"strings"
)

// FormatValue renders a Value the way `print` and the REPL echo it. Numbers
// print as integers when they fall in the representable integer range,
// otherwise in Go's default float format; instances print as
// "<ClassName instance>"; functions as "<fn NAME>", or "<script>" for the
// implicit top-level function.
func FormatValue(v Value) string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.AsNumber())
	case ValObj:
		return formatObj(v.AsObj())
	default:
		return "?"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) && !isNegZero(n) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func isNegZero(n float64) bool {
	return n == 0 && strings.HasPrefix(strconv.FormatFloat(n, 'f', 6, 64), "-")
}

func formatObj(o Obj) string {
	switch t := o.(type) {
	case *ObjString:
		return t.Chars
	case *ObjFunction:
		if t.Name == nil {
			return "<script>"
		}
		return "<fn " + t.Name.Chars + ">"
	case *ObjClosure:
		return formatObj(t.Function)
	case *ObjNative:
		return "<native fn " + t.Name + ">"
	case *ObjClass:
		return t.Name.Chars
	case *ObjInstance:
		return "<" + t.Class.Name.Chars + " instance>"
	case *ObjBoundMethod:
		return formatObj(t.Method)
	case *ObjUpvalue:
		return "<upvalue>"
	default:
		return "<obj>"
	}
}
