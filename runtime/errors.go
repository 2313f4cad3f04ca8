package runtime

import (
	"fmt"
	"strings"
)

// CompileError collects every diagnostic the compiler reported for one
// compilation -- the compiler keeps scanning after an error (panic-mode
// recovery, see compiler.go's synchronize) so the caller sees as many
// distinct errors as possible in one run,
type CompileError struct {
	Diagnostics []string
}

func (e *CompileError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return "compile error"
	}
	return strings.Join(e.Diagnostics, "\n")
}

// RuntimeError carries the failing message plus the frame-by-frame stack
// trace the VM recorded at the moment of failure.
type RuntimeError struct {
	Message string
	Trace   []string
}

func (e *RuntimeError) Error() string {
	if e == nil {
		return "runtime error: unknown"
	}
	if len(e.Trace) == 0 {
		return fmt.Sprintf("runtime error: %s", e.Message)
	}
	return fmt.Sprintf("%s\n%s", e.Message, strings.Join(e.Trace, "\n"))
}

func NewRuntimeError(message string) *RuntimeError {
	return &RuntimeError{Message: message}
}
