// Package cli maps an interpreter outcome to a process exit code: 0 on
// success, 64 for a command-line usage error, 65 for a compile-time
// diagnostic, 70 for a runtime failure, 74 when the source file itself
// couldn't be read.
package cli

import (
	"io/fs"

	"dyms/runtime"
)

const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitSoftware = 70
	ExitIOErr    = 74
)

// ExitCode classifies an error returned from reading a source file or
// running it through the VM into the exit code the process should report.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch err.(type) {
	case *runtime.CompileError:
		return ExitDataErr
	case *fs.PathError:
		return ExitIOErr
	default:
		return ExitSoftware
	}
}
