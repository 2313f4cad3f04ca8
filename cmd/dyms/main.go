package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"

	"dyms/cli"
	"dyms/runtime"
)

func main() {
	stressGC := flag.Bool("stress-gc", false, "collect garbage on every allocation")
	trace := flag.Bool("trace", false, "trace bytecode execution (stub, wired to the VM's debug hook)")
	flag.Parse()

	args := flag.Args()
	switch len(args) {
	case 0:
		runREPL(*stressGC, *trace)
	case 1:
		os.Exit(runFile(args[0], *stressGC, *trace))
	default:
		fmt.Fprintln(os.Stderr, "Usage: dyms [script]")
		os.Exit(cli.ExitUsage)
	}
}

// utf8BOM is the three-byte UTF-8 byte order mark. Source files saved by
// editors that emit one must still compile cleanly, so it is stripped
// before the bytes ever reach the scanner.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(b []byte) []byte {
	if len(b) >= len(utf8BOM) && bytes.Equal(b[:len(utf8BOM)], utf8BOM) {
		return b[len(utf8BOM):]
	}
	return b
}

func runFile(path string, stressGC, trace bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file %q: %v\n", path, err)
		return cli.ExitIOErr
	}
	source = stripBOM(source)

	vm := runtime.NewVM(stressGC)
	vm.SetTrace(trace)
	if err := vm.Interpret(string(source)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

// runREPL reads one line at a time and interprets it against a single
// long-lived VM, so declarations made on one line stay visible on the
// next -- each line compiles as its own top-level script, matching clox's
// main.c REPL loop.
func runREPL(stressGC, trace bool) {
	vm := runtime.NewVM(stressGC)
	vm.SetTrace(trace)
	scanner := bufio.NewScanner(os.Stdin)
	first := true
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Bytes()
		if first {
			line = stripBOM(line)
			first = false
		}
		if len(line) == 0 {
			continue
		}
		if err := vm.Interpret(string(line)); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
}
