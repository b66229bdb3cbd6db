//go:build linux || darwin

package wasmruntime

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var installOnce sync.Once

// InstallSignalHandlers registers, through os/signal.Notify, a process-wide
// receiver for SIGSEGV/SIGBUS/SIGILL/SIGFPE that prints the compiled modules
// mapped at the time and exits the process with status 2. Idempotent: later
// calls are no-ops.
//
// os/signal only delivers these signals when they are sent to the process
// (for example with kill). A signal raised by a fault in executing code is
// handled by the Go runtime itself (a panic or a fatal error) and does not
// reach this receiver, so a fault in compiled code is neither reported here
// nor translated into a typed trap, and execution never resumes after one.
//
// Traps are detected without it: internal/engine/compiler's emitted code
// checks division by zero, integer overflow and unreachable and exits with
// a status code, and its Go-side call_indirect dispatch checks table bounds,
// null entries and signatures.
func InstallSignalHandlers() {
	installOnce.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGILL, syscall.SIGFPE)
		go func() {
			sig := <-c
			reportFault(sig)
			os.Exit(2)
		}()
	})
}

// reportFault prints whichever compiled modules were mapped in when sig
// arrived. os/signal's channel only carries the os.Signal value, not the
// faulting PC/ucontext, so this can name candidate modules, not pin down
// the exact function -- still strictly more attribution than the process
// just dying with no wasm-level context at all.
func reportFault(sig os.Signal) {
	names := registeredModuleNames()
	fmt.Fprintf(os.Stderr, "wasmruntime: fatal signal %v; compiled wasm modules mapped at the time: %v\n", sig, names)
}
