// Package wasmdebug builds human-readable WebAssembly stack traces out of
// the frames unwound by the call path (spec.md §4.K) after a trap or panic.
package wasmdebug

import (
	"fmt"
	"strings"

	"github.com/wasmerio/wasmer-core/api"
)

// maxFrames bounds how many frames a trace will include, so a deeply
// recursive guest program doesn't produce a multi-megabyte error string.
const maxFrames = 32

// Frame is one structured WebAssembly stack frame, matching spec.md §3's
// FrameInfo { module, function_index, function_name?, source_loc }.
type Frame struct {
	ModuleName    string
	FunctionName  string
	FunctionIndex uint32
	SourceOffset  uint64
}

// ErrorBuilder accumulates frames from the innermost call outward and
// produces a single error combining the original cause with the trace.
type ErrorBuilder struct {
	structured []Frame
	frames     []string
	n          int
}

// NewErrorBuilder returns an empty ErrorBuilder.
func NewErrorBuilder() *ErrorBuilder {
	return &ErrorBuilder{}
}

// AddFrame appends one stack frame, innermost-first.
func (b *ErrorBuilder) AddFrame(frame Frame, paramTypes, resultTypes []api.ValueType) {
	b.n++
	if len(b.frames) >= maxFrames {
		return
	}
	b.structured = append(b.structured, frame)
	debugName := frame.FunctionName
	if debugName == "" {
		debugName = fmt.Sprintf("%s.$%d", frame.ModuleName, frame.FunctionIndex)
	} else {
		debugName = frame.ModuleName + "." + debugName
	}
	sig := fmt.Sprintf("%s(%s) %s\n\toffset %#x", debugName, joinTypes(paramTypes), joinTypes(resultTypes), frame.SourceOffset)
	b.frames = append(b.frames, sig)
}

func joinTypes(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

// FromRecovered wraps a value recovered from panic() with the accumulated
// call stack in a *TraceError. When no frames have been added, the cause is
// returned unwrapped; the kind of error is not inspected.
func (b *ErrorBuilder) FromRecovered(recovered interface{}) error {
	var cause error
	switch v := recovered.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	if len(b.frames) == 0 {
		return cause
	}
	var sb strings.Builder
	sb.WriteString(cause.Error())
	sb.WriteString("\nwasm backtrace:")
	for i, f := range b.frames {
		fmt.Fprintf(&sb, "\n\t%d: %s", i, f)
	}
	if b.n > len(b.frames) {
		fmt.Fprintf(&sb, "\n\t... %d more", b.n-len(b.frames))
	}
	return &TraceError{cause: cause, trace: sb.String(), frames: b.structured}
}

// TraceError wraps a trap/panic cause with the formatted WebAssembly stack
// trace, while still unwrapping to the original cause via errors.Is/As.
type TraceError struct {
	cause  error
	trace  string
	frames []Frame
}

func (e *TraceError) Error() string { return e.trace }
func (e *TraceError) Unwrap() error { return e.cause }

// Frames returns the structured FrameInfo list (spec.md §3's TrapInfo.trace),
// innermost-first.
func (e *TraceError) Frames() []Frame { return e.frames }
