// Package compiler is the sys-backend implementation of wasm.Engine: it
// compiles each function body to native machine code ahead of execution,
// rather than interpreting the operator stream at call time. Grounded
// directly on the teacher's own internal/engine/compiler/engine.go, which
// documents its own struct layout as assembly-sensitive ("the offset of
// many of the struct fields defined here are referenced from assembly") --
// the same constraint this file's structs are written under.
package compiler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/wasmerio/wasmer-core/internal/platform"
	"github.com/wasmerio/wasmer-core/internal/version"
	"github.com/wasmerio/wasmer-core/internal/wasm"
	"github.com/wasmerio/wasmer-core/internal/wasmdebug"
	"github.com/wasmerio/wasmer-core/internal/wasmruntime"
	"github.com/wasmerio/wasmer-core/internal/wazeroir"
)

// NOTE: struct field offsets here are baked into the machine code
// compiler.go emits (via the constants in offsets.go). Changing a struct's
// layout requires checking offsets.go and offsets_test.go in lockstep.
type (
	// engine is the process-wide compiler.Engine, implementing wasm.Engine.
	engine struct {
		codes map[wasm.ModuleID][]*code // guarded by mux
		mux   sync.RWMutex
		// setFinalizer defaults to runtime.SetFinalizer, overridable in tests.
		setFinalizer func(obj interface{}, finalizer interface{})
	}

	// moduleEngine implements wasm.ModuleEngine for one instantiated module.
	moduleEngine struct {
		functions []function
	}

	// callEngine holds per-Call state, reused across the nested function
	// calls one top-level Call triggers.
	callEngine struct {
		moduleContext
		stackContext
		exitContext

		// stack is the Go-managed operand + call-frame stack compiled code
		// addresses via stackContext.stackElement0Address.
		stack []uint64

		initialFn *function
		ctx       context.Context
	}

	// moduleContext is the per-instance context block (the VMContext of
	// spec.md §4.G). Call sets fn and moduleInstance; the code amd64Compiler
	// emits reads and writes only stackContext and exitContext fields.
	moduleContext struct {
		fn             *function
		moduleInstance *wasm.ModuleInstance

		globalElement0Address uintptr
		memoryElement0Address uintptr
		memorySliceLen        uint64
		memoryInstance        *wasm.MemoryInstance
		tablesElement0Address uintptr

		functionsElement0Address uintptr
		typeIDsElement0Address   uintptr
	}

	stackContext struct {
		stackPointer            uint64
		stackBasePointerInBytes uint64
		stackElement0Address    uintptr
		stackLenInBytes         uint64
	}

	// exitContext is populated by compiled code immediately before it
	// returns control to Go, telling Call why it returned.
	exitContext struct {
		statusCode               nativeCallStatusCode
		builtinFunctionCallIndex wasm.Index
		returnAddress            uintptr
		callerModuleInstance     *wasm.ModuleInstance

		// trapSourceOffset is the wazeroir.UnionOperation.SourceOffsetInWasmBinary
		// of whichever instruction set statusCode to a trap, so the backtrace
		// built in run() can report where inside the function body it fired.
		trapSourceOffset uint64

		// callFunctionIndex is the callee's index in moduleInstance.Functions,
		// set by compiled code before a tail-position direct call exit
		// (nativeCallStatusCodeCallGoHostFunction).
		callFunctionIndex wasm.Index

		// callIndirectTypeIndex/callIndirectTableIndex are call_indirect's
		// static operands (baked in at compile time); callIndirectTableSlot is
		// the dynamic table index popped off the evaluation stack at runtime.
		callIndirectTypeIndex wasm.Index
		callIndirectTableIndex wasm.Index
		callIndirectTableSlot  uint32

		// memoryGrowDeltaPages is memory.grow's operand, set by compiled code
		// before a nativeCallStatusCodeMemoryGrow exit.
		memoryGrowDeltaPages uint32
	}

	// callFrame is the layout of a call-frame record on callEngine.stack.
	// The code amd64Compiler emits does not push one: every call it compiles
	// exits to Go in tail position instead.
	callFrame struct {
		returnAddress                 uintptr
		returnStackBasePointerInBytes uint64
		function                      *function
	}

	// function is one instantiated function: the code it shares with every
	// other instance of the same module plus instance-specific context.
	function struct {
		codeInitialAddress uintptr
		moduleInstance     *wasm.ModuleInstance
		typeID             wasm.FunctionTypeID
		index              wasm.Index
		funcType           *wasm.FunctionType
		parent             *code
	}

	// code is the machine code compiled for one function in a module,
	// shared by every instance of that module.
	code struct {
		codeSegment      []byte
		stackPointerCeil uint64
		indexInModule    wasm.Index
		sourceModule     *wasm.Module

		goFunc interface{}
	}
)

// nativeCallStatusCode is set by compiled code just before it returns to Go,
// telling Call what follow-up action (if any) is needed.
type nativeCallStatusCode uint32

const (
	nativeCallStatusCodeReturned nativeCallStatusCode = iota
	nativeCallStatusCodeCallGoHostFunction
	nativeCallStatusCodeCallBuiltInFunction
	nativeCallStatusCodeUnreachable
	nativeCallStatusCodeInvalidFloatToIntConversion
	nativeCallStatusCodeMemoryOutOfBounds
	nativeCallStatusCodeInvalidTableAccess
	nativeCallStatusCodeTypeMismatchOnIndirectCall
	nativeCallStatusCodeIntegerOverflow
	nativeCallStatusCodeIntegerDivisionByZero
	// nativeCallStatusCodeCallIndirect is a tail-position call_indirect exit:
	// ce.run resolves callIndirectTableSlot against the table named by
	// callIndirectTableIndex, checks its type against callIndirectTypeIndex,
	// and dispatches or traps.
	nativeCallStatusCodeCallIndirect
	// nativeCallStatusCodeMemoryGrow is a tail-position memory.grow exit.
	nativeCallStatusCodeMemoryGrow
)

func (s nativeCallStatusCode) causePanic() {
	var err error
	switch s {
	case nativeCallStatusCodeIntegerOverflow:
		err = wasmruntime.ErrRuntimeIntegerOverflow
	case nativeCallStatusCodeIntegerDivisionByZero:
		err = wasmruntime.ErrRuntimeIntegerDivideByZero
	case nativeCallStatusCodeInvalidFloatToIntConversion:
		err = wasmruntime.ErrRuntimeInvalidConversionToInteger
	case nativeCallStatusCodeUnreachable:
		err = wasmruntime.ErrRuntimeUnreachable
	case nativeCallStatusCodeMemoryOutOfBounds:
		err = wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess
	case nativeCallStatusCodeInvalidTableAccess:
		err = wasmruntime.ErrRuntimeInvalidTableAccess
	case nativeCallStatusCodeTypeMismatchOnIndirectCall:
		err = wasmruntime.ErrRuntimeIndirectCallTypeMismatch
	default:
		err = fmt.Errorf("compiler: unexpected native call status %d", s)
	}
	panic(err)
}

// NewEngine constructs the process-wide compiler engine.
func NewEngine() wasm.Engine {
	wasmruntime.InstallSignalHandlers()
	return &engine{codes: map[wasm.ModuleID][]*code{}, setFinalizer: runtime.SetFinalizer}
}

func (e *engine) getCodes(m *wasm.Module) ([]*code, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	c, ok := e.codes[m.ID]
	return c, ok
}

func (e *engine) addCodes(m *wasm.Module, codes []*code) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.codes[m.ID] = codes
}

// CompileModule implements wasm.Engine.
func (e *engine) CompileModule(m *wasm.Module) error {
	if _, ok := e.getCodes(m); ok {
		return nil // already compiled; artifacts are keyed by content hash
	}

	results, err := wazeroir.CompileFunctions(m, m.EnabledFeatures)
	if err != nil {
		return fmt.Errorf("compiler: lowering module: %w", err)
	}

	codes := make([]*code, len(results))
	for i, res := range results {
		c := newAmd64Compiler()
		segment, ceil, err := c.compile(res)
		if err != nil {
			return fmt.Errorf("compiler: compiling func[%d]: %w", i, err)
		}
		compiled := &code{codeSegment: segment, stackPointerCeil: ceil, indexInModule: wasm.Index(i), sourceModule: m}
		if len(segment) > 0 {
			start := uintptr(unsafe.Pointer(&segment[0]))
			wasmruntime.RegisterCodeRange(start, start+uintptr(len(segment)), m.Name)
		}
		e.setFinalizer(compiled, releaseCode)
		codes[i] = compiled
	}
	e.addCodes(m, codes)
	return nil
}

func releaseCode(compiled *code) {
	if compiled.codeSegment == nil {
		return
	}
	segment := compiled.codeSegment
	compiled.codeSegment = nil
	wasmruntime.UnregisterCodeRange(uintptr(unsafe.Pointer(&segment[0])))
	if err := platform.MunmapCodeSegment(segment); err != nil {
		panic(fmt.Errorf("compiler: munmap failed for module func[%d]: %w", compiled.indexInModule, err))
	}
}

// ReleaseCompilationCache implements wasm.Engine.
func (e *engine) ReleaseCompilationCache(m *wasm.Module) {
	e.mux.Lock()
	defer e.mux.Unlock()
	delete(e.codes, m.ID)
}

// NewModuleEngine implements wasm.Engine.
func (e *engine) NewModuleEngine(m *wasm.Module, instance *wasm.ModuleInstance) (wasm.ModuleEngine, error) {
	codes, ok := e.getCodes(m)
	if !ok {
		return nil, fmt.Errorf("compiler: module %s not compiled", version.EngineID)
	}
	importedCount := int(m.ImportFunctionCount)
	functions := make([]function, len(instance.Functions))
	for i := range instance.Functions {
		fi := instance.Functions[i]
		if fi.IsHostFunc {
			continue // dispatched directly by wasm.FunctionInstance.Call, never through moduleEngine
		}
		localIdx := i - importedCount
		if localIdx < 0 || localIdx >= len(codes) {
			continue
		}
		c := codes[localIdx]
		var addr uintptr
		if len(c.codeSegment) > 0 {
			addr = uintptr(unsafe.Pointer(&c.codeSegment[0]))
		}
		functions[i] = function{
			codeInitialAddress: addr,
			moduleInstance:     instance,
			typeID:             wasm.GetFunctionTypeID(fi.Type),
			index:              wasm.Index(i),
			funcType:           fi.Type,
			parent:             c,
		}
	}
	return &moduleEngine{functions: functions}, nil
}

// Call implements wasm.ModuleEngine. It enters compiled code once through the
// nativecall trampoline; compiled code runs until it either finishes or exits
// back to Go with a trap, a tail-position call or a memory.grow, which run
// then completes in Go without re-entering compiled code.
func (m *moduleEngine) Call(idx wasm.Index, params []uint64) ([]uint64, error) {
	if int(idx) >= len(m.functions) {
		return nil, fmt.Errorf("compiler: function index %d out of range", idx)
	}
	fn := &m.functions[idx]
	if fn.codeInitialAddress == 0 {
		return nil, fmt.Errorf("compiler: function[%d] has no compiled code", idx)
	}

	ce := &callEngine{initialFn: fn, ctx: context.Background()}
	ce.stack = make([]uint64, initialStackSize)
	ce.stackElement0Address = uintptr(unsafe.Pointer(&ce.stack[0]))
	ce.stackLenInBytes = uint64(len(ce.stack)) * 8
	copy(ce.stack, params)
	ce.stackPointer = uint64(len(params))
	ce.fn = fn
	ce.moduleInstance = fn.moduleInstance

	if err := ce.run(fn); err != nil {
		return nil, err
	}
	results := make([]uint64, len(fn.funcType.Results))
	copy(results, ce.stack[:len(results)])
	return results, nil
}

const initialStackSize = 1024

// run drives nativecall until the function body returns normally. A trap
// status causes an immediate panic, matching the teacher's non-recoverable
// trap policy (spec.md §7); the deferred recover wraps it with the one
// WebAssembly frame run knows about (fn itself -- this engine's tail-call-
// only scope means a trap is always attributable to the function nativecall
// most recently entered, never a deeper unwound frame).
func (ce *callEngine) run(fn *function) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b := wasmdebug.NewErrorBuilder()
			def := fn.moduleInstance.Functions[fn.index].Definition()
			b.AddFrame(wasmdebug.Frame{
				ModuleName:    fn.moduleInstance.ModuleName,
				FunctionName:  def.Name(),
				FunctionIndex: uint32(fn.index),
				SourceOffset:  ce.trapSourceOffset,
			}, def.ParamTypes(), def.ResultTypes())
			err = b.FromRecovered(r)
		}
	}()

	nativecall(fn.codeInitialAddress, uintptr(unsafe.Pointer(ce)), uintptr(unsafe.Pointer(fn.moduleInstance)))

	switch ce.statusCode {
	case nativeCallStatusCodeReturned:
		return nil
	case nativeCallStatusCodeCallGoHostFunction:
		return ce.dispatchTailCall(ce.callFunctionIndex)
	case nativeCallStatusCodeCallIndirect:
		return ce.dispatchTailCallIndirect()
	case nativeCallStatusCodeMemoryGrow:
		return ce.dispatchMemoryGrow()
	default:
		ce.statusCode.causePanic()
		return nil // unreachable
	}
}

// dispatchTailCall finishes a direct call compiled in tail position: idx's
// function is invoked with whatever arguments compiled code staged at the
// front of ce.stack, and its results become this Call's results in turn
// (there is no compiled code left to resume, by construction -- the call
// was this function's final operation).
func (ce *callEngine) dispatchTailCall(idx wasm.Index) error {
	callee := ce.moduleInstance.Functions[idx]
	params := ce.stack[:len(callee.Type.Params)]
	results, err := callee.Call(ce.ctx, params...)
	if err != nil {
		return err
	}
	copy(ce.stack, results)
	return nil
}

// dispatchTailCallIndirect resolves call_indirect's dynamic table slot
// against its declared type before dispatching, per spec.md's
// InvalidTableAccess/BadSignature traps.
func (ce *callEngine) dispatchTailCallIndirect() error {
	if int(ce.callIndirectTableIndex) >= len(ce.moduleInstance.Tables) {
		panic(wasmruntime.ErrRuntimeInvalidTableAccess)
	}
	table := ce.moduleInstance.Tables[ce.callIndirectTableIndex]
	ref, err := table.Get(ce.callIndirectTableSlot)
	if err != nil {
		panic(err)
	}
	if ref == 0 {
		panic(wasmruntime.ErrRuntimeIndirectCallToNull)
	}
	calleeIdx := wasm.Index(ref)
	if int(calleeIdx) >= len(ce.moduleInstance.Functions) {
		panic(wasmruntime.ErrRuntimeInvalidTableAccess)
	}
	callee := ce.moduleInstance.Functions[calleeIdx]
	if int(ce.callIndirectTypeIndex) >= len(ce.moduleInstance.Types) {
		panic(wasmruntime.ErrRuntimeIndirectCallTypeMismatch)
	}
	expected := ce.moduleInstance.Types[ce.callIndirectTypeIndex]
	if wasm.GetFunctionTypeID(callee.Type) != wasm.GetFunctionTypeID(expected) {
		panic(wasmruntime.ErrRuntimeIndirectCallTypeMismatch)
	}
	params := ce.stack[:len(callee.Type.Params)]
	results, err := callee.Call(ce.ctx, params...)
	if err != nil {
		return err
	}
	copy(ce.stack, results)
	return nil
}

// dispatchMemoryGrow finishes a memory.grow compiled in tail position,
// leaving the previous page count (or -1 on failure) as the function's
// single i32 result.
func (ce *callEngine) dispatchMemoryGrow() error {
	if ce.moduleInstance.Mem == nil {
		panic(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
	}
	prev, ok := ce.moduleInstance.Mem.Grow(ce.memoryGrowDeltaPages)
	if !ok {
		prev = 0xffffffff
	}
	ce.stack[0] = uint64(prev)
	return nil
}

// nativecall is implemented in nativecall_amd64.s: it loads vmctx-style
// pointers into machine registers and jumps into the compiled function's
// first instruction, returning here only once that function (and anything
// it calls) has finished or trapped.
func nativecall(codeSegment, ce, moduleInstance uintptr)
