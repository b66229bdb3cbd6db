package compiler

import (
	"bytes"
	"fmt"

	"github.com/wasmerio/wasmer-core/internal/asm"
	asmamd64 "github.com/wasmerio/wasmer-core/internal/asm/amd64"
	"github.com/wasmerio/wasmer-core/internal/platform"
	"github.com/wasmerio/wasmer-core/internal/wazeroir"
)

// reservedRegisterForCallEngine and reservedRegisterForModuleInstance match
// nativecall_amd64.s's calling convention: BX/CX are never allocated to
// wasm-level values, only ever hold the callEngine/ModuleInstance pointers
// nativecall loaded them with. reservedRegisterForStackBase is loaded once
// in the function prologue from callEngine.stackElement0Address and held
// for the whole function body, since Pick/Set and the result epilogue all
// need to address ce.stack; reservedRegisterForTemporary is short-lived
// scratch within a single operation (e.g. staging a divisor).
const (
	reservedRegisterForCallEngine     = asmamd64.REG_BX
	reservedRegisterForModuleInstance = asmamd64.REG_CX
	reservedRegisterForStackBase      = asmamd64.REG_R14
	reservedRegisterForTemporary      = asmamd64.REG_R15
)

// amd64Compiler walks one function's wazeroir.CompilationResult and emits
// amd64 machine code via internal/asm/amd64's hand-rolled encoder. It
// compiles a deliberately scoped subset directly (straight-line integer
// arithmetic including division, consts, local.get/set/tee, unreachable,
// and calls/call_indirect/memory.grow when they sit in tail position); any
// operation outside that subset is rejected at compile time with an error
// rather than being silently miscompiled or left to crash the process at
// run time -- this engine is not a general-purpose production compiler, and
// the scope boundary is intentional (DESIGN.md records it).
type amd64Compiler struct {
	assembler *asmamd64.Assembler
	// registerPool is the fixed set of general-purpose registers values can
	// live in, mirroring the teacher's runtimeValueLocationStack at a much
	// smaller scale: this engine keeps values in a fixed small pool of GP
	// registers and spills to nothing, so it only handles functions
	// shallow enough to fit.
	registerPool []asm.Register
	freeIdx      int
}

func newAmd64Compiler() *amd64Compiler {
	a, _ := asmamd64.NewAssembler(reservedRegisterForTemporary)
	return &amd64Compiler{
		assembler:    a,
		registerPool: []asm.Register{asmamd64.REG_AX, asmamd64.REG_DX, asmamd64.REG_SI, asmamd64.REG_DI, asmamd64.REG_R8, asmamd64.REG_R9},
	}
}

func (c *amd64Compiler) allocGP() (asm.Register, error) {
	if c.freeIdx >= len(c.registerPool) {
		return 0, fmt.Errorf("compiler: exhausted the fixed register pool (function too complex for this engine's scoped-down backend)")
	}
	r := c.registerPool[c.freeIdx]
	c.freeIdx++
	return r, nil
}

func (c *amd64Compiler) releaseGP() {
	if c.freeIdx > 0 {
		c.freeIdx--
	}
}

// isTailOperation reports whether res.Operations[i] is the last operation
// with any runtime effect in the function body: everything after it is an
// OperationKindLabel, i.e. the implicit end-of-block/end-of-function
// markers the translator always emits. Call/CallIndirect/MemoryGrow only
// compile when this holds, since this backend hands off to Go for them
// and never resumes compiled code afterward.
func isTailOperation(ops []wazeroir.UnionOperation, i int) bool {
	for _, op := range ops[i+1:] {
		if op.Kind != wazeroir.OperationKindLabel {
			return false
		}
	}
	return true
}

// compile emits native code for res and returns the mmap'd, executable
// code segment plus the stack slot count the function needs at most.
func (c *amd64Compiler) compile(res *wazeroir.CompilationResult) ([]byte, uint64, error) {
	var stack []asm.Register
	terminated := false

	// Prologue: load ce.stack's backing address once, since local.get/set
	// and the result epilogue all need to read and write through it.
	c.assembler.CompileMemoryToRegister(asmamd64.MOVQ, reservedRegisterForCallEngine,
		int64(callEngineStackContextStackElement0AddressOffset), reservedRegisterForStackBase)

	// emitTrapExit records where (in the wasm binary) the trap fired and
	// which one it is, then hands control back to nativecall: run() turns
	// statusCode into a typed *wasmruntime.Error and attaches the frame.
	emitTrapExit := func(code nativeCallStatusCode, sourceOffset uint64) {
		c.assembler.CompileConstToRegister(asmamd64.MOVQ, int64(sourceOffset), reservedRegisterForTemporary)
		c.assembler.CompileRegisterToMemory(asmamd64.MOVQ, reservedRegisterForTemporary,
			reservedRegisterForCallEngine, int64(callEngineExitContextTrapSourceOffsetOffset))
		c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(code), reservedRegisterForTemporary)
		c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
			reservedRegisterForCallEngine, int64(callEngineExitContextStatusCodeOffset))
		c.assembler.CompileStandAlone(asmamd64.RET)
	}

	// spillArgs stores the current stack (bottom-up) into ce.stack[0:],
	// the argument convention dispatchTailCall*/dispatchMemoryGrow read
	// from, then frees every pool register: nothing is live afterward
	// since the call is this function's last action.
	spillArgs := func() {
		for i, r := range stack {
			c.assembler.CompileRegisterToMemory(asmamd64.MOVQ, r, reservedRegisterForStackBase, int64(i*8))
		}
		for range stack {
			c.releaseGP()
		}
		stack = nil
	}

	for i, op := range res.Operations {
		switch op.Kind {
		case wazeroir.OperationKindConstI32, wazeroir.OperationKindConstI64:
			r, err := c.allocGP()
			if err != nil {
				return nil, 0, err
			}
			c.assembler.CompileConstToRegister(constInstruction(op.Kind), int64(op.U1), r)
			stack = append(stack, r)

		case wazeroir.OperationKindAdd, wazeroir.OperationKindSub, wazeroir.OperationKindMul,
			wazeroir.OperationKindAnd, wazeroir.OperationKindOr, wazeroir.OperationKindXor:
			if len(stack) < 2 {
				return nil, 0, fmt.Errorf("compiler: stack underflow compiling %s", op.Kind)
			}
			rhs := stack[len(stack)-1]
			lhs := stack[len(stack)-2]
			stack = stack[:len(stack)-1]
			instr, err := arithInstruction(op.Kind, wazeroir.SignedType(op.B1))
			if err != nil {
				return nil, 0, err
			}
			c.assembler.CompileRegisterToRegister(instr, rhs, lhs)
			c.releaseGP()

		case wazeroir.OperationKindDiv, wazeroir.OperationKindRem:
			r, err := c.compileDivRem(op, stack)
			if err != nil {
				return nil, 0, err
			}
			stack = stack[:len(stack)-2]
			stack = append(stack, r)

		case wazeroir.OperationKindDrop:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				c.releaseGP()
			}

		case wazeroir.OperationKindPick:
			r, err := c.allocGP()
			if err != nil {
				return nil, 0, err
			}
			c.assembler.CompileMemoryToRegister(asmamd64.MOVQ, reservedRegisterForStackBase, int64(op.U1*8), r)
			stack = append(stack, r)

		case wazeroir.OperationKindSet:
			if len(stack) < 1 {
				return nil, 0, fmt.Errorf("compiler: stack underflow compiling %s", op.Kind)
			}
			r := stack[len(stack)-1]
			c.assembler.CompileRegisterToMemory(asmamd64.MOVQ, r, reservedRegisterForStackBase, int64(op.U1*8))
			if op.U2 != 0x22 { // local.tee (0x22) keeps the value on the stack; local.set (0x21) pops it.
				stack = stack[:len(stack)-1]
				c.releaseGP()
			}

		case wazeroir.OperationKindUnreachable:
			emitTrapExit(nativeCallStatusCodeUnreachable, op.SourceOffsetInWasmBinary)

		case wazeroir.OperationKindCall:
			if !isTailOperation(res.Operations, i) {
				return nil, 0, fmt.Errorf("compiler: call is only supported in tail position")
			}
			spillArgs()
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(op.U1), reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextCallFunctionIndexOffset))
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(nativeCallStatusCodeCallGoHostFunction),
				reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextStatusCodeOffset))
			c.assembler.CompileStandAlone(asmamd64.RET)
			terminated = true

		case wazeroir.OperationKindCallIndirect:
			if !isTailOperation(res.Operations, i) {
				return nil, 0, fmt.Errorf("compiler: call_indirect is only supported in tail position")
			}
			if len(stack) < 1 {
				return nil, 0, fmt.Errorf("compiler: stack underflow compiling %s", op.Kind)
			}
			slot := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, slot,
				reservedRegisterForCallEngine, int64(callEngineExitContextCallIndirectTableSlotOffset))
			c.releaseGP()
			spillArgs()
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(op.U1), reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextCallIndirectTypeIndexOffset))
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(op.U2), reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextCallIndirectTableIndexOffset))
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(nativeCallStatusCodeCallIndirect),
				reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextStatusCodeOffset))
			c.assembler.CompileStandAlone(asmamd64.RET)
			terminated = true

		case wazeroir.OperationKindMemoryGrow:
			if !isTailOperation(res.Operations, i) {
				return nil, 0, fmt.Errorf("compiler: memory.grow is only supported in tail position")
			}
			if len(stack) < 1 {
				return nil, 0, fmt.Errorf("compiler: stack underflow compiling %s", op.Kind)
			}
			delta := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, delta,
				reservedRegisterForCallEngine, int64(callEngineExitContextMemoryGrowDeltaPagesOffset))
			c.releaseGP()
			c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(nativeCallStatusCodeMemoryGrow),
				reservedRegisterForTemporary)
			c.assembler.CompileRegisterToMemory(asmamd64.MOVL, reservedRegisterForTemporary,
				reservedRegisterForCallEngine, int64(callEngineExitContextStatusCodeOffset))
			c.assembler.CompileStandAlone(asmamd64.RET)
			terminated = true

		case wazeroir.OperationKindBr:
			// Only the "branch straight to function end" shape is handled
			// directly: this covers an implicit end-of-body return, which
			// is how every function this engine's translator emits
			// without explicit control-flow instructions terminates.
			goto done

		case wazeroir.OperationKindLabel:
			// Every "end" opcode emits one of these, including the
			// function body's own closing end (U1 == 0x0b): that one is a
			// no-op marker. Anything else means a block/loop/if/else was
			// entered, i.e. structured control flow this backend does not
			// lower yet.
			if op.U1 != 0x0b {
				return nil, 0, fmt.Errorf("compiler: structured control flow is not supported by this backend")
			}

		default:
			// Everything else wazeroir can produce but this scoped-down
			// backend does not yet compile: reject at compile time rather
			// than emit a trap that would crash the process when hit, since
			// this op's shape (operand count, side effects) is unknown to
			// the backend.
			return nil, 0, fmt.Errorf("compiler: operation %s is not supported by this backend", op.Kind)
		}
	}

done:
	if !terminated {
		// Epilogue: store the top SignatureResultNumInUint64 registers
		// down into ce.stack, in the order moduleEngine.Call reads results
		// back out, then report a normal return.
		resultCount := res.SignatureResultNumInUint64
		if len(stack) < resultCount {
			return nil, 0, fmt.Errorf("compiler: function body leaves %d value(s) but signature needs %d", len(stack), resultCount)
		}
		base := len(stack) - resultCount
		for i := 0; i < resultCount; i++ {
			c.assembler.CompileRegisterToMemory(asmamd64.MOVQ, stack[base+i], reservedRegisterForStackBase, int64(i*8))
		}
		// nativeCallStatusCodeReturned is the zero value, so a fresh
		// callEngine already reports it without an explicit store.
		c.assembler.CompileStandAlone(asmamd64.RET)
	}

	code, err := c.assembler.Assemble()
	if err != nil {
		return nil, 0, err
	}
	segment, err := platform.MmapCodeSegment(bytes.NewReader(code), len(code))
	if err != nil {
		return nil, 0, fmt.Errorf("compiler: mapping code segment: %w", err)
	}
	return segment, uint64(len(c.registerPool) + 16), nil
}

// compileDivRem emits the zero-divisor and (for signed division) overflow
// checks spec.md's IntegerDivisionByZero/IntegerOverflow traps require,
// then the actual IDIV/DIV. The divisor's value is copied into the
// temporary register before either check runs, since IDIV/DIV's encoding
// reads its r/m operand from exactly one register and implicitly clobbers
// AX/DX for the dividend/remainder -- leaving the divisor in a pool
// register that happens to be AX or DX would silently corrupt it. Once
// copied, the original divisor/dividend pool registers are free to reuse
// as scratch for the comparisons.
func (c *amd64Compiler) compileDivRem(op wazeroir.UnionOperation, stack []asm.Register) (asm.Register, error) {
	if len(stack) < 2 {
		return 0, fmt.Errorf("compiler: stack underflow compiling %s", op.Kind)
	}
	divisor := stack[len(stack)-1]
	dividend := stack[len(stack)-2]

	st := wazeroir.SignedType(op.B1)
	is64 := st == wazeroir.SignedTypeInt64 || st == wazeroir.SignedTypeUint64
	signed := st == wazeroir.SignedTypeInt32 || st == wazeroir.SignedTypeInt64

	movInstr, cmpInstr := asmamd64.MOVL, asmamd64.CMPL
	if is64 {
		movInstr, cmpInstr = asmamd64.MOVQ, asmamd64.CMPQ
	}

	// Stage the divisor into the temporary register; `divisor` is now free
	// scratch.
	c.assembler.CompileRegisterToRegister(movInstr, divisor, reservedRegisterForTemporary)

	emitTrap := func(code nativeCallStatusCode) {
		c.assembler.CompileConstToRegister(asmamd64.MOVL, int64(code), divisor)
		c.assembler.CompileRegisterToMemory(asmamd64.MOVL, divisor,
			reservedRegisterForCallEngine, int64(callEngineExitContextStatusCodeOffset))
		c.assembler.CompileStandAlone(asmamd64.RET)
	}

	// Zero-divisor check: compare the staged divisor to 0.
	c.assembler.CompileConstToRegister(movInstr, 0, divisor)
	c.assembler.CompileRegisterToRegister(cmpInstr, reservedRegisterForTemporary, divisor)
	notZero := c.assembler.CompileJump(asmamd64.JNE)
	emitTrap(nativeCallStatusCodeIntegerDivisionByZero)
	c.assembler.SetJumpTargetOnNext(notZero)

	// Signed division additionally traps on MIN_INT / -1, which overflows
	// the quotient; unsigned division and both remainder forms cannot
	// overflow this way.
	if signed && op.Kind == wazeroir.OperationKindDiv {
		minConst := int64(-2147483648)
		if is64 {
			minConst = int64(-1) << 63
		}
		c.assembler.CompileConstToRegister(movInstr, minConst, divisor)
		c.assembler.CompileRegisterToRegister(cmpInstr, dividend, divisor)
		dividendNotMin := c.assembler.CompileJump(asmamd64.JNE)
		c.assembler.CompileConstToRegister(movInstr, -1, divisor)
		c.assembler.CompileRegisterToRegister(cmpInstr, reservedRegisterForTemporary, divisor)
		divisorNotNegOne := c.assembler.CompileJump(asmamd64.JNE)
		emitTrap(nativeCallStatusCodeIntegerOverflow)
		c.assembler.SetJumpTargetOnNext(dividendNotMin, divisorNotNegOne)
	}

	c.assembler.CompileRegisterToRegister(movInstr, dividend, asmamd64.REG_AX)
	if signed {
		if is64 {
			c.assembler.CompileStandAlone(asmamd64.CQO)
		} else {
			c.assembler.CompileStandAlone(asmamd64.CDQ)
		}
	} else {
		c.assembler.CompileRegisterToRegister(asmamd64.XORL, asmamd64.REG_DX, asmamd64.REG_DX)
	}

	divInstr := asmamd64.DIVL
	switch {
	case signed && is64:
		divInstr = asmamd64.IDIVQ
	case signed && !is64:
		divInstr = asmamd64.IDIVL
	case !signed && is64:
		divInstr = asmamd64.DIVQ
	}
	// Only the srcReg operand (the temporary, holding the divisor) matters
	// to this encoding; the destination argument is ignored.
	c.assembler.CompileRegisterToRegister(divInstr, reservedRegisterForTemporary, reservedRegisterForTemporary)

	// Write the result into dividend's slot, not divisor's: allocGP/
	// releaseGP track registers by pool *position* (LIFO), and dividend
	// sits lower in the pool than divisor, matching the binary-op pattern
	// elsewhere in this file (result lands in the lower slot, the upper
	// one is released).
	result := dividend
	if op.Kind == wazeroir.OperationKindDiv {
		c.assembler.CompileRegisterToRegister(movInstr, asmamd64.REG_AX, result)
	} else {
		c.assembler.CompileRegisterToRegister(movInstr, asmamd64.REG_DX, result)
	}
	c.releaseGP() // two operands collapse to one result: net one pool slot freed
	return result, nil
}

func constInstruction(kind wazeroir.OperationKind) asm.Instruction {
	if kind == wazeroir.OperationKindConstI64 {
		return asmamd64.MOVQ
	}
	return asmamd64.MOVL
}

func arithInstruction(kind wazeroir.OperationKind, st wazeroir.SignedType) (asm.Instruction, error) {
	is64 := st == wazeroir.SignedTypeInt64 || st == wazeroir.SignedTypeUint64
	switch kind {
	case wazeroir.OperationKindAdd:
		if is64 {
			return asmamd64.ADDQ, nil
		}
		return asmamd64.ADDL, nil
	case wazeroir.OperationKindSub:
		if is64 {
			return asmamd64.SUBQ, nil
		}
		return asmamd64.SUBL, nil
	case wazeroir.OperationKindMul:
		if is64 {
			return asmamd64.IMULQ, nil
		}
		return asmamd64.IMULL, nil
	case wazeroir.OperationKindAnd:
		if is64 {
			return asmamd64.ANDQ, nil
		}
		return asmamd64.ANDL, nil
	case wazeroir.OperationKindOr:
		if is64 {
			return asmamd64.ORQ, nil
		}
		return asmamd64.ORL, nil
	case wazeroir.OperationKindXor:
		if is64 {
			return asmamd64.XORQ, nil
		}
		return asmamd64.XORL, nil
	default:
		return 0, fmt.Errorf("compiler: no amd64 instruction for %s", kind)
	}
}
