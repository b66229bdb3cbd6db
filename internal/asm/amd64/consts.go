// Package asm_amd64 is the amd64-specific implementation of internal/asm's
// AssemblerBase, hand-rolling machine code bytes directly (no cgo, no
// external assembler at runtime) for the subset of the instruction set
// internal/engine/compiler's amd64Compiler emits. Grounded verbatim on the
// teacher's internal/asm/amd64/consts.go register/instruction vocabulary and
// naming convention (matching Go's own assembler mnemonics, per
// https://go.dev/doc/asm).
package asm_amd64

import "github.com/wasmerio/wasmer-core/internal/asm"

// AMD64-specific conditional register states (flag combinations tested by
// Jcc/SETcc).
const (
	ConditionalRegisterStateE asm.ConditionalRegisterState = asm.ConditionalRegisterStateUnset + 1 + iota
	ConditionalRegisterStateNE
	ConditionalRegisterStateS
	ConditionalRegisterStateNS
	ConditionalRegisterStateG
	ConditionalRegisterStateGE
	ConditionalRegisterStateL
	ConditionalRegisterStateLE
	ConditionalRegisterStateA
	ConditionalRegisterStateAE
	ConditionalRegisterStateB
	ConditionalRegisterStateBE
)

// AMD64-specific instructions this engine's compiler emits. Not exhaustive:
// only what amd64Compiler needs for the opcode subset internal/wazeroir
// produces (DESIGN.md documents the scoped-down set). No SIMD instructions
// are declared; several scalar conversions and other instructions are
// declared for parity with the teacher's own const block but never emitted
// by compile().
const (
	NONE asm.Instruction = iota
	ADDL
	ADDQ
	ADDSD
	ADDSS
	ANDL
	ANDQ
	CDQ
	CMPL
	CMPQ
	COMISD
	COMISS
	CQO
	CVTSD2SS
	CVTSL2SD
	CVTSL2SS
	CVTSQ2SD
	CVTSQ2SS
	CVTSS2SD
	CVTTSD2SL
	CVTTSD2SQ
	CVTTSS2SL
	CVTTSS2SQ
	DIVL
	DIVQ
	DIVSD
	DIVSS
	IDIVL
	IDIVQ
	JCC
	JCS
	JEQ
	JGE
	JGT
	JHI
	JLE
	JLS
	JLT
	JMI
	JNE
	JPC
	JPL
	JPS
	LEAQ
	MAXSD
	MAXSS
	MINSD
	MINSS
	MOVB
	MOVBLSX
	MOVBLZX
	MOVBQSX
	MOVBQZX
	MOVL
	MOVLQSX
	MOVLQZX
	MOVQ
	MOVW
	MOVWLSX
	MOVWLZX
	MOVWQSX
	MOVWQZX
	IMULL
	IMULQ
	MULSD
	MULSS
	ORL
	ORQ
	ROLL
	ROLQ
	RORL
	RORQ
	ROUNDSD
	ROUNDSS
	SARL
	SARQ
	SETCC
	SETCS
	SETEQ
	SETGE
	SETGT
	SETHI
	SETLE
	SETLS
	SETLT
	SETMI
	SETNE
	SETPC
	SETPL
	SETPS
	SHLL
	SHLQ
	SHRL
	SHRQ
	SQRTSD
	SQRTSS
	SUBL
	SUBQ
	SUBSD
	SUBSS
	TESTL
	TESTQ
	UCOMISD
	UCOMISS
	XORL
	XORQ
	RET
	JMP
	NOP
	UD2
)

// InstructionName is mainly a debugging aid (disassembly dumps, panic
// messages); kept alongside the constants exactly as the teacher does.
func InstructionName(instruction asm.Instruction) string {
	switch instruction {
	case ADDL:
		return "ADDL"
	case ADDQ:
		return "ADDQ"
	case ADDSD:
		return "ADDSD"
	case ADDSS:
		return "ADDSS"
	case SUBL:
		return "SUBL"
	case SUBQ:
		return "SUBQ"
	case SUBSD:
		return "SUBSD"
	case SUBSS:
		return "SUBSS"
	case IMULL:
		return "IMULL"
	case IMULQ:
		return "IMULQ"
	case MULSD:
		return "MULSD"
	case MULSS:
		return "MULSS"
	case DIVL:
		return "DIVL"
	case DIVQ:
		return "DIVQ"
	case DIVSD:
		return "DIVSD"
	case DIVSS:
		return "DIVSS"
	case IDIVL:
		return "IDIVL"
	case IDIVQ:
		return "IDIVQ"
	case MOVL:
		return "MOVL"
	case MOVQ:
		return "MOVQ"
	case CMPL:
		return "CMPL"
	case CMPQ:
		return "CMPQ"
	case JMP:
		return "JMP"
	case RET:
		return "RET"
	case NOP:
		return "NOP"
	case UD2:
		return "UD2"
	default:
		return "unknown"
	}
}

// General-purpose and XMM registers, declared in the order the amd64
// ModRM/REX encoding numbers them. The constants themselves start at
// NilRegister+1; encodingNum (and REG_X0-relative arithmetic for SSE2
// registers) maps them to AX=0 .. DI=7, R8..R15=8..15 and X0..X15=0..15.
const (
	REG_AX asm.Register = asm.NilRegister + 1 + iota
	REG_CX
	REG_DX
	REG_BX
	REG_SP
	REG_BP
	REG_SI
	REG_DI
	REG_R8
	REG_R9
	REG_R10
	REG_R11
	REG_R12
	REG_R13
	REG_R14
	REG_R15
	REG_X0
	REG_X1
	REG_X2
	REG_X3
	REG_X4
	REG_X5
	REG_X6
	REG_X7
	REG_X8
	REG_X9
	REG_X10
	REG_X11
	REG_X12
	REG_X13
	REG_X14
	REG_X15
)

// RegisterName is a debugging aid.
func RegisterName(reg asm.Register) string {
	switch reg {
	case REG_AX:
		return "AX"
	case REG_CX:
		return "CX"
	case REG_DX:
		return "DX"
	case REG_BX:
		return "BX"
	case REG_SP:
		return "SP"
	case REG_BP:
		return "BP"
	case REG_SI:
		return "SI"
	case REG_DI:
		return "DI"
	case REG_R8, REG_R9, REG_R10, REG_R11, REG_R12, REG_R13, REG_R14, REG_R15:
		return "R" + string(rune('0'+int(reg-REG_R8)+8))
	default:
		if reg >= REG_X0 && reg <= REG_X15 {
			return "X" + string(rune('0'+int(reg-REG_X0)))
		}
		return "unknown"
	}
}

// encodingNum returns the 4-bit register number (0-15) the REX/ModRM
// encoding needs, for general-purpose registers AX..R15.
func encodingNum(r asm.Register) byte {
	return byte(r - REG_AX)
}

// isExtended reports whether r requires the REX.B/R/X extension bit (R8-R15).
func isExtended(r asm.Register) bool {
	return r >= REG_R8 && r <= REG_R15
}
