// Package asm defines the architecture-independent assembler surface
// internal/engine/compiler programs against; internal/asm/amd64 provides the
// concrete amd64 implementation. Grounded directly on the teacher's own
// internal/asm/assembler.go, which documents this interface as
// "heavily influenced by golang-asm's API"; internal/asm/amd64 is the only
// implementation in this repository.
package asm

import "fmt"

// Register represents architecture-specific registers.
type Register byte

// NilRegister indicates "no register specified".
const NilRegister Register = 0

// Instruction represents an architecture-specific instruction mnemonic.
type Instruction byte

// ConditionalRegisterState represents architecture-specific flag states used
// by conditional jumps.
type ConditionalRegisterState byte

// ConditionalRegisterStateUnset means "no condition".
const ConditionalRegisterStateUnset ConditionalRegisterState = 0

// NodeOffsetInBinary is this Node's byte offset in the assembled binary,
// valid only after Assemble has run.
type NodeOffsetInBinary = uint64

// ConstantValue is an immediate operand.
type ConstantValue = int64

// Node is one assembled instruction in the program's linked list.
type Node interface {
	fmt.Stringer
	AssignJumpTarget(target Node)
	AssignDestinationConstant(value ConstantValue)
	AssignSourceConstant(value ConstantValue)
	OffsetInBinary() NodeOffsetInBinary
}

// AssemblerBase is the architecture-independent subset of operations
// internal/engine/compiler emits through; the amd64 backend implements this.
type AssemblerBase interface {
	Assemble() ([]byte, error)
	SetJumpTargetOnNext(nodes ...Node)
	BuildJumpTable(table []byte, initialInstructions []Node)
	CompileStandAlone(instruction Instruction) Node
	CompileConstToRegister(instruction Instruction, value ConstantValue, destinationReg Register) Node
	CompileRegisterToRegister(instruction Instruction, from, to Register)
	CompileMemoryToRegister(instruction Instruction, sourceBaseReg Register, sourceOffsetConst ConstantValue, destinationReg Register)
	CompileRegisterToMemory(instruction Instruction, sourceRegister Register, destinationBaseRegister Register, destinationOffsetConst ConstantValue)
	CompileJump(jmpInstruction Instruction) Node
	CompileJumpToMemory(jmpInstruction Instruction, baseReg Register, offset ConstantValue)
	CompileJumpToRegister(jmpInstruction Instruction, reg Register)
	CompileReadInstructionAddress(destinationRegister Register, beforeAcquisitionTargetInstruction Instruction)
}

// JumpTableMaximumOffset bounds br_table's jump table size, mirroring the
// teacher's own documented rationale: beyond this, the module is unrealistic
// and almost certainly adversarial.
const JumpTableMaximumOffset = 1 << 32
