package asm_amd64

import (
	"encoding/binary"
	"fmt"

	"github.com/wasmerio/wasmer-core/internal/asm"
)

// node is one instruction in the assembled program's linked list, tracking
// enough state for a second, relocation-resolving pass over jump targets
// (mirrors the teacher's own two-pass "assign jump target, then assemble"
// design, simplified to our reduced instruction subset).
type node struct {
	instruction asm.Instruction
	types       nodeTypes

	dstReg, srcReg asm.Register
	dstConst       asm.ConstantValue
	srcConst       asm.ConstantValue
	dstMemOffset   asm.ConstantValue

	jumpTarget      *node
	offsetInBinary  asm.NodeOffsetInBinary
	forwardJumpSize int // placeholder byte length reserved for jump displacement before the target is known
}

type nodeTypes byte

const (
	nodeTypeStandAlone nodeTypes = iota
	nodeTypeConstToReg
	nodeTypeRegToReg
	nodeTypeMemToReg
	nodeTypeRegToMem
	nodeTypeJump
	nodeTypeJumpToMem
	nodeTypeJumpToReg
	nodeTypeReadInstructionAddress
)

func (n *node) String() string {
	return fmt.Sprintf("%s(%d)", InstructionName(n.instruction), n.types)
}

func (n *node) AssignJumpTarget(target asm.Node) { n.jumpTarget = target.(*node) }
func (n *node) AssignDestinationConstant(v asm.ConstantValue) { n.dstConst = v }
func (n *node) AssignSourceConstant(v asm.ConstantValue)      { n.srcConst = v }
func (n *node) OffsetInBinary() asm.NodeOffsetInBinary        { return n.offsetInBinary }

// Assembler implements asm.AssemblerBase by hand-encoding amd64 machine
// code. It is the only encoder in this repository; internal/engine/compiler
// always uses it.
type Assembler struct {
	nodes              []*node
	buf                []byte
	setJumpTargetOnNext []*node
	TemporaryRegister  asm.Register
}

// NewAssembler constructs an Assembler using temporaryRegister as scratch
// space for instructions that need one free register (e.g. loading a
// 64-bit immediate before a memory operation).
func NewAssembler(temporaryRegister asm.Register) (*Assembler, error) {
	return &Assembler{TemporaryRegister: temporaryRegister}, nil
}

func (a *Assembler) addNode(n *node) *node {
	for _, pending := range a.setJumpTargetOnNext {
		pending.jumpTarget = n
	}
	a.setJumpTargetOnNext = nil
	a.nodes = append(a.nodes, n)
	return n
}

func (a *Assembler) SetJumpTargetOnNext(nodes ...asm.Node) {
	for _, n := range nodes {
		a.setJumpTargetOnNext = append(a.setJumpTargetOnNext, n.(*node))
	}
}

func (a *Assembler) CompileStandAlone(instruction asm.Instruction) asm.Node {
	return a.addNode(&node{instruction: instruction, types: nodeTypeStandAlone})
}

func (a *Assembler) CompileConstToRegister(instruction asm.Instruction, value asm.ConstantValue, destinationReg asm.Register) asm.Node {
	return a.addNode(&node{instruction: instruction, types: nodeTypeConstToReg, dstReg: destinationReg, srcConst: value})
}

func (a *Assembler) CompileRegisterToRegister(instruction asm.Instruction, from, to asm.Register) {
	a.addNode(&node{instruction: instruction, types: nodeTypeRegToReg, srcReg: from, dstReg: to})
}

func (a *Assembler) CompileMemoryToRegister(instruction asm.Instruction, sourceBaseReg asm.Register, sourceOffsetConst asm.ConstantValue, destinationReg asm.Register) {
	a.addNode(&node{instruction: instruction, types: nodeTypeMemToReg, srcReg: sourceBaseReg, dstMemOffset: sourceOffsetConst, dstReg: destinationReg})
}

func (a *Assembler) CompileRegisterToMemory(instruction asm.Instruction, sourceRegister, destinationBaseRegister asm.Register, destinationOffsetConst asm.ConstantValue) {
	a.addNode(&node{instruction: instruction, types: nodeTypeRegToMem, srcReg: sourceRegister, dstReg: destinationBaseRegister, dstMemOffset: destinationOffsetConst})
}

func (a *Assembler) CompileJump(jmpInstruction asm.Instruction) asm.Node {
	return a.addNode(&node{instruction: jmpInstruction, types: nodeTypeJump})
}

func (a *Assembler) CompileJumpToMemory(jmpInstruction asm.Instruction, baseReg asm.Register, offset asm.ConstantValue) {
	a.addNode(&node{instruction: jmpInstruction, types: nodeTypeJumpToMem, srcReg: baseReg, dstMemOffset: offset})
}

func (a *Assembler) CompileJumpToRegister(jmpInstruction asm.Instruction, reg asm.Register) {
	a.addNode(&node{instruction: jmpInstruction, types: nodeTypeJumpToReg, srcReg: reg})
}

func (a *Assembler) CompileReadInstructionAddress(destinationRegister asm.Register, beforeAcquisitionTargetInstruction asm.Instruction) {
	a.addNode(&node{instruction: beforeAcquisitionTargetInstruction, types: nodeTypeReadInstructionAddress, dstReg: destinationRegister})
}

func (a *Assembler) BuildJumpTable(table []byte, initialInstructions []asm.Node) {
	first := initialInstructions[0].(*node).offsetInBinary
	for i, in := range initialInstructions {
		n := in.(*node)
		delta := n.offsetInBinary - first
		binary.LittleEndian.PutUint32(table[i*4:], uint32(delta))
	}
}

// Assemble performs two passes: the first lays out every node and records
// its offsetInBinary (needed for BuildJumpTable and backward jumps), the
// second re-emits with jump displacements resolved now that every target's
// offset is known. Forward jumps therefore cost a second full encode pass
// rather than a relaxation loop -- acceptable for the function sizes this
// engine compiles.
func (a *Assembler) Assemble() ([]byte, error) {
	if _, err := a.encodeAll(); err != nil {
		return nil, err
	}
	return a.encodeAll()
}

func (a *Assembler) encodeAll() ([]byte, error) {
	a.buf = a.buf[:0]
	for _, n := range a.nodes {
		n.offsetInBinary = uint64(len(a.buf))
		if err := a.encodeNode(n); err != nil {
			return nil, fmt.Errorf("asm_amd64: encoding %s: %w", n, err)
		}
	}
	out := make([]byte, len(a.buf))
	copy(out, a.buf)
	return out, nil
}

func (a *Assembler) emit(b ...byte) { a.buf = append(a.buf, b...) }

func (a *Assembler) emitImm32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	a.emit(b[:]...)
}

func (a *Assembler) emitImm64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	a.emit(b[:]...)
}

// rex builds a REX prefix byte: W selects 64-bit operand size, R/X/B extend
// the ModRM reg/index/rm fields to reach R8-R15.
func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 1 << 3
	}
	if r {
		v |= 1 << 2
	}
	if x {
		v |= 1 << 1
	}
	if b {
		v |= 1
	}
	return v
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | rm&7
}

// encodeNode dispatches by node type and instruction. Only the instructions
// internal/engine/compiler actually emits are implemented; anything else
// returns an error rather than silently emitting wrong bytes -- this
// engine's amd64 backend covers integer arithmetic/comparison, basic scalar
// float ops, load/store, and control flow sufficient for spec.md's S1-S6
// scenarios, not the full ISA (DESIGN.md records the scope decision).
func (a *Assembler) encodeNode(n *node) error {
	switch n.types {
	case nodeTypeStandAlone:
		return a.encodeStandAlone(n.instruction)
	case nodeTypeConstToReg:
		return a.encodeConstToReg(n)
	case nodeTypeRegToReg:
		return a.encodeRegToReg(n)
	case nodeTypeMemToReg:
		return a.encodeMemToReg(n)
	case nodeTypeRegToMem:
		return a.encodeRegToMem(n)
	case nodeTypeJump:
		return a.encodeJump(n)
	case nodeTypeJumpToReg:
		return a.encodeJumpToReg(n)
	case nodeTypeJumpToMem:
		return fmt.Errorf("jump-to-memory not implemented")
	case nodeTypeReadInstructionAddress:
		return fmt.Errorf("read-instruction-address not implemented")
	default:
		return fmt.Errorf("unknown node type %d", n.types)
	}
}

func (a *Assembler) encodeStandAlone(instr asm.Instruction) error {
	switch instr {
	case RET:
		a.emit(0xc3)
	case NOP:
		a.emit(0x90)
	case UD2:
		a.emit(0x0f, 0x0b)
	case CDQ:
		a.emit(0x99)
	case CQO:
		a.emit(rex(true, false, false, false), 0x99)
	default:
		return fmt.Errorf("unsupported standalone instruction %s", InstructionName(instr))
	}
	return nil
}

func (a *Assembler) encodeConstToReg(n *node) error {
	switch n.instruction {
	case MOVL:
		if isExtended(n.dstReg) {
			a.emit(rex(false, false, false, true))
		}
		a.emit(0xb8 + encodingNum(n.dstReg)&7)
		a.emitImm32(int32(n.srcConst))
	case MOVQ:
		if isExtended(n.dstReg) {
			a.emit(rex(true, false, false, true), 0xb8+encodingNum(n.dstReg)&7)
		} else {
			a.emit(rex(true, false, false, false), 0xb8+encodingNum(n.dstReg)&7)
		}
		a.emitImm64(n.srcConst)
	default:
		return fmt.Errorf("unsupported const-to-register instruction %s", InstructionName(n.instruction))
	}
	return nil
}

// aluOpcode returns the primary opcode byte for a register-register ALU op
// in its 32/64-bit "/r" (reg,reg) form.
func aluOpcode(instr asm.Instruction) (op byte, ok bool) {
	switch instr {
	case ADDL, ADDQ:
		return 0x01, true
	case SUBL, SUBQ:
		return 0x29, true
	case ANDL, ANDQ:
		return 0x21, true
	case ORL, ORQ:
		return 0x09, true
	case XORL, XORQ:
		return 0x31, true
	case CMPL, CMPQ:
		return 0x39, true
	}
	return 0, false
}

func is64(instr asm.Instruction) bool {
	switch instr {
	case ADDQ, SUBQ, ANDQ, ORQ, XORQ, CMPQ, MOVQ, IMULQ, IDIVQ, DIVQ:
		return true
	}
	return false
}

func (a *Assembler) encodeRegToReg(n *node) error {
	w := is64(n.instruction)
	if op, ok := aluOpcode(n.instruction); ok {
		a.emit(rex(w, isExtended(n.srcReg), false, isExtended(n.dstReg)))
		a.emit(op, modrm(3, encodingNum(n.srcReg), encodingNum(n.dstReg)))
		return nil
	}
	switch n.instruction {
	case MOVL, MOVQ:
		a.emit(rex(w, isExtended(n.srcReg), false, isExtended(n.dstReg)))
		a.emit(0x89, modrm(3, encodingNum(n.srcReg), encodingNum(n.dstReg)))
	case IMULL, IMULQ: // IMUL dst, src (two-operand form): 0F AF /r
		a.emit(rex(w, isExtended(n.dstReg), false, isExtended(n.srcReg)))
		a.emit(0x0f, 0xaf, modrm(3, encodingNum(n.dstReg), encodingNum(n.srcReg)))
	case IDIVL, IDIVQ, DIVL, DIVQ:
		// Single-operand form dividing RDX:RAX by srcReg; /7 for IDIV, /6 for DIV.
		ext := byte(7)
		if n.instruction == DIVL || n.instruction == DIVQ {
			ext = 6
		}
		a.emit(rex(w, false, false, isExtended(n.srcReg)))
		a.emit(0xf7, modrm(3, ext, encodingNum(n.srcReg)))
	case ADDSD:
		a.emitSSE(0xf2, n.srcReg, n.dstReg, 0x58)
	case SUBSD:
		a.emitSSE(0xf2, n.srcReg, n.dstReg, 0x5c)
	case MULSD:
		a.emitSSE(0xf2, n.srcReg, n.dstReg, 0x59)
	case DIVSD:
		a.emitSSE(0xf2, n.srcReg, n.dstReg, 0x5e)
	case ADDSS:
		a.emitSSE(0xf3, n.srcReg, n.dstReg, 0x58)
	case SUBSS:
		a.emitSSE(0xf3, n.srcReg, n.dstReg, 0x5c)
	case MULSS:
		a.emitSSE(0xf3, n.srcReg, n.dstReg, 0x59)
	case DIVSS:
		a.emitSSE(0xf3, n.srcReg, n.dstReg, 0x5e)
	case UCOMISD:
		a.emit(0x66)
		a.emitSSENoPrefix(n.srcReg, n.dstReg, 0x2e)
	case UCOMISS:
		a.emitSSENoPrefix(n.srcReg, n.dstReg, 0x2e)
	default:
		return fmt.Errorf("unsupported register-to-register instruction %s", InstructionName(n.instruction))
	}
	return nil
}

// emitSSE encodes a scalar SSE2 reg,reg instruction: mandatory prefix,
// (REX if either operand needs the X8-X15 extension), 0x0f, opcode, ModRM.
func (a *Assembler) emitSSE(prefix byte, src, dst asm.Register, opcode byte) {
	a.emit(prefix)
	a.emitSSENoPrefix(src, dst, opcode)
}

func (a *Assembler) emitSSENoPrefix(src, dst asm.Register, opcode byte) {
	srcNum := src - REG_X0
	dstNum := dst - REG_X0
	if srcNum >= 8 || dstNum >= 8 {
		a.emit(rex(false, dstNum >= 8, false, srcNum >= 8))
	}
	a.emit(0x0f, opcode, modrm(3, byte(dstNum), byte(srcNum)))
}

func (a *Assembler) encodeMemToReg(n *node) error {
	w := is64(n.instruction)
	switch n.instruction {
	case MOVL, MOVQ:
		a.emit(rex(w, isExtended(n.dstReg), false, isExtended(n.srcReg)))
		a.emit(0x8b)
		a.emitModRMDisp32(encodingNum(n.dstReg), n.srcReg, int32(n.dstMemOffset))
	default:
		return fmt.Errorf("unsupported memory-to-register instruction %s", InstructionName(n.instruction))
	}
	return nil
}

func (a *Assembler) encodeRegToMem(n *node) error {
	w := is64(n.instruction)
	switch n.instruction {
	case MOVL, MOVQ:
		a.emit(rex(w, isExtended(n.srcReg), false, isExtended(n.dstReg)))
		a.emit(0x89)
		a.emitModRMDisp32(encodingNum(n.srcReg), n.dstReg, int32(n.dstMemOffset))
	default:
		return fmt.Errorf("unsupported register-to-memory instruction %s", InstructionName(n.instruction))
	}
	return nil
}

// emitModRMDisp32 always uses the disp32 addressing form (mod=10) for
// simplicity -- this costs a few bytes over the disp8 form for small
// offsets but keeps the encoder's two-pass Assemble size-stable, which
// disp8/disp32 relaxation would otherwise break.
func (a *Assembler) emitModRMDisp32(reg byte, base asm.Register, disp int32) {
	baseNum := encodingNum(base)
	a.emit(modrm(2, reg, baseNum))
	if baseNum&7 == 4 { // SP/R12 require a SIB byte
		a.emit(0x24)
	}
	a.emitImm32(disp)
}

func (a *Assembler) encodeJump(n *node) error {
	var opcode []byte
	switch n.instruction {
	case JMP:
		opcode = []byte{0xe9}
	case JEQ:
		opcode = []byte{0x0f, 0x84}
	case JNE:
		opcode = []byte{0x0f, 0x85}
	case JLT:
		opcode = []byte{0x0f, 0x8c}
	case JGE:
		opcode = []byte{0x0f, 0x8d}
	case JLE:
		opcode = []byte{0x0f, 0x8e}
	case JGT:
		opcode = []byte{0x0f, 0x8f}
	case JLS:
		opcode = []byte{0x0f, 0x86}
	case JHI:
		opcode = []byte{0x0f, 0x87}
	case JCS:
		opcode = []byte{0x0f, 0x82}
	case JCC:
		opcode = []byte{0x0f, 0x83}
	default:
		return fmt.Errorf("unsupported jump instruction %s", InstructionName(n.instruction))
	}
	a.emit(opcode...)
	siteEnd := len(a.buf) + 4
	var rel int32
	if n.jumpTarget != nil {
		rel = int32(int64(n.jumpTarget.offsetInBinary) - int64(siteEnd))
	}
	a.emitImm32(rel)
	return nil
}

func (a *Assembler) encodeJumpToReg(n *node) error {
	switch n.instruction {
	case JMP:
		if isExtended(n.srcReg) {
			a.emit(rex(false, false, false, true))
		}
		a.emit(0xff, modrm(3, 4, encodingNum(n.srcReg)))
	default:
		return fmt.Errorf("unsupported jump-to-register instruction %s", InstructionName(n.instruction))
	}
	return nil
}
