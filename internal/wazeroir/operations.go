// Package wazeroir lowers a single function body's raw WebAssembly
// instruction bytes into a flat operator stream -- no SSA, no expression
// trees -- that internal/engine/compiler consumes one operation at a time
// (spec.md §4.B's explicit design constraint). This mirrors the teacher's
// own internal/wazeroir package, down to representing every operation as one
// UnionOperation struct (fields unused by a given Kind are simply zero)
// rather than a per-kind type hierarchy, which keeps the translator
// allocation-free on the hot path.
package wazeroir

// OperationKind identifies what a UnionOperation does. The vocabulary below
// is the scoped-down subset this engine implements: numeric ops, control
// flow, memory, table and global access. SIMD (v128) and the exception
// handling proposal are out of scope (SPEC_FULL.md Non-goals).
type OperationKind byte

const (
	OperationKindUnreachable OperationKind = iota
	OperationKindLabel
	OperationKindBr
	OperationKindBrIf
	OperationKindBrTable
	OperationKindCall
	OperationKindCallIndirect
	OperationKindDrop
	OperationKindSelect
	OperationKindPick
	OperationKindSet
	OperationKindGlobalGet
	OperationKindGlobalSet
	OperationKindLoad
	OperationKindLoad8
	OperationKindLoad16
	OperationKindLoad32
	OperationKindStore
	OperationKindStore8
	OperationKindStore16
	OperationKindStore32
	OperationKindMemorySize
	OperationKindMemoryGrow
	OperationKindConstI32
	OperationKindConstI64
	OperationKindConstF32
	OperationKindConstF64
	OperationKindEq
	OperationKindNe
	OperationKindEqz
	OperationKindLt
	OperationKindGt
	OperationKindLe
	OperationKindGe
	OperationKindAdd
	OperationKindSub
	OperationKindMul
	OperationKindDiv
	OperationKindRem
	OperationKindAnd
	OperationKindOr
	OperationKindXor
	OperationKindShl
	OperationKindShr
	OperationKindRotl
	OperationKindRotr
	OperationKindAbs
	OperationKindNeg
	OperationKindCeil
	OperationKindFloor
	OperationKindTrunc
	OperationKindNearest
	OperationKindSqrt
	OperationKindMin
	OperationKindMax
	OperationKindCopysign
	OperationKindConvert
	OperationKindITruncFromF
	OperationKindFConvertFromI
	OperationKindF32DemoteFromF64
	OperationKindF64PromoteFromF32
	OperationKindI32ReinterpretFromF32
	OperationKindI64ReinterpretFromF64
	OperationKindF32ReinterpretFromI32
	OperationKindF64ReinterpretFromI64
	OperationKindExtend
	OperationKindSignExtend32From8
	OperationKindSignExtend32From16
	OperationKindSignExtend64From8
	OperationKindSignExtend64From16
	OperationKindSignExtend64From32
	OperationKindMemoryInit
	OperationKindDataDrop
	OperationKindMemoryCopy
	OperationKindMemoryFill
	OperationKindTableGet
	OperationKindTableSet
	OperationKindTableSize
	OperationKindTableGrow
	OperationKindTableFill
	OperationKindTableCopy
	OperationKindRefFunc
	OperationKindRefNull
	OperationKindBuiltinFunctionCheckExitCode

	operationKindEnd
)

var operationKindNames = [...]string{
	"Unreachable", "Label", "Br", "BrIf", "BrTable", "Call", "CallIndirect",
	"Drop", "Select", "Pick", "Set", "GlobalGet", "GlobalSet", "Load", "Load8",
	"Load16", "Load32", "Store", "Store8", "Store16", "Store32", "MemorySize",
	"MemoryGrow", "ConstI32", "ConstI64", "ConstF32", "ConstF64", "Eq", "Ne",
	"Eqz", "Lt", "Gt", "Le", "Ge", "Add", "Sub", "Mul", "Div", "Rem", "And",
	"Or", "Xor", "Shl", "Shr", "Rotl", "Rotr", "Abs", "Neg", "Ceil", "Floor",
	"Trunc", "Nearest", "Sqrt", "Min", "Max", "Copysign", "Convert",
	"ITruncFromF", "FConvertFromI", "F32DemoteFromF64", "F64PromoteFromF32",
	"I32ReinterpretFromF32", "I64ReinterpretFromF64", "F32ReinterpretFromI32",
	"F64ReinterpretFromI64", "Extend", "SignExtend32From8",
	"SignExtend32From16", "SignExtend64From8", "SignExtend64From16",
	"SignExtend64From32", "MemoryInit", "DataDrop", "MemoryCopy",
	"MemoryFill", "TableGet", "TableSet", "TableSize", "TableGrow",
	"TableFill", "TableCopy", "RefFunc", "RefNull", "BuiltinFunctionCheckExitCode",
}

// String implements fmt.Stringer, required well-defined for every Kind below
// operationKindEnd.
func (k OperationKind) String() string {
	if int(k) < len(operationKindNames) {
		return operationKindNames[k]
	}
	return "unknown"
}

// UnsignedType distinguishes which WebAssembly numeric type an operation
// acts over, for kinds that aren't already type-specific by their shape
// (e.g. integer division signedness).
type UnsignedType byte

const (
	UnsignedTypeI32 UnsignedType = iota
	UnsignedTypeI64
	UnsignedTypeF32
	UnsignedTypeF64
)

// SignedType adds signedness on top of the two integer widths, used by Div/
// Rem/Lt/Gt/Le/Ge where the machine instruction differs for signed vs.
// unsigned operands.
type SignedType byte

const (
	SignedTypeInt32 SignedType = iota
	SignedTypeUint32
	SignedTypeInt64
	SignedTypeUint64
	SignedTypeFloat32
	SignedTypeFloat64
)

// MemoryArg carries a load/store's static alignment hint and byte offset.
type MemoryArg struct {
	Alignment uint32
	Offset    uint32
}

// UnionOperation is every operator in the stream, represented as one struct
// whose fields are populated according to Kind -- the teacher's own
// operations.go takes exactly this shape (see operations_test.go's
// UnionOperation.String()) to avoid a per-kind struct/interface allocation
// on the translator's hot path.
type UnionOperation struct {
	Kind OperationKind

	// B1/B2/B3 are small scalar operands whose meaning depends on Kind (e.g.
	// B1 holds the UnsignedType/SignedType tag for numeric ops, and the
	// signedness flag for Extend).
	B1, B2, B3 uint8

	// U1/U2 are the primary immediate operand(s): a branch target label id,
	// a constant's raw bits, a local/global index, call_indirect's type and
	// table index, etc.
	U1, U2 uint64

	// Us holds variable-length operand lists (br_table's targets).
	Us []uint64

	Mem MemoryArg

	// SourceOffsetInWasmBinary is this operation's byte offset within the
	// original function body; internal/engine/compiler stores it in
	// callEngine.trapSourceOffset when a trap exit is taken.
	SourceOffsetInWasmBinary uint64
}

func (o UnionOperation) String() string { return o.Kind.String() }

// LabelKind classifies a control-flow label's origin, mirroring the
// teacher's four structured-control-flow label kinds.
type LabelKind byte

const (
	LabelKindHeader LabelKind = iota
	LabelKindElse
	LabelKindEnd
	LabelKindContinuation

	LabelKindNum
)

type label struct {
	Kind    LabelKind
	FrameID uint32
}

// LabelID packs Kind and FrameID into one comparable value usable as a
// branch target / jump table key.
type LabelID uint64

func (l label) ID() LabelID {
	return LabelID(uint64(l.Kind)<<32 | uint64(l.FrameID))
}

// Kind unpacks the LabelKind from an ID.
func (id LabelID) Kind() LabelKind { return LabelKind(id >> 32) }

// FrameID unpacks the originating control-flow frame's ID from an ID.
func (id LabelID) FrameID() int { return int(id & 0xffffffff) }

// CompilationResult is everything internal/engine/compiler needs to compile
// one function: its operator stream plus the signature-derived metadata the
// teacher's compiler package reads directly (param/result slot counts,
// whether any operation needs the module-level memory, table, etc.).
type CompilationResult struct {
	Operations []UnionOperation

	// LabelCallers counts, per LabelID, how many branches target it, as
	// recorded by addLabelCaller. The translator never calls addLabelCaller,
	// so the map stays nil, and compiler.amd64Compiler does not read it.
	LabelCallers map[LabelID]uint32

	UsesMemory bool
	UsesTable  bool

	// SignatureParamNumInUint64 / SignatureResultNumInUint64 cache the
	// function's own stack-slot counts so the call engine doesn't need the
	// wasm.FunctionType in its hot Call path.
	SignatureParamNumInUint64  int
	SignatureResultNumInUint64 int

	// ModuleName and Index identify which function this result belongs to,
	// purely for debugging/trace output.
	ModuleName string
	Index      uint32
}
