// Package wasm holds the decoded, validated structural description of a
// WebAssembly module (spec.md §3 ModuleInfo) and the runtime objects
// materialized from it at instantiation (spec.md §4.H): memories, tables,
// globals and the module instance that owns them.
package wasm

import (
	"fmt"
	"strings"

	"github.com/wasmerio/wasmer-core/api"
)

// Index is a newtype-free alias used for every index space (function,
// table, memory, global, type). wazero keeps these as a shared uint32 alias
// rather than distinct types to avoid excessive conversions in hot paths;
// we follow the same choice and rely on field names/comments to keep the
// spaces from being confused (spec.md's "separated by entity kind" invariant
// is enforced by code review / naming, not the type system, exactly as in
// the teacher).
type Index = uint32

// ValueType re-exports api.ValueType so internal code has one vocabulary.
type ValueType = api.ValueType

const (
	ValueTypeI32       = api.ValueTypeI32
	ValueTypeI64       = api.ValueTypeI64
	ValueTypeF32       = api.ValueTypeF32
	ValueTypeF64       = api.ValueTypeF64
	ValueTypeExternref = api.ValueTypeExternref
	ValueTypeFuncref   = api.ValueTypeFuncref
)

// FunctionType is a function signature: spec.md's SignatureIndex maps to
// one of these via Module.TypeSection.
type FunctionType struct {
	Params, Results []ValueType

	// ParamNumInUint64 / ResultNumInUint64 cache len(Params)/len(Results)
	// since every value occupies exactly one uint64 stack slot in this
	// engine (no packed small values) -- this mirrors the teacher's own
	// FunctionType fields. internal/wazeroir copies them into each
	// CompilationResult.
	ParamNumInUint64, ResultNumInUint64 int
}

// CacheNumInUint64 populates ParamNumInUint64/ResultNumInUint64. Call once
// after Params/Results are finalized (decode time).
func (t *FunctionType) CacheNumInUint64() {
	t.ParamNumInUint64 = len(t.Params)
	t.ResultNumInUint64 = len(t.Results)
}

// key returns a canonical string encoding of the signature, used for
// equality in the signature registry (spec.md §4.F), import signature checks
// and Equal.
func (t *FunctionType) key() string {
	var sb strings.Builder
	for _, p := range t.Params {
		sb.WriteByte(p)
	}
	sb.WriteByte(0xff)
	for _, r := range t.Results {
		sb.WriteByte(r)
	}
	return sb.String()
}

func (t *FunctionType) String() string {
	ps := make([]string, len(t.Params))
	for i, p := range t.Params {
		ps[i] = api.ValueTypeName(p)
	}
	rs := make([]string, len(t.Results))
	for i, r := range t.Results {
		rs[i] = api.ValueTypeName(r)
	}
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(ps, ", "), strings.Join(rs, ", "))
}

// Equal reports whether t and o describe the same signature.
func (t *FunctionType) Equal(o *FunctionType) bool {
	return t.key() == o.key()
}

// RefType distinguishes the two WebAssembly reference types.
type RefType = ValueType

const (
	RefTypeFuncref   = ValueTypeFuncref
	RefTypeExternref = ValueTypeExternref
)

// TableType describes a table's element type and size limits.
type TableType struct {
	ElemType RefType
	Min      uint32
	Max      *uint32
}

// MemoryType describes a linear memory's page-count limits and sharing mode.
type MemoryType struct {
	Min, Cap uint32
	Max      *uint32
	Shared   bool
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ExternType classifies one side of an import or export.
type ExternType byte

const (
	ExternTypeFunc ExternType = iota
	ExternTypeTable
	ExternTypeMemory
	ExternTypeGlobal
)

func (k ExternType) String() string {
	switch k {
	case ExternTypeFunc:
		return "func"
	case ExternTypeTable:
		return "table"
	case ExternTypeMemory:
		return "memory"
	case ExternTypeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Import is one entry of the module's import section.
type Import struct {
	Type       ExternType
	Module     string
	Name       string
	DescFunc   Index // index into TypeSection, valid when Type == ExternTypeFunc
	DescTable  TableType
	DescMem    MemoryType
	DescGlobal GlobalType
}

// Export is one entry of the module's export section.
type Export struct {
	Type  ExternType
	Name  string
	Index Index
}

// ConstantExpression is the constexpr subset (spec.md §4.B) used for global
// initializers, and data/element segment offsets: i32/i64/f32/f64 consts,
// global.get, ref.null, ref.func.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte // little-endian encoded operand, shape depends on Opcode
}

// Opcode is a raw WebAssembly instruction byte (no IR lowering happens
// here -- that's wazeroir's job). A handful of constants are defined where
// the decoder and constant-expression evaluator need to recognize them by
// name; the full opcode table lives in internal/wasm/binary.
type Opcode = byte

const (
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44
	OpcodeGlobalGet Opcode = 0x23
	OpcodeRefNull  Opcode = 0xd0
	OpcodeRefFunc  Opcode = 0xd2
	OpcodeEnd      Opcode = 0x0b
)

// DataSegment is one entry of the data section: either active (copied into
// a memory at instantiation) or passive (only usable via memory.init).
type DataSegment struct {
	MemoryIndex Index
	OffsetExpr  *ConstantExpression // nil for passive segments
	Init        []byte
}

// ElementSegment is one entry of the element section, analogous to
// DataSegment but for tables of references.
type ElementSegment struct {
	TableIndex Index
	OffsetExpr *ConstantExpression // nil for passive segments
	Type       RefType
	// Init holds one ConstantExpression per initialized element: either
	// ref.func or ref.null (or, under extended-const, more generally).
	Init []ConstantExpression
}

// Code is one entry of the code section: the local variable declarations
// and raw instruction bytes of a single function body.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
	BodyOffset uint64 // byte offset of Body within the original module; the decoder does not set it, so it is 0

	// GoFunc is non-nil for host-defined functions that never went through
	// the WebAssembly binary decoder at all (spec.md's host collaborators).
	GoFunc interface{}
}

// Module is spec.md's ModuleInfo: the decoded, validated structural
// description of a module, shared (read-only, reference counted by Go's GC)
// across every Instance created from it.
type Module struct {
	TypeSection     []FunctionType
	ImportSection   []Import
	FunctionSection []Index // FunctionSection[i] indexes TypeSection for local function i
	TableSection    []TableType
	MemorySection   []MemoryType
	GlobalSection   []globalSectionEntry
	ExportSection   map[string]*Export
	StartFunction   *Index
	ElementSection  []ElementSegment
	CodeSection     []Code
	DataSection     []DataSegment

	// Name is the custom-section supplied module name, if any.
	Name string
	// FunctionNames maps local-scope function index to name, debug only.
	FunctionNames map[Index]string

	ImportFunctionCount Index
	ImportTableCount    Index
	ImportMemoryCount   Index
	ImportGlobalCount   Index

	// EnabledFeatures records the feature set this module was decoded
	// against, so later stages (compilation) don't need it threaded
	// through separately.
	EnabledFeatures Features

	// ID uniquely identifies this Module's bytes for compilation caching
	// (spec.md §4.E code memory is keyed off a source module, not just a
	// pointer, so two decodes of the same bytes share compiled code).
	ID ModuleID

	// DataCountSection, when present, declares the data segment count ahead
	// of the code section -- used to validate data.drop / memory.init at
	// validation time instead of at first execution.
	DataCountSection *uint32
}

// ModuleID is a content hash of the original WebAssembly binary.
type ModuleID [16]byte

type globalSectionEntry struct {
	Type GlobalType
	Init ConstantExpression
}

// AppendGlobalSectionEntry appends a decoded global declaration to m. Exists
// so internal/wasm/binary, which cannot see the unexported
// globalSectionEntry type, can still build up Module.GlobalSection entry by
// entry while decoding.
func AppendGlobalSectionEntry(m *Module, ty GlobalType, init ConstantExpression) {
	m.GlobalSection = append(m.GlobalSection, globalSectionEntry{Type: ty, Init: init})
}

// ImportFuncCount returns the number of function-kind imports, i.e. the base
// offset at which locally defined function indices begin.
func (m *Module) ImportFuncCount() Index { return m.ImportFunctionCount }

// TypeOfFunction returns the signature of function index idx (import or
// local), or nil if idx is out of range.
func (m *Module) TypeOfFunction(idx Index) *FunctionType {
	if idx < m.ImportFunctionCount {
		var seen Index
		for i := range m.ImportSection {
			imp := &m.ImportSection[i]
			if imp.Type != ExternTypeFunc {
				continue
			}
			if seen == idx {
				return &m.TypeSection[imp.DescFunc]
			}
			seen++
		}
		return nil
	}
	local := idx - m.ImportFunctionCount
	if int(local) >= len(m.FunctionSection) {
		return nil
	}
	return &m.TypeSection[m.FunctionSection[local]]
}
