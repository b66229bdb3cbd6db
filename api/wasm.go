// Package api includes the public types a host embedding this engine needs:
// WebAssembly value types, core feature flags, and the function-call
// surface. Internal packages depend on api, never the reverse.
package api

import (
	"context"
	"fmt"
	"math"
)

// ValueType describes a numeric type in the WebAssembly core spec, plus the
// two reference types from the reference-types proposal.
type ValueType = byte

const (
	ValueTypeI32 ValueType = iota
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
	ValueTypeExternref
	ValueTypeFuncref
)

// ValueTypeName returns the WebAssembly text format name of t.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeExternref:
		return "externref"
	case ValueTypeFuncref:
		return "funcref"
	default:
		return fmt.Sprintf("unknown(%#x)", t)
	}
}

// CoreFeatures is a bitset of WebAssembly spec proposals that have graduated
// to "phase 4+" and are safe to gate at validation time. The zero value
// enables no proposal at all; CoreFeaturesV1 is the WebAssembly 1.0 (MVP)
// feature set.
type CoreFeatures uint64

const (
	CoreFeatureMultiValue CoreFeatures = 1 << iota
	CoreFeatureMutableGlobal
	CoreFeatureSignExtensionOps
	CoreFeatureSaturatingFloatToInt
	CoreFeatureReferenceTypes
	CoreFeatureBulkMemoryOperations
	CoreFeatureSIMD
	CoreFeatureThreads
	CoreFeatureExtendedConst
)

// CoreFeaturesV1 is the feature set of the WebAssembly Core 1.0 spec.
const CoreFeaturesV1 = CoreFeatureMutableGlobal

// CoreFeaturesV2 is the feature set of the WebAssembly Core 2.0 spec.
const CoreFeaturesV2 = CoreFeaturesV1 |
	CoreFeatureMultiValue |
	CoreFeatureSignExtensionOps |
	CoreFeatureSaturatingFloatToInt |
	CoreFeatureReferenceTypes |
	CoreFeatureBulkMemoryOperations |
	CoreFeatureExtendedConst

// IsEnabled returns true if f is set in c.
func (c CoreFeatures) IsEnabled(f CoreFeatures) bool {
	return c&f != 0
}

// Set returns c with f enabled.
func (c CoreFeatures) Set(f CoreFeatures) CoreFeatures {
	return c | f
}

// EncodeI32 encodes a WebAssembly i32 into its 64-bit stack representation.
func EncodeI32(v int32) uint64 {
	return uint64(uint32(v))
}

// DecodeI32 decodes a 64-bit stack slot into a WebAssembly i32.
func DecodeI32(v uint64) int32 {
	return int32(v)
}

// EncodeF32 encodes a WebAssembly f32 into its 64-bit stack representation.
func EncodeF32(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

// DecodeF32 decodes a 64-bit stack slot into a WebAssembly f32.
func DecodeF32(v uint64) float32 {
	return math.Float32frombits(uint32(v))
}

// EncodeF64 encodes a WebAssembly f64 into its 64-bit stack representation.
func EncodeF64(v float64) uint64 {
	return math.Float64bits(v)
}

// DecodeF64 decodes a 64-bit stack slot into a WebAssembly f64.
func DecodeF64(v uint64) float64 {
	return math.Float64frombits(v)
}

// Function is the handle callers use to invoke an exported or imported
// WebAssembly function, regardless of which side of the host/guest boundary
// it was defined on.
type Function interface {
	// Definition describes the static shape of this function.
	Definition() FunctionDefinition
	// Call invokes the function with the given api-encoded parameters and
	// returns api-encoded results, or an error (a trap's error unwraps to
	// an internal/wasmruntime *Error carrying its TrapCode).
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// FunctionDefinition describes a function's static signature and names,
// independent of whether it has been instantiated.
type FunctionDefinition interface {
	ModuleName() string
	Name() string
	DebugName() string
	ParamTypes() []ValueType
	ResultTypes() []ValueType
	Import() (moduleName, name string, isImport bool)
	Export() (name string, isExport bool)
}

// GoFunction is a host function whose signature is expressed directly in
// terms of the 64-bit stack slots compiled code passes around. It trades
// ergonomics for avoiding a reflection-based call on every invocation.
type GoFunction interface {
	Call(ctx context.Context, stack []uint64)
}

// GoModuleFunction is like GoFunction but additionally receives the calling
// Module, e.g. to access its exported memory.
type GoModuleFunction interface {
	Call(ctx context.Context, mod Module, stack []uint64)
}

// Module is the instantiated form of a WebAssembly module: its exported
// functions, memory and globals are reachable through it.
type Module interface {
	Name() string
	Memory() Memory
	ExportedFunction(name string) Function
	ExportedMemory(name string) Memory
	Close(ctx context.Context) error
}

// Memory is the sandboxed linear memory exported by a Module.
type Memory interface {
	Size() uint32
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset, v uint32) bool
	ReadUint64Le(offset uint32) (uint64, bool)
	WriteUint64Le(offset uint32, v uint64) bool
}
