package wazeroir

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wasmerio/wasmer-core/internal/leb128"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// controlFrame tracks one nested block/loop/if/function while walking a
// function body, to resolve br/br_if/br_table targets and to know which
// value-stack height a branch must unwind to (the stack-simulation half of
// spec.md §4.B's validator).
type controlFrame struct {
	kind          controlFrameKind
	blockType     *wasm.FunctionType
	startHeight   int
	id            uint32
	elseReachable bool
}

type controlFrameKind byte

const (
	controlFrameKindFunction controlFrameKind = iota
	controlFrameKindBlock
	controlFrameKindLoop
	controlFrameKindIf
)

// compiler walks one function's raw body and emits its operator stream.
type compiler struct {
	module   *wasm.Module
	funcType *wasm.FunctionType
	localTypes []wasm.ValueType
	features wasm.Features

	r *bytes.Reader

	valueStackHeight int
	controlFrames    []controlFrame
	nextFrameID      uint32

	result CompilationResult
}

// CompileFunctions lowers every locally defined function body in m to a
// CompilationResult, in FunctionSection order.
func CompileFunctions(m *wasm.Module, features wasm.Features) ([]*CompilationResult, error) {
	results := make([]*CompilationResult, len(m.CodeSection))
	for i, code := range m.CodeSection {
		idx := m.ImportFunctionCount + wasm.Index(i)
		ft := m.TypeOfFunction(idx)
		if ft == nil {
			return nil, fmt.Errorf("wazeroir: function %d: no signature", idx)
		}
		localTypes := append(append([]wasm.ValueType{}, ft.Params...), code.LocalTypes...)
		if err := validateFunction(m, ft, code.Body, localTypes, defaultMaxStackValues); err != nil {
			return nil, fmt.Errorf("wazeroir: function %d: %w", idx, err)
		}

		c := &compiler{
			module:     m,
			funcType:   ft,
			localTypes: localTypes,
			features:   features,
			r:          bytes.NewReader(code.Body),
		}
		res, err := c.compile()
		if err != nil {
			return nil, fmt.Errorf("wazeroir: function %d: %w", idx, err)
		}
		res.ModuleName = m.Name
		res.Index = idx
		res.SignatureParamNumInUint64 = ft.ParamNumInUint64
		res.SignatureResultNumInUint64 = ft.ResultNumInUint64
		res.UsesMemory = len(m.MemorySection) > 0 || m.ImportMemoryCount > 0
		res.UsesTable = len(m.TableSection) > 0 || m.ImportTableCount > 0
		results[i] = res
	}
	return results, nil
}

func (c *compiler) emit(op UnionOperation) {
	c.result.Operations = append(c.result.Operations, op)
}

func (c *compiler) pushFrame(kind controlFrameKind, bt *wasm.FunctionType) controlFrame {
	f := controlFrame{kind: kind, blockType: bt, startHeight: c.valueStackHeight, id: c.nextFrameID}
	c.nextFrameID++
	c.controlFrames = append(c.controlFrames, f)
	return f
}

func (c *compiler) popFrame() controlFrame {
	f := c.controlFrames[len(c.controlFrames)-1]
	c.controlFrames = c.controlFrames[:len(c.controlFrames)-1]
	return f
}

func (c *compiler) addLabelCaller(id LabelID) {
	if c.result.LabelCallers == nil {
		c.result.LabelCallers = map[LabelID]uint32{}
	}
	c.result.LabelCallers[id]++
}

// compile is the single-pass body walker: for every opcode byte, decode its
// immediates and emit the corresponding UnionOperation(s). This is a
// translator, not a verifier -- CompileFunctions runs validateFunction over
// the body first, and compile performs only the minimal stack bookkeeping
// needed to resolve branch targets.
func (c *compiler) compile() (*CompilationResult, error) {
	c.pushFrame(controlFrameKindFunction, c.funcType)

	for {
		op, err := c.r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		offset := uint64(int64(c.r.Size()) - int64(c.r.Len()) - 1)

		switch op {
		case 0x00: // unreachable
			c.emit(UnionOperation{Kind: OperationKindUnreachable, SourceOffsetInWasmBinary: offset})
		case 0x01: // nop
			// no operation emitted.
		case 0x02, 0x03, 0x04: // block, loop, if
			if _, err := c.readBlockType(); err != nil {
				return nil, err
			}
			kind := controlFrameKindBlock
			if op == 0x03 {
				kind = controlFrameKindLoop
			} else if op == 0x04 {
				kind = controlFrameKindIf
			}
			c.pushFrame(kind, c.funcType)
			c.emit(UnionOperation{Kind: OperationKindLabel, U1: uint64(op), SourceOffsetInWasmBinary: offset})
		case 0x05: // else
			c.emit(UnionOperation{Kind: OperationKindLabel, U1: uint64(op), SourceOffsetInWasmBinary: offset})
		case 0x0b: // end
			if len(c.controlFrames) > 1 {
				c.popFrame()
			}
			c.emit(UnionOperation{Kind: OperationKindLabel, U1: uint64(op), SourceOffsetInWasmBinary: offset})
		case 0x0c: // br
			depth, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindBr, U1: uint64(depth), SourceOffsetInWasmBinary: offset})
		case 0x0d: // br_if
			depth, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindBrIf, U1: uint64(depth), SourceOffsetInWasmBinary: offset})
		case 0x0e: // br_table
			n, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			targets := make([]uint64, n+1)
			for i := uint32(0); i <= n; i++ {
				d, _, err := leb128.DecodeUint32(c.r)
				if err != nil {
					return nil, err
				}
				targets[i] = uint64(d)
			}
			c.emit(UnionOperation{Kind: OperationKindBrTable, Us: targets, SourceOffsetInWasmBinary: offset})
		case 0x0f: // return
			c.emit(UnionOperation{Kind: OperationKindBr, U1: uint64(len(c.controlFrames) - 1), SourceOffsetInWasmBinary: offset})
		case 0x10: // call
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindCall, U1: uint64(idx), SourceOffsetInWasmBinary: offset})
		case 0x11: // call_indirect
			typeIdx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			tableIdx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindCallIndirect, U1: uint64(typeIdx), U2: uint64(tableIdx), SourceOffsetInWasmBinary: offset})
		case 0x1a: // drop
			c.emit(UnionOperation{Kind: OperationKindDrop, SourceOffsetInWasmBinary: offset})
		case 0x1b, 0x1c: // select, select t*
			if op == 0x1c {
				n, _, err := leb128.DecodeUint32(c.r)
				if err != nil {
					return nil, err
				}
				for i := uint32(0); i < n; i++ {
					if _, err := decodeValueTypeByte(c.r); err != nil {
						return nil, err
					}
				}
			}
			c.emit(UnionOperation{Kind: OperationKindSelect, SourceOffsetInWasmBinary: offset})
		case 0x20: // local.get
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindPick, U1: uint64(idx), SourceOffsetInWasmBinary: offset})
		case 0x21, 0x22: // local.set, local.tee
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindSet, U1: uint64(idx), U2: uint64(op), SourceOffsetInWasmBinary: offset})
		case 0x23: // global.get
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindGlobalGet, U1: uint64(idx), SourceOffsetInWasmBinary: offset})
		case 0x24: // global.set
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindGlobalSet, U1: uint64(idx), SourceOffsetInWasmBinary: offset})
		case 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
			mem, err := c.readMemArg()
			if err != nil {
				return nil, err
			}
			c.emit(loadOp(op, mem, offset))
		case 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e:
			mem, err := c.readMemArg()
			if err != nil {
				return nil, err
			}
			c.emit(storeOp(op, mem, offset))
		case 0x3f: // memory.size
			if _, err := c.r.ReadByte(); err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindMemorySize, SourceOffsetInWasmBinary: offset})
		case 0x40: // memory.grow
			if _, err := c.r.ReadByte(); err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindMemoryGrow, SourceOffsetInWasmBinary: offset})
		case 0x41: // i32.const
			v, _, err := leb128.DecodeInt32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindConstI32, U1: uint64(uint32(v)), SourceOffsetInWasmBinary: offset})
		case 0x42: // i64.const
			v, _, err := leb128.DecodeInt64(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindConstI64, U1: uint64(v), SourceOffsetInWasmBinary: offset})
		case 0x43: // f32.const
			var b [4]byte
			if _, err := io.ReadFull(c.r, b[:]); err != nil {
				return nil, err
			}
			v := uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24
			c.emit(UnionOperation{Kind: OperationKindConstF32, U1: v, SourceOffsetInWasmBinary: offset})
		case 0x44: // f64.const
			var b [8]byte
			if _, err := io.ReadFull(c.r, b[:]); err != nil {
				return nil, err
			}
			var v uint64
			for i := 7; i >= 0; i-- {
				v = v<<8 | uint64(b[i])
			}
			c.emit(UnionOperation{Kind: OperationKindConstF64, U1: v, SourceOffsetInWasmBinary: offset})
		case 0xd0: // ref.null
			if _, err := decodeValueTypeByte(c.r); err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindRefNull, SourceOffsetInWasmBinary: offset})
		case 0xd2: // ref.func
			idx, _, err := leb128.DecodeUint32(c.r)
			if err != nil {
				return nil, err
			}
			c.emit(UnionOperation{Kind: OperationKindRefFunc, U1: uint64(idx), SourceOffsetInWasmBinary: offset})
		default:
			if k, t1, t2, ok := numericOpcode(op); ok {
				c.emit(UnionOperation{Kind: k, B1: t1, B2: t2, SourceOffsetInWasmBinary: offset})
				continue
			}
			return nil, fmt.Errorf("wazeroir: unsupported opcode %#x at offset %d", op, offset)
		}
	}

	return &c.result, nil
}

func (c *compiler) readBlockType() (*wasm.FunctionType, error) {
	v, _, err := leb128.DecodeInt33AsInt64(c.r)
	if err != nil {
		return nil, err
	}
	if v >= 0 {
		// indexed block type: indexes module.TypeSection.
		if int(v) < len(c.module.TypeSection) {
			return &c.module.TypeSection[v], nil
		}
		return &wasm.FunctionType{}, nil
	}
	// value-type-shaped or empty block type: the 7-bit two's complement
	// encodes 0x40 (empty) or a single value type.
	return &wasm.FunctionType{}, nil
}

func (c *compiler) readMemArg() (MemoryArg, error) {
	align, _, err := leb128.DecodeUint32(c.r)
	if err != nil {
		return MemoryArg{}, err
	}
	offset, _, err := leb128.DecodeUint32(c.r)
	if err != nil {
		return MemoryArg{}, err
	}
	return MemoryArg{Alignment: align, Offset: offset}, nil
}

func decodeValueTypeByte(r *bytes.Reader) (wasm.ValueType, error) {
	b, err := r.ReadByte()
	return b, err
}

func loadOp(op byte, mem MemoryArg, offset uint64) UnionOperation {
	base := UnionOperation{Mem: mem, SourceOffsetInWasmBinary: offset}
	switch op {
	case 0x28:
		base.Kind, base.B1 = OperationKindLoad, uint8(UnsignedTypeI32)
	case 0x29:
		base.Kind, base.B1 = OperationKindLoad, uint8(UnsignedTypeI64)
	case 0x2a:
		base.Kind, base.B1 = OperationKindLoad, uint8(UnsignedTypeF32)
	case 0x2b:
		base.Kind, base.B1 = OperationKindLoad, uint8(UnsignedTypeF64)
	case 0x2c, 0x2d:
		base.Kind, base.B1, base.B2 = OperationKindLoad8, uint8(UnsignedTypeI32), signFlag(op == 0x2c)
	case 0x2e, 0x2f:
		base.Kind, base.B1, base.B2 = OperationKindLoad16, uint8(UnsignedTypeI32), signFlag(op == 0x2e)
	case 0x30, 0x31:
		base.Kind, base.B1, base.B2 = OperationKindLoad8, uint8(UnsignedTypeI64), signFlag(op == 0x30)
	case 0x32, 0x33:
		base.Kind, base.B1, base.B2 = OperationKindLoad16, uint8(UnsignedTypeI64), signFlag(op == 0x32)
	case 0x34, 0x35:
		base.Kind, base.B1, base.B2 = OperationKindLoad32, uint8(UnsignedTypeI64), signFlag(op == 0x34)
	}
	return base
}

func storeOp(op byte, mem MemoryArg, offset uint64) UnionOperation {
	base := UnionOperation{Mem: mem, SourceOffsetInWasmBinary: offset}
	switch op {
	case 0x36:
		base.Kind, base.B1 = OperationKindStore, uint8(UnsignedTypeI32)
	case 0x37:
		base.Kind, base.B1 = OperationKindStore, uint8(UnsignedTypeI64)
	case 0x38:
		base.Kind, base.B1 = OperationKindStore, uint8(UnsignedTypeF32)
	case 0x39:
		base.Kind, base.B1 = OperationKindStore, uint8(UnsignedTypeF64)
	case 0x3a:
		base.Kind, base.B1 = OperationKindStore8, uint8(UnsignedTypeI32)
	case 0x3b:
		base.Kind, base.B1 = OperationKindStore16, uint8(UnsignedTypeI32)
	case 0x3c:
		base.Kind, base.B1 = OperationKindStore8, uint8(UnsignedTypeI64)
	case 0x3d:
		base.Kind, base.B1 = OperationKindStore16, uint8(UnsignedTypeI64)
	case 0x3e:
		base.Kind, base.B1 = OperationKindStore32, uint8(UnsignedTypeI64)
	}
	return base
}

func signFlag(signed bool) uint8 {
	if signed {
		return 1
	}
	return 0
}

// numericOpcode covers the flat comparison/arithmetic opcode range
// (0x45-0xc4), mapping each byte directly to an OperationKind plus its
// operand type tag(s), since WebAssembly assigns these a contiguous,
// regular block per type.
func numericOpcode(op byte) (kind OperationKind, t1, t2 uint8, ok bool) {
	type entry struct {
		kind   OperationKind
		signed SignedType
	}
	table := map[byte]entry{
		0x45: {OperationKindEqz, SignedTypeInt32},
		0x46: {OperationKindEq, SignedTypeInt32},
		0x47: {OperationKindNe, SignedTypeInt32},
		0x48: {OperationKindLt, SignedTypeInt32},
		0x49: {OperationKindLt, SignedTypeUint32},
		0x4a: {OperationKindGt, SignedTypeInt32},
		0x4b: {OperationKindGt, SignedTypeUint32},
		0x4c: {OperationKindLe, SignedTypeInt32},
		0x4d: {OperationKindLe, SignedTypeUint32},
		0x4e: {OperationKindGe, SignedTypeInt32},
		0x4f: {OperationKindGe, SignedTypeUint32},
		0x50: {OperationKindEqz, SignedTypeInt64},
		0x51: {OperationKindEq, SignedTypeInt64},
		0x52: {OperationKindNe, SignedTypeInt64},
		0x53: {OperationKindLt, SignedTypeInt64},
		0x54: {OperationKindLt, SignedTypeUint64},
		0x55: {OperationKindGt, SignedTypeInt64},
		0x56: {OperationKindGt, SignedTypeUint64},
		0x57: {OperationKindLe, SignedTypeInt64},
		0x58: {OperationKindLe, SignedTypeUint64},
		0x59: {OperationKindGe, SignedTypeInt64},
		0x5a: {OperationKindGe, SignedTypeUint64},
		0x5b: {OperationKindEq, SignedTypeFloat32},
		0x5c: {OperationKindNe, SignedTypeFloat32},
		0x5d: {OperationKindLt, SignedTypeFloat32},
		0x5e: {OperationKindGt, SignedTypeFloat32},
		0x5f: {OperationKindLe, SignedTypeFloat32},
		0x60: {OperationKindGe, SignedTypeFloat32},
		0x61: {OperationKindEq, SignedTypeFloat64},
		0x62: {OperationKindNe, SignedTypeFloat64},
		0x63: {OperationKindLt, SignedTypeFloat64},
		0x64: {OperationKindGt, SignedTypeFloat64},
		0x65: {OperationKindLe, SignedTypeFloat64},
		0x66: {OperationKindGe, SignedTypeFloat64},
		// 0x67-0x69 (clz/ctz/popcnt) and their i64 counterparts 0x79-0x7b are
		// intentionally unhandled: this engine's scoped-down opcode set
		// (DESIGN.md) does not implement them, so they fall through to the
		// "unsupported opcode" error below rather than silently mis-lowering.
	}
	if e, ok := table[op]; ok {
		return e.kind, uint8(e.signed), 0, true
	}

	// Arithmetic ranges, grouped by type: i32 (0x6a-0x78), i64 (0x7c-0x8a),
	// f32 (0x8b-0x98), f64 (0x99-0xa6).
	if k, s, ok := i32Arith(op); ok {
		return k, uint8(s), 0, true
	}
	if k, s, ok := i64Arith(op); ok {
		return k, uint8(s), 0, true
	}
	if k, ok := floatArith(op, UnsignedTypeF32, 0x8b); ok {
		return k, uint8(UnsignedTypeF32), 0, true
	}
	if k, ok := floatArith(op, UnsignedTypeF64, 0x99); ok {
		return k, uint8(UnsignedTypeF64), 0, true
	}
	if k, t1, t2, ok := conversionOpcode(op); ok {
		return k, t1, t2, true
	}
	return 0, 0, 0, false
}

func i32Arith(op byte) (OperationKind, SignedType, bool) {
	switch op {
	case 0x6a:
		return OperationKindAdd, SignedTypeInt32, true
	case 0x6b:
		return OperationKindSub, SignedTypeInt32, true
	case 0x6c:
		return OperationKindMul, SignedTypeInt32, true
	case 0x6d:
		return OperationKindDiv, SignedTypeInt32, true
	case 0x6e:
		return OperationKindDiv, SignedTypeUint32, true
	case 0x6f:
		return OperationKindRem, SignedTypeInt32, true
	case 0x70:
		return OperationKindRem, SignedTypeUint32, true
	case 0x71:
		return OperationKindAnd, SignedTypeInt32, true
	case 0x72:
		return OperationKindOr, SignedTypeInt32, true
	case 0x73:
		return OperationKindXor, SignedTypeInt32, true
	case 0x74:
		return OperationKindShl, SignedTypeInt32, true
	case 0x75:
		return OperationKindShr, SignedTypeInt32, true
	case 0x76:
		return OperationKindShr, SignedTypeUint32, true
	case 0x77:
		return OperationKindRotl, SignedTypeInt32, true
	case 0x78:
		return OperationKindRotr, SignedTypeInt32, true
	}
	return 0, 0, false
}

func i64Arith(op byte) (OperationKind, SignedType, bool) {
	switch op {
	case 0x7c:
		return OperationKindAdd, SignedTypeInt64, true
	case 0x7d:
		return OperationKindSub, SignedTypeInt64, true
	case 0x7e:
		return OperationKindMul, SignedTypeInt64, true
	case 0x7f:
		return OperationKindDiv, SignedTypeInt64, true
	case 0x80:
		return OperationKindDiv, SignedTypeUint64, true
	case 0x81:
		return OperationKindRem, SignedTypeInt64, true
	case 0x82:
		return OperationKindRem, SignedTypeUint64, true
	case 0x83:
		return OperationKindAnd, SignedTypeInt64, true
	case 0x84:
		return OperationKindOr, SignedTypeInt64, true
	case 0x85:
		return OperationKindXor, SignedTypeInt64, true
	case 0x86:
		return OperationKindShl, SignedTypeInt64, true
	case 0x87:
		return OperationKindShr, SignedTypeInt64, true
	case 0x88:
		return OperationKindShr, SignedTypeUint64, true
	case 0x89:
		return OperationKindRotl, SignedTypeInt64, true
	case 0x8a:
		return OperationKindRotr, SignedTypeInt64, true
	}
	return 0, 0, false
}

func floatArith(op byte, _ UnsignedType, base byte) (OperationKind, bool) {
	switch op - base {
	case 0: // abs
		return OperationKindAbs, true
	case 1: // neg
		return OperationKindNeg, true
	case 2: // ceil
		return OperationKindCeil, true
	case 3: // floor
		return OperationKindFloor, true
	case 4: // trunc
		return OperationKindTrunc, true
	case 5: // nearest
		return OperationKindNearest, true
	case 6: // sqrt
		return OperationKindSqrt, true
	case 7: // add
		return OperationKindAdd, true
	case 8: // sub
		return OperationKindSub, true
	case 9: // mul
		return OperationKindMul, true
	case 10: // div
		return OperationKindDiv, true
	case 11: // min
		return OperationKindMin, true
	case 12: // max
		return OperationKindMax, true
	case 13: // copysign
		return OperationKindCopysign, true
	}
	return 0, false
}

// conversionOpcode covers the 0xa7-0xbf numeric conversion range (wrap,
// trunc, convert, demote/promote, reinterpret, sign-extension ops).
func conversionOpcode(op byte) (OperationKind, uint8, uint8, bool) {
	switch op {
	case 0xa7: // i32.wrap_i64
		return OperationKindConvert, uint8(UnsignedTypeI32), uint8(UnsignedTypeI64), true
	case 0xa8, 0xa9, 0xaa, 0xab: // i32.trunc_f32_s/u, f64_s/u
		return OperationKindITruncFromF, uint8(UnsignedTypeI32), uint8(op-0xa8), true
	case 0xac, 0xad: // i64.extend_i32_s/u
		return OperationKindExtend, uint8(op - 0xac), 0, true
	case 0xae, 0xaf, 0xb0, 0xb1: // i64.trunc_f32_s/u, f64_s/u
		return OperationKindITruncFromF, uint8(UnsignedTypeI64), uint8(op-0xae), true
	case 0xb2, 0xb3, 0xb4, 0xb5: // f32.convert_i32_s/u, i64_s/u
		return OperationKindFConvertFromI, uint8(UnsignedTypeF32), uint8(op-0xb2), true
	case 0xb6:
		return OperationKindF32DemoteFromF64, 0, 0, true
	case 0xb7, 0xb8, 0xb9, 0xba: // f64.convert_i32_s/u, i64_s/u
		return OperationKindFConvertFromI, uint8(UnsignedTypeF64), uint8(op-0xb7), true
	case 0xbb:
		return OperationKindF64PromoteFromF32, 0, 0, true
	case 0xbc:
		return OperationKindI32ReinterpretFromF32, 0, 0, true
	case 0xbd:
		return OperationKindI64ReinterpretFromF64, 0, 0, true
	case 0xbe:
		return OperationKindF32ReinterpretFromI32, 0, 0, true
	case 0xbf:
		return OperationKindF64ReinterpretFromI64, 0, 0, true
	case 0xc0:
		return OperationKindSignExtend32From8, 0, 0, true
	case 0xc1:
		return OperationKindSignExtend32From16, 0, 0, true
	case 0xc2:
		return OperationKindSignExtend64From8, 0, 0, true
	case 0xc3:
		return OperationKindSignExtend64From16, 0, 0, true
	case 0xc4:
		return OperationKindSignExtend64From32, 0, 0, true
	}
	return 0, 0, 0, false
}
