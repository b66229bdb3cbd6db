package wazeroir

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/leb128"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// valUnknown stands in for a value of unknown type: the polymorphic operand
// produced by popping past the start of unreachable code, per the
// WebAssembly validation algorithm's stack-polymorphism rule. 0xff is never
// a valid wasm.ValueType (those run 0-5), so it can't collide with a real
// type.
const valUnknown wasm.ValueType = 0xff

// defaultMaxStackValues bounds how many operand-stack slots one function
// body may reach at any point during validation. It exists to reject
// pathological (or adversarial) modules before they ever reach the
// translator or the register-pool-limited amd64 backend, rather than let
// either fail in a less diagnosable way later. CompileFunctions validates
// against this; validateFunction itself takes the limit as a parameter so
// tests can exercise the limit-exceeded path without 65536 consts.
const defaultMaxStackValues = 1 << 16

// valCtrl is one nested block/loop/if/function frame during validation: the
// same bookkeeping shape as compiler.go's controlFrame, plus the type
// information (operand stack contents a branch to this frame must produce)
// that a translator-only pass doesn't need to keep around.
type valCtrl struct {
	kind                 controlFrameKind
	startTypes, endTypes []wasm.ValueType
	height               int
	unreachable          bool
}

// validator performs the single-pass type-stack simulation spec.md's
// translator explicitly disclaims doing (compiler.go's compile() doc
// comment): walking a function body exactly like the translator does,
// checking every opcode's operand types and block structure against the
// WebAssembly validation algorithm, before any UnionOperation is ever
// emitted for it.
type validator struct {
	module         *wasm.Module
	r              *bytes.Reader
	hasMemory      bool
	maxStackValues int
	valueStack     []wasm.ValueType
	ctrls          []valCtrl
}

// validateFunction checks one function body for structural and type
// soundness. Its signature mirrors the teacher's own validateFunction (see
// internal/wasm/func_validation_test.go in the retrieval pack) adapted to
// this codebase's shape: the teacher takes separate function/global/
// memory/table/type counts, this one takes the wasm.Module they all live
// on directly, since nothing else here threads them separately; maxStackValues
// stays a parameter, as in the teacher's signature, so a test can exercise
// the limit-exceeded path without needing tens of thousands of opcodes.
func validateFunction(m *wasm.Module, ft *wasm.FunctionType, body []byte, localTypes []wasm.ValueType, maxStackValues int) error {
	v := &validator{
		module:         m,
		r:              bytes.NewReader(body),
		hasMemory:      len(m.MemorySection) > 0 || m.ImportMemoryCount > 0,
		maxStackValues: maxStackValues,
	}
	v.pushCtrl(controlFrameKindFunction, nil, ft.Results)

	for {
		op, err := v.r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		offset := int64(v.r.Size()) - int64(v.r.Len()) - 1
		if err := v.validateOp(op, localTypes); err != nil {
			return fmt.Errorf("wazeroir: validation: offset %d: %w", offset, err)
		}
	}
	if len(v.ctrls) != 0 {
		return fmt.Errorf("wazeroir: validation: function body ends with %d unterminated block(s)", len(v.ctrls))
	}
	return nil
}

func (v *validator) pushVal(t wasm.ValueType) error {
	v.valueStack = append(v.valueStack, t)
	if len(v.valueStack) > v.maxStackValues {
		return fmt.Errorf("function may have %d stack values, which exceeds limit %d", len(v.valueStack), v.maxStackValues)
	}
	return nil
}

func (v *validator) pushVals(types []wasm.ValueType) error {
	for _, t := range types {
		if err := v.pushVal(t); err != nil {
			return err
		}
	}
	return nil
}

// popVal implements the stack-polymorphism rule: once a frame has been
// marked unreachable (by an unconditional branch or `unreachable`), popping
// past the bottom of its live values yields an unknown-typed value rather
// than an underflow error, since a dead-code path is allowed to pretend
// whatever the surrounding code needs was there.
func (v *validator) popVal() (wasm.ValueType, error) {
	top := &v.ctrls[len(v.ctrls)-1]
	if len(v.valueStack) == top.height {
		if top.unreachable {
			return valUnknown, nil
		}
		return 0, fmt.Errorf("value stack underflow")
	}
	t := v.valueStack[len(v.valueStack)-1]
	v.valueStack = v.valueStack[:len(v.valueStack)-1]
	return t, nil
}

func (v *validator) popExpect(expected wasm.ValueType) error {
	got, err := v.popVal()
	if err != nil {
		return err
	}
	if got != valUnknown && expected != valUnknown && got != expected {
		return fmt.Errorf("type mismatch: expected %s, got %s", api.ValueTypeName(expected), api.ValueTypeName(got))
	}
	return nil
}

func (v *validator) popVals(types []wasm.ValueType) error {
	for i := len(types) - 1; i >= 0; i-- {
		if err := v.popExpect(types[i]); err != nil {
			return err
		}
	}
	return nil
}

// pushCtrl enters a new frame: in is pushed back onto the stack, since
// block/loop/if parameters remain usable inside the frame they gate.
func (v *validator) pushCtrl(kind controlFrameKind, in, out []wasm.ValueType) {
	v.ctrls = append(v.ctrls, valCtrl{kind: kind, startTypes: in, endTypes: out, height: len(v.valueStack)})
	v.pushVals(in) // never fails immediately after a pop of the same types
}

func (v *validator) popCtrl() (valCtrl, error) {
	if len(v.ctrls) == 0 {
		return valCtrl{}, fmt.Errorf("unexpected end: no open block")
	}
	frame := v.ctrls[len(v.ctrls)-1]
	if err := v.popVals(frame.endTypes); err != nil {
		return valCtrl{}, err
	}
	if len(v.valueStack) != frame.height {
		return valCtrl{}, fmt.Errorf("values remain on the stack at the end of a block")
	}
	v.ctrls = v.ctrls[:len(v.ctrls)-1]
	return frame, nil
}

func (v *validator) setUnreachable() {
	top := &v.ctrls[len(v.ctrls)-1]
	v.valueStack = v.valueStack[:top.height]
	top.unreachable = true
}

// labelTypes is what a branch targeting frame must leave on the stack: a
// loop's label is its entry (top), since branching there re-enters the
// loop; every other frame's label is its exit (out), since branching there
// jumps past its end.
func labelTypes(frame valCtrl) []wasm.ValueType {
	if frame.kind == controlFrameKindLoop {
		return frame.startTypes
	}
	return frame.endTypes
}

// branch type-checks a branch of relative depth to an enclosing frame:
// the targeted frame's label types must already be on the stack, and are
// left there afterward (a conditional branch falls through; an
// unconditional one is followed by setUnreachable, which makes the
// restoration moot).
func (v *validator) branch(depth uint32) error {
	if int(depth) >= len(v.ctrls) {
		return fmt.Errorf("branch depth %d exceeds block nesting depth %d", depth, len(v.ctrls)-1)
	}
	frame := v.ctrls[len(v.ctrls)-1-int(depth)]
	types := labelTypes(frame)
	if err := v.popVals(types); err != nil {
		return err
	}
	return v.pushVals(types)
}

func (v *validator) readBlockType() (*wasm.FunctionType, error) {
	n, _, err := leb128.DecodeInt33AsInt64(v.r)
	if err != nil {
		return nil, err
	}
	switch n {
	case -0x40:
		return &wasm.FunctionType{}, nil
	case -1:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}, nil
	case -2:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI64}}, nil
	case -3:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeF32}}, nil
	case -4:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeF64}}, nil
	case -16:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeFuncref}}, nil
	case -17:
		return &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeExternref}}, nil
	}
	if n < 0 || int(n) >= len(v.module.TypeSection) {
		return nil, fmt.Errorf("invalid block type index %d", n)
	}
	return &v.module.TypeSection[n], nil
}

func (v *validator) readMemArg() error {
	if _, _, err := leb128.DecodeUint32(v.r); err != nil { // alignment
		return err
	}
	_, _, err := leb128.DecodeUint32(v.r) // offset
	return err
}

func (v *validator) globalType(idx uint32) (wasm.GlobalType, error) {
	if idx < v.module.ImportGlobalCount {
		var seen uint32
		for i := range v.module.ImportSection {
			imp := &v.module.ImportSection[i]
			if imp.Type != wasm.ExternTypeGlobal {
				continue
			}
			if seen == idx {
				return imp.DescGlobal, nil
			}
			seen++
		}
	} else if local := idx - v.module.ImportGlobalCount; int(local) < len(v.module.GlobalSection) {
		return v.module.GlobalSection[local].Type, nil
	}
	return wasm.GlobalType{}, fmt.Errorf("global index %d out of range", idx)
}

func (v *validator) tableType(idx uint32) (wasm.TableType, error) {
	if idx < v.module.ImportTableCount {
		var seen uint32
		for i := range v.module.ImportSection {
			imp := &v.module.ImportSection[i]
			if imp.Type != wasm.ExternTypeTable {
				continue
			}
			if seen == idx {
				return imp.DescTable, nil
			}
			seen++
		}
	} else if local := idx - v.module.ImportTableCount; int(local) < len(v.module.TableSection) {
		return v.module.TableSection[local], nil
	}
	return wasm.TableType{}, fmt.Errorf("table index %d out of range", idx)
}

func sameTypes(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func signedTypeValue(t SignedType) wasm.ValueType {
	switch t {
	case SignedTypeInt32, SignedTypeUint32:
		return wasm.ValueTypeI32
	case SignedTypeInt64, SignedTypeUint64:
		return wasm.ValueTypeI64
	case SignedTypeFloat32:
		return wasm.ValueTypeF32
	case SignedTypeFloat64:
		return wasm.ValueTypeF64
	}
	return valUnknown
}

func unsignedTypeValue(t UnsignedType) wasm.ValueType {
	switch t {
	case UnsignedTypeI32:
		return wasm.ValueTypeI32
	case UnsignedTypeI64:
		return wasm.ValueTypeI64
	case UnsignedTypeF32:
		return wasm.ValueTypeF32
	case UnsignedTypeF64:
		return wasm.ValueTypeF64
	}
	return valUnknown
}

func loadValueType(op byte) wasm.ValueType {
	switch op {
	case 0x28, 0x2c, 0x2d, 0x2e, 0x2f:
		return wasm.ValueTypeI32
	case 0x29, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
		return wasm.ValueTypeI64
	case 0x2a:
		return wasm.ValueTypeF32
	case 0x2b:
		return wasm.ValueTypeF64
	}
	return valUnknown
}

func storeValueType(op byte) wasm.ValueType {
	switch op {
	case 0x36, 0x3a, 0x3b:
		return wasm.ValueTypeI32
	case 0x37, 0x3c, 0x3d, 0x3e:
		return wasm.ValueTypeI64
	case 0x38:
		return wasm.ValueTypeF32
	case 0x39:
		return wasm.ValueTypeF64
	}
	return valUnknown
}

// validateOp decodes op's immediates (identically to compiler.go's compile
// loop) and checks its effect on the operand stack. Every opcode
// compiler.go's switch recognizes is handled here the same way; anything
// else is rejected the same way compiler.go rejects it, just one pass
// earlier and with a validation-specific error.
func (v *validator) validateOp(op byte, localTypes []wasm.ValueType) error {
	switch op {
	case 0x00: // unreachable
		v.setUnreachable()
	case 0x01: // nop
	case 0x02, 0x03, 0x04: // block, loop, if
		bt, err := v.readBlockType()
		if err != nil {
			return err
		}
		if op == 0x04 {
			if err := v.popExpect(wasm.ValueTypeI32); err != nil {
				return err
			}
		}
		if err := v.popVals(bt.Params); err != nil {
			return err
		}
		kind := controlFrameKindBlock
		if op == 0x03 {
			kind = controlFrameKindLoop
		} else if op == 0x04 {
			kind = controlFrameKindIf
		}
		v.pushCtrl(kind, bt.Params, bt.Results)
	case 0x05: // else
		frame, err := v.popCtrl()
		if err != nil {
			return err
		}
		if frame.kind != controlFrameKindIf {
			return fmt.Errorf("else without a matching if")
		}
		// Re-enter as a plain block: the frame an `end` later pops is this
		// one, so an if that reached an else no longer looks like kind
		// controlFrameKindIf to the 0x0b case below, which is exactly the
		// signal used there to tell "if had no else" apart from "if had one".
		v.pushCtrl(controlFrameKindBlock, frame.startTypes, frame.endTypes)
	case 0x0b: // end
		frame, err := v.popCtrl()
		if err != nil {
			return err
		}
		// Only an if that never saw a matching else still carries kind
		// controlFrameKindIf here (else re-pushes as controlFrameKindBlock);
		// the spec requires such an if's param and result types to match,
		// since the implicit empty else must leave the stack unchanged.
		if frame.kind == controlFrameKindIf && !sameTypes(frame.startTypes, frame.endTypes) {
			return fmt.Errorf("if without else must have matching parameter and result types")
		}
		return v.pushVals(frame.endTypes)
	case 0x0c: // br
		depth, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if err := v.branch(depth); err != nil {
			return err
		}
		v.setUnreachable()
	case 0x0d: // br_if
		depth, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.branch(depth)
	case 0x0e: // br_table
		n, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		targets := make([]uint32, n+1)
		for i := range targets {
			d, _, err := leb128.DecodeUint32(v.r)
			if err != nil {
				return err
			}
			targets[i] = d
		}
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		for _, d := range targets {
			if err := v.branch(d); err != nil {
				return err
			}
		}
		v.setUnreachable()
	case 0x0f: // return
		if err := v.branch(uint32(len(v.ctrls) - 1)); err != nil {
			return err
		}
		v.setUnreachable()
	case 0x10: // call
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		callee := v.module.TypeOfFunction(idx)
		if callee == nil {
			return fmt.Errorf("call: function index %d out of range", idx)
		}
		if err := v.popVals(callee.Params); err != nil {
			return err
		}
		return v.pushVals(callee.Results)
	case 0x11: // call_indirect
		typeIdx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		tableIdx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if int(typeIdx) >= len(v.module.TypeSection) {
			return fmt.Errorf("call_indirect: type index %d out of range", typeIdx)
		}
		tt, err := v.tableType(tableIdx)
		if err != nil {
			return err
		}
		if tt.ElemType != wasm.RefTypeFuncref {
			return fmt.Errorf("call_indirect: table %d is not a funcref table", tableIdx)
		}
		callee := &v.module.TypeSection[typeIdx]
		if err := v.popExpect(wasm.ValueTypeI32); err != nil { // the table slot index
			return err
		}
		if err := v.popVals(callee.Params); err != nil {
			return err
		}
		return v.pushVals(callee.Results)
	case 0x1a: // drop
		_, err := v.popVal()
		return err
	case 0x1b: // select
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		b, err := v.popVal()
		if err != nil {
			return err
		}
		a, err := v.popVal()
		if err != nil {
			return err
		}
		if a != valUnknown && b != valUnknown && a != b {
			return fmt.Errorf("select: operand types do not match (%s vs %s)", api.ValueTypeName(a), api.ValueTypeName(b))
		}
		result := a
		if result == valUnknown {
			result = b
		}
		return v.pushVal(result)
	case 0x1c: // select t*
		n, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		types := make([]wasm.ValueType, n)
		for i := range types {
			t, err := decodeValueTypeByte(v.r)
			if err != nil {
				return err
			}
			types[i] = t
		}
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		if len(types) != 1 {
			return fmt.Errorf("select with explicit types: expected exactly one type, got %d", len(types))
		}
		if err := v.popExpect(types[0]); err != nil {
			return err
		}
		if err := v.popExpect(types[0]); err != nil {
			return err
		}
		return v.pushVal(types[0])
	case 0x20: // local.get
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if int(idx) >= len(localTypes) {
			return fmt.Errorf("local.get: local index %d out of range", idx)
		}
		return v.pushVal(localTypes[idx])
	case 0x21, 0x22: // local.set, local.tee
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if int(idx) >= len(localTypes) {
			return fmt.Errorf("local.set/tee: local index %d out of range", idx)
		}
		if err := v.popExpect(localTypes[idx]); err != nil {
			return err
		}
		if op == 0x22 {
			return v.pushVal(localTypes[idx])
		}
	case 0x23: // global.get
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		gt, err := v.globalType(idx)
		if err != nil {
			return err
		}
		return v.pushVal(gt.ValType)
	case 0x24: // global.set
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		gt, err := v.globalType(idx)
		if err != nil {
			return err
		}
		if !gt.Mutable {
			return fmt.Errorf("global.set: global %d is immutable", idx)
		}
		return v.popExpect(gt.ValType)
	case 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
		if err := v.readMemArg(); err != nil {
			return err
		}
		if !v.hasMemory {
			return fmt.Errorf("memory access opcode %#x but module declares no memory", op)
		}
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.pushVal(loadValueType(op))
	case 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e:
		if err := v.readMemArg(); err != nil {
			return err
		}
		if !v.hasMemory {
			return fmt.Errorf("memory access opcode %#x but module declares no memory", op)
		}
		if err := v.popExpect(storeValueType(op)); err != nil {
			return err
		}
		return v.popExpect(wasm.ValueTypeI32)
	case 0x3f: // memory.size
		if _, err := v.r.ReadByte(); err != nil {
			return err
		}
		if !v.hasMemory {
			return fmt.Errorf("memory.size but module declares no memory")
		}
		return v.pushVal(wasm.ValueTypeI32)
	case 0x40: // memory.grow
		if _, err := v.r.ReadByte(); err != nil {
			return err
		}
		if !v.hasMemory {
			return fmt.Errorf("memory.grow but module declares no memory")
		}
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case 0x41: // i32.const
		if _, _, err := leb128.DecodeInt32(v.r); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case 0x42: // i64.const
		if _, _, err := leb128.DecodeInt64(v.r); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI64)
	case 0x43: // f32.const
		var b [4]byte
		if _, err := io.ReadFull(v.r, b[:]); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF32)
	case 0x44: // f64.const
		var b [8]byte
		if _, err := io.ReadFull(v.r, b[:]); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF64)
	case 0xd0: // ref.null
		t, err := decodeValueTypeByte(v.r)
		if err != nil {
			return err
		}
		return v.pushVal(t)
	case 0xd2: // ref.func
		idx, _, err := leb128.DecodeUint32(v.r)
		if err != nil {
			return err
		}
		if v.module.TypeOfFunction(idx) == nil {
			return fmt.Errorf("ref.func: function index %d out of range", idx)
		}
		return v.pushVal(wasm.ValueTypeFuncref)
	default:
		return v.validateNumeric(op)
	}
	return nil
}

// validateNumeric covers the flat comparison/arithmetic/conversion opcode
// range via compiler.go's own numericOpcode table, so the operand types
// checked here can never drift from what the translator actually lowers
// each opcode to.
func (v *validator) validateNumeric(op byte) error {
	kind, t1, t2, ok := numericOpcode(op)
	if !ok {
		return fmt.Errorf("unsupported opcode %#x", op)
	}
	switch kind {
	case OperationKindEqz:
		if err := v.popExpect(signedTypeValue(SignedType(t1))); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case OperationKindEq, OperationKindNe, OperationKindLt, OperationKindGt, OperationKindLe, OperationKindGe:
		ty := signedTypeValue(SignedType(t1))
		if err := v.popExpect(ty); err != nil {
			return err
		}
		if err := v.popExpect(ty); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case OperationKindAdd, OperationKindSub, OperationKindMul, OperationKindDiv, OperationKindRem,
		OperationKindAnd, OperationKindOr, OperationKindXor, OperationKindShl, OperationKindShr,
		OperationKindRotl, OperationKindRotr, OperationKindMin, OperationKindMax, OperationKindCopysign:
		ty := signedTypeValue(SignedType(t1))
		if err := v.popExpect(ty); err != nil {
			return err
		}
		if err := v.popExpect(ty); err != nil {
			return err
		}
		return v.pushVal(ty)
	case OperationKindAbs, OperationKindNeg, OperationKindCeil, OperationKindFloor, OperationKindTrunc,
		OperationKindNearest, OperationKindSqrt:
		ty := signedTypeValue(SignedType(t1))
		if err := v.popExpect(ty); err != nil {
			return err
		}
		return v.pushVal(ty)
	case OperationKindConvert: // i32.wrap_i64
		if err := v.popExpect(wasm.ValueTypeI64); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case OperationKindITruncFromF:
		src := wasm.ValueTypeF32
		if t2 >= 2 {
			src = wasm.ValueTypeF64
		}
		if err := v.popExpect(src); err != nil {
			return err
		}
		return v.pushVal(unsignedTypeValue(UnsignedType(t1)))
	case OperationKindExtend: // i64.extend_i32_s/u
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI64)
	case OperationKindFConvertFromI:
		src := wasm.ValueTypeI32
		if t2 >= 2 {
			src = wasm.ValueTypeI64
		}
		if err := v.popExpect(src); err != nil {
			return err
		}
		return v.pushVal(unsignedTypeValue(UnsignedType(t1)))
	case OperationKindF32DemoteFromF64:
		if err := v.popExpect(wasm.ValueTypeF64); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF32)
	case OperationKindF64PromoteFromF32:
		if err := v.popExpect(wasm.ValueTypeF32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF64)
	case OperationKindI32ReinterpretFromF32:
		if err := v.popExpect(wasm.ValueTypeF32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case OperationKindI64ReinterpretFromF64:
		if err := v.popExpect(wasm.ValueTypeF64); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI64)
	case OperationKindF32ReinterpretFromI32:
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF32)
	case OperationKindF64ReinterpretFromI64:
		if err := v.popExpect(wasm.ValueTypeI64); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeF64)
	case OperationKindSignExtend32From8, OperationKindSignExtend32From16:
		if err := v.popExpect(wasm.ValueTypeI32); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI32)
	case OperationKindSignExtend64From8, OperationKindSignExtend64From16, OperationKindSignExtend64From32:
		if err := v.popExpect(wasm.ValueTypeI64); err != nil {
			return err
		}
		return v.pushVal(wasm.ValueTypeI64)
	}
	return fmt.Errorf("validation: no type signature known for %s", kind)
}
