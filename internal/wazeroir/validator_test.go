package wazeroir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// TestValidateFunction_valueStackLimit mirrors the teacher's own
// func_validation_test.go (internal/wasm in the retrieval pack): a function
// that pushes one more i32.const than the stack limit allows, then drops
// them all back off, is rejected with the same message shape even though
// the stack is empty again by the time the function ends.
func TestValidateFunction_valueStackLimit(t *testing.T) {
	const max = 8
	const valuesNum = max + 1

	var body []byte
	for i := 0; i < valuesNum; i++ {
		body = append(body, wasm.OpcodeI32Const, 1)
	}
	for i := 0; i < valuesNum; i++ {
		body = append(body, 0x1a) // drop
	}
	body = append(body, wasm.OpcodeEnd)

	m := &wasm.Module{}

	t.Run("not exceed", func(t *testing.T) {
		err := validateFunction(m, &wasm.FunctionType{}, body, nil, max+1)
		require.NoError(t, err)
	})
	t.Run("exceed", func(t *testing.T) {
		err := validateFunction(m, &wasm.FunctionType{}, body, nil, max)
		require.Error(t, err)
		expMsg := fmt.Sprintf("function may have %d stack values, which exceeds limit %d", valuesNum, max)
		require.Contains(t, err.Error(), expMsg)
	})
}

func TestValidateFunction_typeMismatch(t *testing.T) {
	m := &wasm.Module{}
	// i32.const 1; i64.add -- the add wants two i64s, but the single
	// operand on the stack is an i32.
	body := []byte{wasm.OpcodeI32Const, 1, 0x7c, wasm.OpcodeEnd}
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

func TestValidateFunction_stackUnderflow(t *testing.T) {
	m := &wasm.Module{}
	body := []byte{0x1a, wasm.OpcodeEnd} // drop with nothing on the stack
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "underflow")
}

func TestValidateFunction_resultTypeMismatch(t *testing.T) {
	m := &wasm.Module{}
	// Declares an i32 result but the body leaves an i64 on the stack.
	ft := &wasm.FunctionType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
	body := []byte{0x42, 1, wasm.OpcodeEnd} // i64.const 1; end
	err := validateFunction(m, ft, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

func TestValidateFunction_validAddFunction(t *testing.T) {
	m := &wasm.Module{}
	// (i32, i32) -> i32, body: local.get 0; local.get 1; i32.add; end
	ft := &wasm.FunctionType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
	body := []byte{0x20, 0, 0x20, 1, 0x6a, wasm.OpcodeEnd}
	err := validateFunction(m, ft, body, ft.Params, defaultMaxStackValues)
	require.NoError(t, err)
}

func TestValidateFunction_branchDepthOutOfRange(t *testing.T) {
	m := &wasm.Module{}
	// br 0 outside of any block targets the function frame itself (a
	// disguised return); br 1 has nothing to target and must be rejected.
	body := []byte{0x0c, 1, wasm.OpcodeEnd}
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds block nesting depth")
}

func TestValidateFunction_ifWithoutElseTypeMismatch(t *testing.T) {
	m := &wasm.Module{TypeSection: []wasm.FunctionType{
		{Results: []wasm.ValueType{wasm.ValueTypeI32}},
	}}
	// i32.const 1 (condition); if (type 0) i32.const 2 end; end -- the if
	// produces an i32 but has no else, and its block type declares no
	// parameters, so entry and exit types don't match.
	body := []byte{
		wasm.OpcodeI32Const, 1,
		0x04, 0, // if, blocktype index 0
		wasm.OpcodeI32Const, 2,
		wasm.OpcodeEnd, // end if
		wasm.OpcodeEnd, // end func
	}
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "if without else")
}

func TestValidateFunction_memoryOpWithoutMemory(t *testing.T) {
	m := &wasm.Module{} // no memory section, no imported memory
	// i32.const 0; i32.load align=0 offset=0; end
	body := []byte{wasm.OpcodeI32Const, 0, 0x28, 0, 0, wasm.OpcodeEnd}
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "declares no memory")
}

func TestValidateFunction_unknownOpcodeRejected(t *testing.T) {
	m := &wasm.Module{}
	// 0x67 is i32.clz, a real WebAssembly opcode this scoped-down engine
	// doesn't implement (see numericOpcode's comment in compiler.go).
	body := []byte{wasm.OpcodeI32Const, 1, 0x67, wasm.OpcodeEnd}
	err := validateFunction(m, &wasm.FunctionType{}, body, nil, defaultMaxStackValues)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported opcode")
}
