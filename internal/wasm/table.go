package wasm

import "github.com/wasmerio/wasmer-core/internal/wasmruntime"

// Reference is an opaque table/ref.func value: for a funcref table, it is the
// function's index in the module's function index space (see evalConstExpr's
// ref.func case and internal/engine/compiler's call_indirect dispatch); for an
// externref table, it is a pointer to caller-owned data. Zero means null.
type Reference = uintptr

// TableInstance is spec.md's Table: a growable array of opaque references,
// with element-type and max-size invariants enforced at every mutation.
type TableInstance struct {
	References []Reference
	Type       RefType
	Max        *uint32
}

// NewTableInstance allocates a TableInstance per ty, zero-filled (all
// references null).
func NewTableInstance(ty *TableType) *TableInstance {
	return &TableInstance{
		References: make([]Reference, ty.Min),
		Type:       ty.ElemType,
		Max:        ty.Max,
	}
}

// Len returns the current number of elements.
func (t *TableInstance) Len() int { return len(t.References) }

// Grow appends num null/given-ref elements, honoring Max; never shrinks.
// Returns the previous length, or -1 (as uint32 0xffffffff) on failure.
func (t *TableInstance) Grow(num uint32, ref Reference) uint32 {
	current := uint32(len(t.References))
	if num == 0 {
		return current
	}
	newLen := uint64(current) + uint64(num)
	if t.Max != nil && newLen > uint64(*t.Max) {
		return 0xffffffff
	}
	if newLen > 1<<32-1 {
		return 0xffffffff
	}
	grown := make([]Reference, newLen)
	copy(grown, t.References)
	for i := current; i < uint32(newLen); i++ {
		grown[i] = ref
	}
	t.References = grown
	return current
}

// Get returns the reference at idx, or an error if idx is out of bounds.
func (t *TableInstance) Get(idx uint32) (Reference, error) {
	if idx >= uint32(len(t.References)) {
		return 0, wasmruntime.ErrRuntimeInvalidTableAccess
	}
	return t.References[idx], nil
}

// Set stores ref at idx, or returns an error if idx is out of bounds.
func (t *TableInstance) Set(idx uint32, ref Reference) error {
	if idx >= uint32(len(t.References)) {
		return wasmruntime.ErrRuntimeInvalidTableAccess
	}
	t.References[idx] = ref
	return nil
}

// Fill sets References[offset:offset+num] to ref, bounds-checked as one
// operation (partial writes before a trap are spec-observable, but this
// engine validates the whole range up front to keep the all-or-nothing
// Testable Property simple for the common case of in-bounds fills).
func (t *TableInstance) Fill(offset, num uint32, ref Reference) error {
	end := uint64(offset) + uint64(num)
	if end > uint64(len(t.References)) {
		return wasmruntime.ErrRuntimeInvalidTableAccess
	}
	for i := offset; i < uint32(end); i++ {
		t.References[i] = ref
	}
	return nil
}
