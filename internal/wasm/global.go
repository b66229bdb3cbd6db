package wasm

import "errors"

// ErrImmutableGlobal is returned by GlobalInstance.Set against a global
// declared immutable. Validation rejects global.set to an immutable global
// at compile time, so this only fires for a host embedder misusing the
// public API directly.
var ErrImmutableGlobal = errors.New("global is immutable")

// GlobalInstance is spec.md's Global: 128 bits of storage (this engine only
// ever populates the low 64 with scalar values; the high 64 is reserved for
// a future v128 global, as the teacher's own struct layout anticipates) plus
// the type/mutability pair enforced on every Set.
type GlobalInstance struct {
	Type  GlobalType
	Value uint64
	ValHi uint64 // reserved for v128; unused by scalar globals
}

// NewGlobalInstance constructs a GlobalInstance holding the already-evaluated
// initializer value (constant expressions are resolved by Store.Instantiate
// before this is called).
func NewGlobalInstance(ty GlobalType, init uint64) *GlobalInstance {
	return &GlobalInstance{Type: ty, Value: init}
}

// Set implements spec.md's Global.set: only permitted if the global's
// mutability is Var; the type is fixed at creation and never rechecked here
// because compiled code is generated against the known static type.
func (g *GlobalInstance) Set(v uint64) error {
	if !g.Type.Mutable {
		return ErrImmutableGlobal
	}
	g.Value = v
	return nil
}

// Get returns the current value.
func (g *GlobalInstance) Get() uint64 { return g.Value }
