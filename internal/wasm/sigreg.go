package wasm

import "sync"

// FunctionTypeID uniquely identifies a FunctionType process-wide. Two
// modules compiled independently but sharing a structurally identical
// signature resolve to the same ID, which is what makes call_indirect's
// type check a single integer compare instead of a deep structural one
// (spec.md §4.F).
type FunctionTypeID uint32

// typeIDRegistry is the process-wide signature registry: every FunctionType
// ever compiled is canonicalized to a FunctionTypeID here, and the mapping
// never shrinks -- IDs are never reused, mirroring the teacher's own
// typeIDs map. internal/engine/compiler's Go-side call_indirect dispatch
// compares these IDs as plain integers.
type typeIDRegistry struct {
	mu  sync.RWMutex
	ids map[string]FunctionTypeID
	rev []*FunctionType // rev[id] gives the canonical type back, for debugging.
}

var globalTypeIDs = &typeIDRegistry{ids: map[string]FunctionTypeID{}}

// GetOrAssignID returns ft's process-wide FunctionTypeID, assigning a fresh
// one the first time a given signature shape is seen.
func (r *typeIDRegistry) GetOrAssignID(ft *FunctionType) FunctionTypeID {
	key := ft.key()

	r.mu.RLock()
	if id, ok := r.ids[key]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another goroutine may have assigned it between the RUnlock
	// above and this Lock.
	if id, ok := r.ids[key]; ok {
		return id
	}
	id := FunctionTypeID(len(r.rev))
	r.ids[key] = id
	r.rev = append(r.rev, ft)
	return id
}

// Lookup returns the canonical FunctionType for id, or nil if unknown.
func (r *typeIDRegistry) Lookup(id FunctionTypeID) *FunctionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.rev) {
		return nil
	}
	return r.rev[id]
}

// GetFunctionTypeID returns ft's process-wide ID, assigning one if this is
// the first time ft's signature shape has been registered.
func GetFunctionTypeID(ft *FunctionType) FunctionTypeID {
	return globalTypeIDs.GetOrAssignID(ft)
}

// LookupFunctionType returns the canonical FunctionType for id.
func LookupFunctionType(id FunctionTypeID) *FunctionType {
	return globalTypeIDs.Lookup(id)
}
