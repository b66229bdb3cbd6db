package wasm

import (
	"github.com/wasmerio/wasmer-core/internal/platform"
	"github.com/wasmerio/wasmer-core/internal/wasmruntime"
)

// MemoryPageSize is the WebAssembly page size: 65536 bytes (spec.md §3).
const MemoryPageSize = 65536

// MemoryPageSizeLog2 satisfies 1<<MemoryPageSizeLog2 == MemoryPageSize.
const MemoryPageSizeLog2 = 16

// MemoryLimitPages is the hard ceiling on memory size regardless of a
// module's declared max: 2^16 pages == 4GiB, the 32-bit address space limit.
const MemoryLimitPages = 1 << 16

// MemoryStyle selects how a LinearMemory is allocated and grown (spec.md
// §3 LinearMemory.style).
type MemoryStyle byte

const (
	// MemoryStyleStatic pre-reserves bound_pages*PageSize + guard bytes once;
	// growth only updates the visible length, never reallocates, so compiled
	// code's cached base pointer stays valid across memory.grow.
	MemoryStyleStatic MemoryStyle = iota
	// MemoryStyleDynamic reallocates (and may move) the backing buffer on
	// growth; compiled code must reload the base pointer/length on every
	// access (moduleContext.memoryElement0Address / memorySliceLen).
	MemoryStyleDynamic
)

// defaultGuardSize is the size of the extra region reserved after a Static
// memory's maximum bytes. platform.MmapMemory maps it read/write together
// with the rest of the reservation, so an access that overruns into it does
// not fault; it reads or writes those bytes. Dynamic memories have no such
// region.
const defaultGuardSize = 1 << 16 // 64KiB: enough to cover any single access's worst-case offset overrun in this engine.

// MemoryInstance is spec.md's LinearMemory: materialized per-instance,
// bounds-checked linear memory.
type MemoryInstance struct {
	Buffer    []byte
	Min, Cap  uint32 // in pages
	Max       uint32 // in pages; MemoryLimitPages if unbounded
	Shared    bool
	Style     MemoryStyle
	definition *MemoryDefinition
}

// MemoryDefinition is the public, embedder-facing view of a MemoryInstance,
// implementing api.Memory.
type MemoryDefinition struct{ mem *MemoryInstance }

// NewMemoryInstance allocates a MemoryInstance per ty, choosing Static style
// whenever ty declares a Max (so the whole bound can be reserved up front)
// and Dynamic otherwise.
func NewMemoryInstance(ty *MemoryType) *MemoryInstance {
	max := uint32(MemoryLimitPages)
	style := MemoryStyleDynamic
	if ty.Max != nil {
		max = *ty.Max
		style = MemoryStyleStatic
	}
	m := &MemoryInstance{Min: ty.Min, Max: max, Shared: ty.Shared, Style: style}
	m.definition = &MemoryDefinition{mem: m}

	switch style {
	case MemoryStyleStatic:
		// Reserve the full bound once; Buffer's length (not cap) is the
		// currently-visible size so compiled code's bounds check is just a
		// length compare, never a remap.
		backing, err := platform.MmapMemory(int(max) * MemoryPageSize + defaultGuardSize)
		if err != nil {
			// Fall back to a Go-heap allocation sized to the initial pages;
			// growth then behaves like MemoryStyleDynamic. This keeps the
			// engine usable in sandboxes without mmap rights, at the cost of
			// losing the "stable base pointer" guarantee for this instance.
			m.Style = MemoryStyleDynamic
			m.Buffer = make([]byte, uint64(ty.Min)*MemoryPageSize)
			m.Cap = ty.Min
			return m
		}
		m.Buffer = backing[:uint64(ty.Min)*MemoryPageSize]
		m.Cap = max
	case MemoryStyleDynamic:
		m.Buffer = make([]byte, uint64(ty.Min)*MemoryPageSize)
		m.Cap = ty.Min
	}
	return m
}

// Definition returns the api.Memory view of this instance.
func (m *MemoryInstance) Definition() *MemoryDefinition { return m.definition }

// PageSize returns the current size of the memory, in pages.
func (m *MemoryInstance) PageSize() uint32 {
	return uint32(len(m.Buffer) / MemoryPageSize)
}

// Grow implements spec.md's LinearMemory.grow(delta_pages): atomically check
// current+delta <= max <= platform limit; returns the old size in pages, or
// false if the request cannot be satisfied. Never traps, never mutates state
// on failure (Testable Property 6).
func (m *MemoryInstance) Grow(deltaPages uint32) (previousPages uint32, ok bool) {
	current := m.PageSize()
	if deltaPages == 0 {
		return current, true
	}
	newPages := uint64(current) + uint64(deltaPages)
	if newPages > uint64(m.Max) || newPages > MemoryLimitPages {
		return 0, false
	}

	newLen := newPages * MemoryPageSize
	switch m.Style {
	case MemoryStyleStatic:
		if newPages > uint64(m.Cap) {
			return 0, false // should not happen: Cap was reserved to Max.
		}
		backing := m.Buffer[:cap(m.Buffer)]
		m.Buffer = backing[:newLen]
	case MemoryStyleDynamic:
		newBuf := make([]byte, newLen)
		copy(newBuf, m.Buffer)
		m.Buffer = newBuf
		m.Cap = uint32(newPages)
	}
	return current, true
}

// boundsCheck reports whether a byteCount access at offset stays within the
// currently visible buffer (Testable Property 5: no silent wrap, no
// off-by-one at the exact boundary).
func (m *MemoryInstance) boundsCheck(offset uint32, byteCount uint32) bool {
	end := uint64(offset) + uint64(byteCount)
	return end <= uint64(len(m.Buffer))
}

// Read returns a copy of byteCount bytes starting at offset, or false if the
// access is out of bounds.
func (m *MemoryInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.boundsCheck(offset, byteCount) {
		return nil, false
	}
	out := make([]byte, byteCount)
	copy(out, m.Buffer[offset:offset+byteCount])
	return out, true
}

// Write copies v into the memory at offset, or returns false if out of bounds.
func (m *MemoryInstance) Write(offset uint32, v []byte) bool {
	if !m.boundsCheck(offset, uint32(len(v))) {
		return false
	}
	copy(m.Buffer[offset:], v)
	return true
}

// ReadUint32Le reads a little-endian uint32 at offset.
func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.boundsCheck(offset, 4) {
		return 0, false
	}
	b := m.Buffer[offset : offset+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

// WriteUint32Le writes a little-endian uint32 at offset.
func (m *MemoryInstance) WriteUint32Le(offset, v uint32) bool {
	if !m.boundsCheck(offset, 4) {
		return false
	}
	b := m.Buffer[offset : offset+4]
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return true
}

// ReadUint64Le reads a little-endian uint64 at offset.
func (m *MemoryInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	lo, ok := m.ReadUint32Le(offset)
	if !ok {
		return 0, false
	}
	hi, ok := m.ReadUint32Le(offset + 4)
	if !ok {
		return 0, false
	}
	return uint64(lo) | uint64(hi)<<32, true
}

// WriteUint64Le writes a little-endian uint64 at offset.
func (m *MemoryInstance) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.WriteUint32Le(offset, uint32(v)) {
		return false
	}
	return m.WriteUint32Le(offset+4, uint32(v>>32))
}

// Size implements api.Memory.
func (d *MemoryDefinition) Size() uint32 { return d.mem.PageSize() }

// Grow implements api.Memory.
func (d *MemoryDefinition) Grow(deltaPages uint32) (uint32, bool) { return d.mem.Grow(deltaPages) }

// Read implements api.Memory.
func (d *MemoryDefinition) Read(offset, byteCount uint32) ([]byte, bool) {
	return d.mem.Read(offset, byteCount)
}

// Write implements api.Memory.
func (d *MemoryDefinition) Write(offset uint32, v []byte) bool { return d.mem.Write(offset, v) }

// ReadUint32Le implements api.Memory.
func (d *MemoryDefinition) ReadUint32Le(offset uint32) (uint32, bool) {
	return d.mem.ReadUint32Le(offset)
}

// WriteUint32Le implements api.Memory.
func (d *MemoryDefinition) WriteUint32Le(offset, v uint32) bool {
	return d.mem.WriteUint32Le(offset, v)
}

// ReadUint64Le implements api.Memory.
func (d *MemoryDefinition) ReadUint64Le(offset uint32) (uint64, bool) {
	return d.mem.ReadUint64Le(offset)
}

// WriteUint64Le implements api.Memory.
func (d *MemoryDefinition) WriteUint64Le(offset uint32, v uint64) bool {
	return d.mem.WriteUint64Le(offset, v)
}

// Validate checks ty's min/max against the engine's hard page limit.
func (ty *MemoryType) Validate() error {
	if ty.Min > MemoryLimitPages {
		return wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess
	}
	if ty.Max != nil && (*ty.Max > MemoryLimitPages || *ty.Max < ty.Min) {
		return &rangeError{"memory max must be >= min and <= platform limit"}
	}
	return nil
}

type rangeError struct{ msg string }

func (e *rangeError) Error() string { return e.msg }
