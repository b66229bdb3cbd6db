package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/wasmerio/wasmer-core/api"
)

// ErrModuleClosed is returned by any call against a ModuleInstance after
// Close has run.
var ErrModuleClosed = errors.New("wasm: module closed")

// ModuleInstance is spec.md's Instance: the runtime materialization of a
// compiled Module plus its resolved imports, matching the teacher's
// internal/wasm.ModuleInstance layout. Emitted machine code reads none of
// these fields; internal/engine/compiler's Go-side dispatch reads the
// Functions, Tables and Mem fields.
type ModuleInstance struct {
	ModuleName string

	Types     []*FunctionType
	Functions []*FunctionInstance
	Mem       *MemoryInstance
	Tables    []*TableInstance
	Globals   []*GlobalInstance

	Exports map[string]*Export

	closed bool

	// moduleEngine is the Engine's per-instance call surface, bound once
	// compiled code is linked in Store.Instantiate; exported functions
	// dispatch Call through it.
	moduleEngine ModuleEngine
}

// CallFunction invokes the locally defined or imported function at idx
// through the bound ModuleEngine, used by the start function and by
// FunctionInstance.Call for non-host functions.
func (m *ModuleInstance) CallFunction(idx Index, params []uint64) ([]uint64, error) {
	if m.closed {
		return nil, ErrModuleClosed
	}
	if m.moduleEngine == nil {
		return nil, fmt.Errorf("wasm: module %q has no bound engine", m.ModuleName)
	}
	return m.moduleEngine.Call(idx, params)
}

// FunctionInstance is a function as seen at runtime: either defined locally
// (backed by compiler-produced native code reached through Owner's
// ModuleEngine) or imported
// (IsHostFunc true, satisfying api.GoFunction/api.GoModuleFunction).
type FunctionInstance struct {
	Type          *FunctionType
	Owner         *ModuleInstance
	Name          string
	Index         Index
	IsHostFunc    bool
	GoFunc        api.GoFunction
	GoModuleFunc  api.GoModuleFunction
	ImportModule  string
	ImportName    string
	IsImport      bool
	ExportName    string
	IsExport      bool
	// Body is never set by Store.Instantiate or internal/engine/compiler
	// and stays nil; compiled code is reached through Owner's ModuleEngine.
	Body []byte
}

// Definition implements api.Function (the metadata half).
func (f *FunctionInstance) Definition() api.FunctionDefinition { return &functionDefinition{f} }

type functionDefinition struct{ f *FunctionInstance }

func (d *functionDefinition) ModuleName() string      { return d.f.Owner.ModuleName }
func (d *functionDefinition) Name() string             { return d.f.Name }
func (d *functionDefinition) DebugName() string {
	if d.f.Name != "" {
		return d.f.Owner.ModuleName + "." + d.f.Name
	}
	return fmt.Sprintf("%s.$%d", d.f.Owner.ModuleName, d.f.Index)
}
func (d *functionDefinition) ParamTypes() []ValueType  { return d.f.Type.Params }
func (d *functionDefinition) ResultTypes() []ValueType { return d.f.Type.Results }
func (d *functionDefinition) Import() (string, string, bool) {
	return d.f.ImportModule, d.f.ImportName, d.f.IsImport
}
func (d *functionDefinition) Export() (string, bool) { return d.f.ExportName, d.f.IsExport }

// Call implements api.Function. A host-defined function runs directly on a
// stack large enough for its params and its results; a locally defined
// (compiled) function is invoked through Owner.CallFunction, which hands it
// to the bound ModuleEngine.
func (f *FunctionInstance) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if f.Owner.closed {
		return nil, ErrModuleClosed
	}
	if !f.IsHostFunc {
		return f.Owner.CallFunction(f.Index, params)
	}
	n := len(params)
	if r := len(f.Type.Results); r > n {
		n = r
	}
	stack := make([]uint64, n)
	copy(stack, params)
	if f.GoModuleFunc != nil {
		f.GoModuleFunc.Call(ctx, f.Owner, stack)
	} else {
		f.GoFunc.Call(ctx, stack)
	}
	return stack[:len(f.Type.Results)], nil
}

// Name implements api.Module.
func (m *ModuleInstance) Name() string { return m.ModuleName }

// Memory implements api.Module: WebAssembly 1.0 allows at most one memory.
func (m *ModuleInstance) Memory() api.Memory {
	if m.Mem == nil {
		return nil
	}
	return m.Mem.Definition()
}

// Close implements api.Module. Marks the instance unusable; subsequent calls
// to any of its exported functions return ErrModuleClosed. Memory/table
// backing arrays are left for the GC to reclaim (no explicit munmap here --
// that only applies to compiled code segments, released by the owning
// engine.Close).
func (m *ModuleInstance) Close(context.Context) error {
	m.closed = true
	return nil
}

// ExportedFunction looks up a function export by name.
func (m *ModuleInstance) ExportedFunction(name string) api.Function {
	exp, ok := m.Exports[name]
	if !ok || exp.Type != ExternTypeFunc {
		return nil
	}
	return m.Functions[exp.Index]
}

// ExportedMemory looks up the memory export by name.
func (m *ModuleInstance) ExportedMemory(name string) api.Memory {
	exp, ok := m.Exports[name]
	if !ok || exp.Type != ExternTypeMemory || m.Mem == nil {
		return nil
	}
	return m.Mem.Definition()
}
