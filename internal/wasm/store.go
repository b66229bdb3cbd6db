package wasm

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// Store is spec.md's Namespace: the set of named ModuleInstances available
// for import resolution, plus the compile-time Engine used to turn a
// validated Module into runnable code. Mirrors the teacher's Store/Namespace
// split (internal/wasm Store.Instantiate calling into a wasm.Engine).
type Store struct {
	mu      sync.RWMutex
	modules map[string]*ModuleInstance
	Engine  Engine
	Features Features
}

// Engine is the compile-time boundary internal/wasm calls through to turn a
// validated Module into invocable native code, implemented by
// internal/engine/compiler. Kept as an interface here (rather than an
// import cycle) exactly as the teacher separates internal/wasm from
// internal/engine/{compiler,interpreter}.
type Engine interface {
	// CompileModule lowers every function body in m to native code, caching
	// the result against m's identity so repeated Instantiate calls for the
	// same compiled Module reuse it.
	CompileModule(m *Module) error
	// NewModuleEngine binds already-compiled code to a freshly created
	// ModuleInstance's function table, returning the per-instance call
	// surface.
	NewModuleEngine(m *Module, instance *ModuleInstance) (ModuleEngine, error)
	// ReleaseCompilationCache drops any cached compiled code for m.
	ReleaseCompilationCache(m *Module)
}

// ModuleEngine is the per-instance call surface an Engine hands back:
// invoking function index idx with already-api-encoded params.
type ModuleEngine interface {
	Call(idx Index, params []uint64) ([]uint64, error)
}

// NewStore constructs an empty Store bound to engine, validating features
// against engine-independent defaults.
func NewStore(engine Engine, features Features) *Store {
	return &Store{modules: map[string]*ModuleInstance{}, Engine: engine, Features: features}
}

// Module returns the previously instantiated module registered under name,
// or nil.
func (s *Store) Module(name string) *ModuleInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[name]
}

// Close closes every module currently registered in the Store and drops
// the Store's own reference to them. Compiled code stays cached in the
// Engine; Close does not call Engine.ReleaseCompilationCache.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	modules := s.modules
	s.modules = map[string]*ModuleInstance{}
	s.mu.Unlock()

	var firstErr error
	for _, m := range modules {
		if err := m.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// resolvedImport is one import slot, bound to the concrete runtime value it
// refers to in another already-instantiated module.
type resolvedImport struct {
	fn     *FunctionInstance
	table  *TableInstance
	memory *MemoryInstance
	global *GlobalInstance
}

// Instantiate implements spec.md §4.I: resolve every Import against modules
// already registered in the Store, build fresh Memory/Table/Global
// instances for anything the module defines itself, evaluate data/element
// segment offsets, validate all of them fit before mutating anything
// (two-phase validate-then-apply, Testable Property: instantiation is
// all-or-nothing), then hand the assembled ModuleInstance to the Engine to
// bind compiled code.
func (s *Store) Instantiate(m *Module, name string) (*ModuleInstance, error) {
	if name == "" {
		name = m.Name
	}

	imports, err := s.resolveImports(m)
	if err != nil {
		return nil, fmt.Errorf("wasm: resolving imports for %q: %w", name, err)
	}

	instance := &ModuleInstance{ModuleName: name, Exports: map[string]*Export{}}

	// Types: addressed by index from call_indirect's static type check
	// (internal/engine/compiler resolves the callee's declared signature
	// through here rather than walking the Module directly).
	instance.Types = make([]*FunctionType, len(m.TypeSection))
	for i := range m.TypeSection {
		instance.Types[i] = &m.TypeSection[i]
	}

	// Functions: imported first (indices 0..ImportFunctionCount-1), then
	// locally defined, matching the WebAssembly index-space layout rule.
	instance.Functions = make([]*FunctionInstance, 0, int(m.ImportFunctionCount)+len(m.CodeSection))
	for _, imp := range imports {
		if imp.fn != nil {
			instance.Functions = append(instance.Functions, imp.fn)
		}
	}
	for i := range m.CodeSection {
		idx := m.ImportFunctionCount + Index(i)
		ft := m.TypeOfFunction(idx)
		instance.Functions = append(instance.Functions, &FunctionInstance{
			Type:  ft,
			Owner: instance,
			Name:  m.FunctionNames[idx],
			Index: idx,
			Body:  nil, // left nil; calls go through the bound ModuleEngine.
		})
	}

	// Memory: at most one, imported or locally defined (WebAssembly 1.0).
	for _, imp := range imports {
		if imp.memory != nil {
			instance.Mem = imp.memory
		}
	}
	if instance.Mem == nil && len(m.MemorySection) > 0 {
		instance.Mem = NewMemoryInstance(&m.MemorySection[0])
	}

	// Tables.
	instance.Tables = make([]*TableInstance, 0, len(m.TableSection))
	for _, imp := range imports {
		if imp.table != nil {
			instance.Tables = append(instance.Tables, imp.table)
		}
	}
	for i := range m.TableSection {
		instance.Tables = append(instance.Tables, NewTableInstance(&m.TableSection[i]))
	}

	// Globals: imported ones first, then locally defined ones initialized
	// by evaluating their constant expression (which may itself reference
	// an imported global, per spec).
	instance.Globals = make([]*GlobalInstance, 0, len(m.GlobalSection))
	for _, imp := range imports {
		if imp.global != nil {
			instance.Globals = append(instance.Globals, imp.global)
		}
	}
	for _, g := range m.GlobalSection {
		init, err := evalConstExpr(&g.Init, instance)
		if err != nil {
			return nil, fmt.Errorf("wasm: evaluating global initializer: %w", err)
		}
		instance.Globals = append(instance.Globals, NewGlobalInstance(g.Type, init))
	}

	// Exports.
	for _, exp := range m.ExportSection {
		instance.Exports[exp.Name] = exp
	}

	// Two-phase validate-then-apply for data/element segments: compute and
	// bounds-check every segment's destination range before writing any of
	// them, so a later segment's failure never leaves an earlier one
	// partially applied.
	type pendingData struct {
		offset uint32
		init   []byte
	}
	pendingDatas := make([]pendingData, 0, len(m.DataSection))
	for _, d := range m.DataSection {
		if d.OffsetExpr == nil { // passive: not copied at instantiation
			continue
		}
		offset, err := evalConstExpr(d.OffsetExpr, instance)
		if err != nil {
			return nil, fmt.Errorf("wasm: evaluating data offset: %w", err)
		}
		mem := instance.Mem
		if mem == nil {
			return nil, fmt.Errorf("wasm: data segment targets module with no memory")
		}
		if !mem.boundsCheck(uint32(offset), uint32(len(d.Init))) {
			return nil, fmt.Errorf("wasm: data segment out of bounds")
		}
		pendingDatas = append(pendingDatas, pendingData{uint32(offset), d.Init})
	}

	type pendingElem struct {
		table  *TableInstance
		offset uint32
		refs   []Reference
	}
	pendingElems := make([]pendingElem, 0, len(m.ElementSection))
	for _, e := range m.ElementSection {
		if e.OffsetExpr == nil { // passive: not copied at instantiation
			continue
		}
		offset, err := evalConstExpr(e.OffsetExpr, instance)
		if err != nil {
			return nil, fmt.Errorf("wasm: evaluating element offset: %w", err)
		}
		if int(e.TableIndex) >= len(instance.Tables) {
			return nil, fmt.Errorf("wasm: element segment targets unknown table %d", e.TableIndex)
		}
		table := instance.Tables[e.TableIndex]
		refs := make([]Reference, len(e.Init))
		for i, ce := range e.Init {
			r, err := evalConstExpr(&ce, instance)
			if err != nil {
				return nil, fmt.Errorf("wasm: evaluating element entry: %w", err)
			}
			refs[i] = Reference(r)
		}
		end := uint64(offset) + uint64(len(refs))
		if end > uint64(table.Len()) {
			return nil, fmt.Errorf("wasm: element segment out of bounds")
		}
		pendingElems = append(pendingElems, pendingElem{table, uint32(offset), refs})
	}

	// Apply: everything above has already been validated, so these cannot
	// fail.
	for _, d := range pendingDatas {
		instance.Mem.Write(d.offset, d.init)
	}
	for _, e := range pendingElems {
		for i, r := range e.refs {
			_ = e.table.Set(e.offset+uint32(i), r)
		}
	}

	if err := s.Engine.CompileModule(m); err != nil {
		return nil, fmt.Errorf("wasm: compiling %q: %w", name, err)
	}
	moduleEngine, err := s.Engine.NewModuleEngine(m, instance)
	if err != nil {
		return nil, fmt.Errorf("wasm: binding compiled code for %q: %w", name, err)
	}
	instance.moduleEngine = moduleEngine

	if m.StartFunction != nil {
		if _, err := moduleEngine.Call(*m.StartFunction, nil); err != nil {
			return nil, fmt.Errorf("wasm: start function trapped: %w", err)
		}
	}

	s.mu.Lock()
	s.modules[name] = instance
	s.mu.Unlock()

	return instance, nil
}

// RegisterHostModule makes instance's exports resolvable as imports by
// name under instance.ModuleName, without going through CompileModule/
// Instantiate -- host modules have no WebAssembly bytecode to translate,
// only Go functions already satisfying api.GoFunction/api.GoModuleFunction.
func (s *Store) RegisterHostModule(instance *ModuleInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[instance.ModuleName] = instance
}

// resolveImports looks up every Import in m against already-registered
// Store modules by (Module, Name), failing fast if anything is missing or
// type-mismatched.
func (s *Store) resolveImports(m *Module) ([]resolvedImport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]resolvedImport, 0, len(m.ImportSection))
	for _, imp := range m.ImportSection {
		src, ok := s.modules[imp.Module]
		if !ok {
			return nil, fmt.Errorf("module %q not instantiated (needed by import %q.%q)", imp.Module, imp.Module, imp.Name)
		}
		exp, ok := src.Exports[imp.Name]
		if !ok || exp.Type != imp.Type {
			return nil, fmt.Errorf("import %q.%q: no matching export", imp.Module, imp.Name)
		}
		var r resolvedImport
		switch imp.Type {
		case ExternTypeFunc:
			r.fn = src.Functions[exp.Index]
			if r.fn.Type.key() != m.TypeOfFunction(imp.DescFunc).key() {
				return nil, fmt.Errorf("import %q.%q: function signature mismatch", imp.Module, imp.Name)
			}
		case ExternTypeMemory:
			r.memory = src.Mem
		case ExternTypeTable:
			r.table = src.Tables[exp.Index]
		case ExternTypeGlobal:
			r.global = src.Globals[exp.Index]
		}
		out = append(out, r)
	}
	return out, nil
}

// evalConstExpr evaluates a constant initializer expression (i32.const,
// i64.const, f32.const, f64.const, global.get of an already-resolved
// imported global, ref.null, ref.func) against instance, returning the
// resulting 64-bit stack value. These are the only opcodes legal in a
// WebAssembly 1.0 constant expression.
func evalConstExpr(ce *ConstantExpression, instance *ModuleInstance) (uint64, error) {
	// ConstantExpression.Data always holds its operand as 8 bytes
	// little-endian, regardless of opcode (the module decoder widens i32/f32
	// operands to 64 bits on encode) -- this keeps every case here a single
	// fixed-width read instead of opcode-dependent width logic.
	var raw uint64
	if len(ce.Data) == 8 {
		raw = binary.LittleEndian.Uint64(ce.Data)
	}

	switch ce.Opcode {
	case OpcodeI32Const, OpcodeF32Const, OpcodeI64Const, OpcodeF64Const:
		return raw, nil
	case OpcodeGlobalGet:
		idx := Index(raw)
		if int(idx) >= len(instance.Globals) {
			return 0, fmt.Errorf("global.get %d: out of range in constant expression", idx)
		}
		return instance.Globals[idx].Get(), nil
	case OpcodeRefNull:
		return 0, nil
	case OpcodeRefFunc:
		idx := Index(raw)
		if int(idx) >= len(instance.Functions) {
			return 0, fmt.Errorf("ref.func %d: out of range in constant expression", idx)
		}
		return uint64(idx), nil
	default:
		return 0, fmt.Errorf("opcode %#x is not valid in a constant expression", ce.Opcode)
	}
}
