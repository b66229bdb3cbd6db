package wasmer

import (
	"context"

	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// HostFunctionBuilder defines one Go-backed function before it is exported
// into a HostModuleBuilder. Mirrors the teacher's own root builder.go
// interface shape, trimmed to the two function kinds this engine's
// FunctionInstance actually dispatches (api.GoFunction / api.GoModuleFunction).
type HostFunctionBuilder interface {
	WithGoFunction(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder
	WithGoModuleFunction(fn api.GoModuleFunction, params, results []api.ValueType) HostFunctionBuilder
	WithName(name string) HostFunctionBuilder
	Export(name string) HostModuleBuilder
}

// HostModuleBuilder accumulates host functions for one module name, then
// Instantiate binds them into a Runtime so WebAssembly modules can import
// them.
type HostModuleBuilder interface {
	NewFunctionBuilder() HostFunctionBuilder
	Instantiate(ctx context.Context) (api.Module, error)
}

type hostModuleBuilder struct {
	r          *Runtime
	moduleName string
	funcs      []*wasm.FunctionInstance
}

// NewHostModuleBuilder starts building a host module named moduleName.
func (r *Runtime) NewHostModuleBuilder(moduleName string) HostModuleBuilder {
	return &hostModuleBuilder{r: r, moduleName: moduleName}
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{b: b}
}

// Instantiate registers every function accumulated via NewFunctionBuilder
// as instance-scope exports and binds the instance into the Runtime's
// Store so other modules can import from moduleName.
func (b *hostModuleBuilder) Instantiate(context.Context) (api.Module, error) {
	instance := &wasm.ModuleInstance{
		ModuleName: b.moduleName,
		Exports:    map[string]*wasm.Export{},
	}
	for i, fn := range b.funcs {
		fn.Owner = instance
		fn.Index = wasm.Index(i)
		instance.Functions = append(instance.Functions, fn)
		if fn.IsExport {
			instance.Exports[fn.ExportName] = &wasm.Export{Name: fn.ExportName, Type: wasm.ExternTypeFunc, Index: fn.Index}
		}
	}
	b.r.store.RegisterHostModule(instance)
	return instance, nil
}

type hostFunctionBuilder struct {
	b       *hostModuleBuilder
	name    string
	goFunc  api.GoFunction
	goMod   api.GoModuleFunction
	params  []api.ValueType
	results []api.ValueType
}

func (h *hostFunctionBuilder) WithGoFunction(fn api.GoFunction, params, results []api.ValueType) HostFunctionBuilder {
	h.goFunc, h.params, h.results = fn, params, results
	return h
}

func (h *hostFunctionBuilder) WithGoModuleFunction(fn api.GoModuleFunction, params, results []api.ValueType) HostFunctionBuilder {
	h.goMod, h.params, h.results = fn, params, results
	return h
}

func (h *hostFunctionBuilder) WithName(name string) HostFunctionBuilder {
	h.name = name
	return h
}

// Export finalizes this function under exportName and adds it to the
// HostModuleBuilder that created it, returning that builder so further
// functions can be chained.
func (h *hostFunctionBuilder) Export(exportName string) HostModuleBuilder {
	fn := &wasm.FunctionInstance{
		Type:         &wasm.FunctionType{Params: h.params, Results: h.results},
		Name:         h.name,
		IsHostFunc:   true,
		GoFunc:       h.goFunc,
		GoModuleFunc: h.goMod,
		ImportModule: h.b.moduleName,
		ImportName:   exportName,
		IsImport:     true,
		ExportName:   exportName,
		IsExport:     true,
	}
	h.b.funcs = append(h.b.funcs, fn)
	return h.b
}
