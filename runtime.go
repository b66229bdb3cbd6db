// Package wasmer is the embedding API: CompileModule to validate and
// translate a WebAssembly binary, InstantiateModule to link and run one.
// Mirrors the teacher's own root wazero package surface (Runtime,
// CompiledModule, Module), trimmed to the sys-compiler backend and the
// Non-goals this engine carries (no WASI, no multiple embedder adapters).
package wasmer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/engine/compiler"
	"github.com/wasmerio/wasmer-core/internal/wasm"
	"github.com/wasmerio/wasmer-core/internal/wasm/binary"
)

// Runtime is a Store plus the configuration it was created with. One
// Runtime can compile and instantiate many modules; modules instantiated
// from the same Runtime can import each other.
type Runtime struct {
	store  *wasm.Store
	config RuntimeConfig
}

// NewRuntime returns a Runtime with the default RuntimeConfig.
func NewRuntime(ctx context.Context) *Runtime {
	return NewRuntimeWithConfig(ctx, NewRuntimeConfig())
}

// NewRuntimeWithConfig returns a Runtime configured per config.
func NewRuntimeWithConfig(_ context.Context, config RuntimeConfig) *Runtime {
	engine := compiler.NewEngine()
	return &Runtime{store: wasm.NewStore(engine, config.enabledFeatures), config: config}
}

// CompiledModule is a validated, translated, and machine-code-compiled
// module ready to be instantiated any number of times.
type CompiledModule struct {
	module *wasm.Module
}

// CompileModule parses and validates the WebAssembly binary in source,
// lowers every function body, and compiles it to native code. The result
// can be instantiated repeatedly without repeating that work (spec.md
// §4.E caches by content hash across CompileModule calls sharing a
// Runtime's engine).
func (r *Runtime) CompileModule(_ context.Context, source []byte) (*CompiledModule, error) {
	m, err := binary.DecodeModule(source, r.config.enabledFeatures)
	if err != nil {
		return nil, fmt.Errorf("wasmer: decoding module: %w", err)
	}
	if err := r.store.Engine.CompileModule(m); err != nil {
		return nil, fmt.Errorf("wasmer: compiling module: %w", err)
	}
	return &CompiledModule{module: m}, nil
}

// InstantiateModule links compiled against name and the Runtime's already
// -instantiated modules, evaluates globals and active segments, runs the
// start function if any, and returns the running Module.
func (r *Runtime) InstantiateModule(_ context.Context, compiled *CompiledModule, name string) (api.Module, error) {
	instance, err := r.store.Instantiate(compiled.module, name)
	if err != nil {
		return nil, fmt.Errorf("wasmer: instantiating module %q: %w", name, err)
	}
	return instance, nil
}

// Close releases every module this Runtime has instantiated; the engine's
// compiled-code cache is not released. Safe to call more than once.
func (r *Runtime) Close(ctx context.Context) error {
	return r.store.Close(ctx)
}

// hostTriple identifies the platform a compiled artifact targets (spec.md
// §6 host_triple field); artifacts compiled for a different triple refuse
// to load.
func hostTriple() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
