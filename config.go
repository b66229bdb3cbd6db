package wasmer

import (
	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// RuntimeConfig configures a Runtime created by NewRuntimeWithConfig.
// Mirrors the teacher's own root config.go builder shape (immutable,
// With*-returns-a-copy), trimmed to this engine's scope: no WASI-oriented
// filesystem/stdio surface (Non-goal). Only enabledFeatures is read by the
// compile-and-execute core; the other two fields are stored and returned
// but nothing else reads them.
type RuntimeConfig struct {
	enabledFeatures     api.CoreFeatures
	memoryLimitPages    uint32
	closeOnContextDone  bool
}

// NewRuntimeConfig returns a RuntimeConfig with this engine's default
// feature set (CoreFeaturesV2-equivalent) and an unbounded memory limit.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		enabledFeatures:  api.CoreFeaturesV2,
		memoryLimitPages: wasm.MemoryLimitPages,
	}
}

// WithCoreFeatures overrides the WebAssembly proposal set this Runtime's
// modules are validated/compiled against.
func (c RuntimeConfig) WithCoreFeatures(features api.CoreFeatures) RuntimeConfig {
	c.enabledFeatures = features
	return c
}

// WithMemoryLimitPages records pages in the config. No other code reads the
// value, so it does not cap memory growth: a memory grows up to its declared
// max, or wasm.MemoryLimitPages when it declares none.
func (c RuntimeConfig) WithMemoryLimitPages(pages uint32) RuntimeConfig {
	c.memoryLimitPages = pages
	return c
}

// WithCloseOnContextDone records v in the config. No other code reads the
// setting: function calls do not observe ctx.Done(), and a cancelled
// context neither closes the module nor raises a trap.
func (c RuntimeConfig) WithCloseOnContextDone(v bool) RuntimeConfig {
	c.closeOnContextDone = v
	return c
}

// CloseOnContextDone reports the setting recorded by WithCloseOnContextDone;
// no api.Function implementation reads it.
func (c RuntimeConfig) CloseOnContextDone() bool { return c.closeOnContextDone }
