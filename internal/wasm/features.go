package wasm

import "github.com/wasmerio/wasmer-core/api"

// Features is an alias kept distinct from api.CoreFeatures so validation
// code in this package reads naturally; the two are bit-compatible.
type Features = api.CoreFeatures

// RequireEnabled returns an error naming the missing feature if f is not
// enabled in enabled, following spec.md §4.B's "reject any feature not
// enabled" validation rule.
func RequireEnabled(enabled Features, f Features, name string) error {
	if !enabled.IsEnabled(f) {
		return &FeatureError{Feature: name}
	}
	return nil
}

// FeatureError reports that a module used a proposal not enabled for this
// compilation (spec.md CompileError.UnsupportedFeature).
type FeatureError struct {
	Feature string
}

func (e *FeatureError) Error() string {
	return "feature " + e.Feature + " is disabled, and is required to compile this module"
}
