// Package version reports the build identity embedded in serialized
// artifacts, so a stale or foreign artifact never silently loads.
package version

// Version is overridden via -ldflags for release builds; "dev" otherwise.
var Version = "dev"

// EngineID identifies the concrete engine implementation (§6 engine_id
// field). Artifacts compiled by a different engine refuse to load.
const EngineID = "wasmer-core-compiler"

// GetVersion returns the current build version string.
func GetVersion() string {
	return Version
}
