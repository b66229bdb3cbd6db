package wasmruntime

import "sync"

// codeRange records one registered [start, end) address span of compiled
// code and the name of the module it belongs to. It carries no TrapCode.
type codeRange struct {
	start, end uintptr
	moduleName string
}

var (
	registryMu sync.RWMutex
	registry   []codeRange
)

// RegisterCodeRange records a freshly mmap'd address span of compiled code
// and its module name, so the signal handler's report can list that module;
// the handler still exits the process. Called by
// internal/engine/compiler once platform.MmapCodeSegment returns.
func RegisterCodeRange(start, end uintptr, moduleName string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, codeRange{start, end, moduleName})
}

// UnregisterCodeRange removes a range when its code.codeSegment is
// finalized (munmap'd), so the handler never attributes a fault to
// unmapped memory.
func UnregisterCodeRange(start uintptr) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, r := range registry {
		if r.start == start {
			registry = append(registry[:i], registry[i+1:]...)
			return
		}
	}
}

// lookupCodeRange reports whether pc falls inside a registered compiled
// function, and if so which module it belongs to.
func lookupCodeRange(pc uintptr) (moduleName string, ok bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, r := range registry {
		if pc >= r.start && pc < r.end {
			return r.moduleName, true
		}
	}
	return "", false
}

// registeredModuleNames lists the distinct modules with compiled code
// currently mmap'd, for the signal handler's crash diagnostics: it has no
// faulting PC to pin down the exact function (see sigtrap_unix.go), only
// the set of modules that could plausibly be involved.
func registeredModuleNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	seen := make(map[string]bool, len(registry))
	names := make([]string, 0, len(registry))
	for _, r := range registry {
		if !seen[r.moduleName] {
			seen[r.moduleName] = true
			names = append(names, r.moduleName)
		}
	}
	return names
}
