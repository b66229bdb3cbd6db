package wasmruntime

import "testing"

func TestCodeRangeRegistry(t *testing.T) {
	const start, end uintptr = 0x1000, 0x2000
	RegisterCodeRange(start, end, "mymodule")
	defer UnregisterCodeRange(start)

	if name, ok := lookupCodeRange(start); !ok || name != "mymodule" {
		t.Fatalf("lookupCodeRange(start) = %q, %v; want mymodule, true", name, ok)
	}
	if name, ok := lookupCodeRange(end - 1); !ok || name != "mymodule" {
		t.Fatalf("lookupCodeRange(end-1) = %q, %v; want mymodule, true", name, ok)
	}
	if _, ok := lookupCodeRange(end); ok {
		t.Fatal("lookupCodeRange(end) should be out of range (half-open interval)")
	}
	if _, ok := lookupCodeRange(start - 1); ok {
		t.Fatal("lookupCodeRange(start-1) should be before the registered range")
	}
}

func TestUnregisterCodeRangeRemovesEntry(t *testing.T) {
	const start, end uintptr = 0x3000, 0x4000
	RegisterCodeRange(start, end, "other")
	UnregisterCodeRange(start)

	if _, ok := lookupCodeRange(start); ok {
		t.Fatal("lookupCodeRange should fail after UnregisterCodeRange")
	}
}
