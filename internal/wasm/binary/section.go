// Package binary decodes the WebAssembly binary format (spec.md §4.B,
// "Translator / validator") into an internal/wasm.Module. It never produces
// machine code itself -- function bodies are kept as raw byte ranges
// (wasm.Code.Body) until internal/wazeroir lowers them lazily.
package binary

// sectionID identifies one of the twelve standard WebAssembly module
// sections (plus custom sections, id 0, which may appear anywhere). The ids
// follow the required order of appearance except for the data count
// section (id 12), which must appear between the element and code sections.
type sectionID = byte

const (
	sectionIDCustom sectionID = iota
	sectionIDType
	sectionIDImport
	sectionIDFunction
	sectionIDTable
	sectionIDMemory
	sectionIDGlobal
	sectionIDExport
	sectionIDStart
	sectionIDElement
	sectionIDCode
	sectionIDData
	sectionIDDataCount
)

// Magic is the 4-byte WebAssembly binary header, "\0asm".
var Magic = [4]byte{0x00, 0x61, 0x73, 0x6d}

// Version is the only binary format version this decoder accepts (1).
var Version = [4]byte{0x01, 0x00, 0x00, 0x00}
