package binary

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wasmerio/wasmer-core/internal/leb128"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

// DecodeModule parses the WebAssembly binary format in data into a
// wasm.Module, gating any section that uses a disabled proposal behind
// enabledFeatures (spec.md §4.B: "reject any feature not enabled").
func DecodeModule(data []byte, enabledFeatures wasm.Features) (*wasm.Module, error) {
	r := bytes.NewReader(data)

	var magic, version [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("binary: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("binary: invalid magic header")
	}
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, fmt.Errorf("binary: reading version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("binary: unsupported version %v", version)
	}

	m := &wasm.Module{
		ExportSection:   map[string]*wasm.Export{},
		FunctionNames:   map[wasm.Index]string{},
		EnabledFeatures: enabledFeatures,
	}

	lastNonCustomRank := 0
	for {
		id, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("binary: reading section id: %w", err)
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("binary: reading section %d size: %w", id, err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("binary: reading section %d body: %w", id, err)
		}
		sr := bytes.NewReader(body)

		if id != sectionIDCustom {
			// Order is compared on a rank so the data count section can sit
			// between the element and code sections.
			rank := int(id) * 2
			if id == sectionIDDataCount {
				rank = int(sectionIDElement)*2 + 1
			}
			if rank <= lastNonCustomRank {
				return nil, fmt.Errorf("binary: section %d out of order", id)
			}
			lastNonCustomRank = rank
		}

		switch id {
		case sectionIDCustom:
			if err := decodeCustomSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDType:
			if err := decodeTypeSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDImport:
			if err := decodeImportSection(sr, m, enabledFeatures); err != nil {
				return nil, err
			}
		case sectionIDFunction:
			if err := decodeFunctionSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDTable:
			if err := decodeTableSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDMemory:
			if err := decodeMemorySection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDGlobal:
			if err := decodeGlobalSection(sr, m, enabledFeatures); err != nil {
				return nil, err
			}
		case sectionIDExport:
			if err := decodeExportSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDStart:
			idx, _, err := leb128.DecodeUint32(sr)
			if err != nil {
				return nil, fmt.Errorf("binary: start section: %w", err)
			}
			m.StartFunction = &idx
		case sectionIDElement:
			if err := decodeElementSection(sr, m, enabledFeatures); err != nil {
				return nil, err
			}
		case sectionIDCode:
			if err := decodeCodeSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDData:
			if err := decodeDataSection(sr, m); err != nil {
				return nil, err
			}
		case sectionIDDataCount:
			count, _, err := leb128.DecodeUint32(sr)
			if err != nil {
				return nil, fmt.Errorf("binary: data count section: %w", err)
			}
			m.DataCountSection = &count
		default:
			return nil, fmt.Errorf("binary: unknown section id %d", id)
		}
	}

	for i := range m.TypeSection {
		m.TypeSection[i].CacheNumInUint64()
	}
	m.ID = wasm.ModuleID(md5.Sum(data))

	return m, nil
}

func decodeValueType(r io.ByteReader) (wasm.ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x7f: // i32
		return wasm.ValueTypeI32, nil
	case 0x7e: // i64
		return wasm.ValueTypeI64, nil
	case 0x7d: // f32
		return wasm.ValueTypeF32, nil
	case 0x7c: // f64
		return wasm.ValueTypeF64, nil
	case 0x70: // funcref
		return wasm.ValueTypeFuncref, nil
	case 0x6f: // externref
		return wasm.ValueTypeExternref, nil
	default:
		return 0, fmt.Errorf("binary: invalid value type byte %#x", b)
	}
}

func decodeName(r io.Reader) (string, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		return "", fmt.Errorf("binary: reader does not support ReadByte")
	}
	n, _, err := leb128.DecodeUint32(br)
	if err != nil {
		return "", fmt.Errorf("binary: reading name length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("binary: reading name bytes: %w", err)
	}
	return string(buf), nil
}

func decodeLimits(r io.ByteReader) (min uint32, max *uint32, shared bool, err error) {
	flag, err := r.ReadByte()
	if err != nil {
		return 0, nil, false, err
	}
	min, _, err = leb128.DecodeUint32(r)
	if err != nil {
		return 0, nil, false, err
	}
	if flag&0x01 != 0 {
		v, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return 0, nil, false, err
		}
		max = &v
	}
	shared = flag&0x02 != 0
	return min, max, shared, nil
}

// littleEndian8 encodes v as 8 bytes little-endian, the fixed form
// wasm.ConstantExpression.Data always stores, per the
// convention documented in internal/wasm/store.go's evalConstExpr.
func littleEndian8(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
