package binary

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wasmerio/wasmer-core/internal/leb128"
	"github.com/wasmerio/wasmer-core/internal/wasm"
)

func decodeTypeSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: type section count: %w", err)
	}
	m.TypeSection = make([]wasm.FunctionType, count)
	for i := uint32(0); i < count; i++ {
		b, err := r.ReadByte()
		if err != nil || b != 0x60 {
			return fmt.Errorf("binary: type %d: expected func type tag 0x60", i)
		}
		numParams, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: type %d: param count: %w", i, err)
		}
		params := make([]wasm.ValueType, numParams)
		for j := range params {
			if params[j], err = decodeValueType(r); err != nil {
				return fmt.Errorf("binary: type %d: param %d: %w", i, j, err)
			}
		}
		numResults, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: type %d: result count: %w", i, err)
		}
		results := make([]wasm.ValueType, numResults)
		for j := range results {
			if results[j], err = decodeValueType(r); err != nil {
				return fmt.Errorf("binary: type %d: result %d: %w", i, j, err)
			}
		}
		m.TypeSection[i] = wasm.FunctionType{Params: params, Results: results}
	}
	return nil
}

func decodeImportSection(r *bytes.Reader, m *wasm.Module, _ wasm.Features) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: import section count: %w", err)
	}
	m.ImportSection = make([]wasm.Import, count)
	for i := uint32(0); i < count; i++ {
		mod, err := decodeName(r)
		if err != nil {
			return fmt.Errorf("binary: import %d: module name: %w", i, err)
		}
		name, err := decodeName(r)
		if err != nil {
			return fmt.Errorf("binary: import %d: field name: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("binary: import %d: kind: %w", i, err)
		}
		imp := wasm.Import{Module: mod, Name: name}
		switch kind {
		case 0x00:
			imp.Type = wasm.ExternTypeFunc
			imp.DescFunc, _, err = leb128.DecodeUint32(r)
		case 0x01:
			imp.Type = wasm.ExternTypeTable
			var elem wasm.ValueType
			elem, err = decodeValueType(r)
			imp.DescTable.ElemType = elem
			if err == nil {
				imp.DescTable.Min, imp.DescTable.Max, _, err = decodeLimits(r)
			}
		case 0x02:
			imp.Type = wasm.ExternTypeMemory
			imp.DescMem.Min, imp.DescMem.Max, imp.DescMem.Shared, err = decodeLimits(r)
		case 0x03:
			imp.Type = wasm.ExternTypeGlobal
			imp.DescGlobal.ValType, err = decodeValueType(r)
			if err == nil {
				var mut byte
				mut, err = r.ReadByte()
				imp.DescGlobal.Mutable = mut == 1
			}
		default:
			return fmt.Errorf("binary: import %d: unknown kind %#x", i, kind)
		}
		if err != nil {
			return fmt.Errorf("binary: import %d: %w", i, err)
		}
		m.ImportSection[i] = imp
		switch imp.Type {
		case wasm.ExternTypeFunc:
			m.ImportFunctionCount++
		case wasm.ExternTypeTable:
			m.ImportTableCount++
		case wasm.ExternTypeMemory:
			m.ImportMemoryCount++
		case wasm.ExternTypeGlobal:
			m.ImportGlobalCount++
		}
	}
	return nil
}

func decodeFunctionSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: function section count: %w", err)
	}
	m.FunctionSection = make([]wasm.Index, count)
	for i := range m.FunctionSection {
		m.FunctionSection[i], _, err = leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: function section %d: %w", i, err)
		}
	}
	return nil
}

func decodeTableSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: table section count: %w", err)
	}
	m.TableSection = make([]wasm.TableType, count)
	for i := range m.TableSection {
		elem, err := decodeValueType(r)
		if err != nil {
			return fmt.Errorf("binary: table %d: elem type: %w", i, err)
		}
		min, max, _, err := decodeLimits(r)
		if err != nil {
			return fmt.Errorf("binary: table %d: limits: %w", i, err)
		}
		m.TableSection[i] = wasm.TableType{ElemType: elem, Min: min, Max: max}
	}
	return nil
}

func decodeMemorySection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: memory section count: %w", err)
	}
	m.MemorySection = make([]wasm.MemoryType, count)
	for i := range m.MemorySection {
		min, max, shared, err := decodeLimits(r)
		if err != nil {
			return fmt.Errorf("binary: memory %d: limits: %w", i, err)
		}
		m.MemorySection[i] = wasm.MemoryType{Min: min, Max: max, Shared: shared}
		if err := m.MemorySection[i].Validate(); err != nil {
			return fmt.Errorf("binary: memory %d: %w", i, err)
		}
	}
	return nil
}

func decodeConstExpr(r *bytes.Reader) (*wasm.ConstantExpression, error) {
	op, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading const expr opcode: %w", err)
	}
	ce := &wasm.ConstantExpression{Opcode: op}
	switch op {
	case wasm.OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(r)
		if err != nil {
			return nil, err
		}
		ce.Data = littleEndian8(uint64(uint32(v)))
	case wasm.OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(r)
		if err != nil {
			return nil, err
		}
		ce.Data = littleEndian8(uint64(v))
	case wasm.OpcodeF32Const:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		ce.Data = littleEndian8(uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24)
	case wasm.OpcodeF64Const:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		var v uint64
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		ce.Data = littleEndian8(v)
	case wasm.OpcodeGlobalGet, wasm.OpcodeRefFunc:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, err
		}
		ce.Data = littleEndian8(uint64(idx))
	case wasm.OpcodeRefNull:
		if _, err := decodeValueType(r); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("opcode %#x is not valid in a constant expression", op)
	}
	end, err := r.ReadByte()
	if err != nil || end != wasm.OpcodeEnd {
		return nil, fmt.Errorf("const expr not terminated by end opcode")
	}
	return ce, nil
}

func decodeGlobalSection(r *bytes.Reader, m *wasm.Module, _ wasm.Features) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: global section count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		vt, err := decodeValueType(r)
		if err != nil {
			return fmt.Errorf("binary: global %d: value type: %w", i, err)
		}
		mut, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("binary: global %d: mutability: %w", i, err)
		}
		init, err := decodeConstExpr(r)
		if err != nil {
			return fmt.Errorf("binary: global %d: init expr: %w", i, err)
		}
		// globalSectionEntry is unexported; append through a decode-only
		// constructor kept in internal/wasm for exactly this purpose.
		wasm.AppendGlobalSectionEntry(m, wasm.GlobalType{ValType: vt, Mutable: mut == 1}, *init)
	}
	return nil
}

func decodeExportSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: export section count: %w", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := decodeName(r)
		if err != nil {
			return fmt.Errorf("binary: export %d: name: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("binary: export %d: kind: %w", i, err)
		}
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: export %d: index: %w", i, err)
		}
		var et wasm.ExternType
		switch kind {
		case 0x00:
			et = wasm.ExternTypeFunc
		case 0x01:
			et = wasm.ExternTypeTable
		case 0x02:
			et = wasm.ExternTypeMemory
		case 0x03:
			et = wasm.ExternTypeGlobal
		default:
			return fmt.Errorf("binary: export %d: unknown kind %#x", i, kind)
		}
		m.ExportSection[name] = &wasm.Export{Type: et, Name: name, Index: idx}
	}
	return nil
}

func decodeElementSection(r *bytes.Reader, m *wasm.Module, _ wasm.Features) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: element section count: %w", err)
	}
	m.ElementSection = make([]wasm.ElementSegment, count)
	for i := uint32(0); i < count; i++ {
		flag, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: element %d: flag: %w", i, err)
		}
		seg := wasm.ElementSegment{Type: wasm.RefTypeFuncref}
		if flag&1 == 0 {
			// Active segment targeting table 0 (flag bit 1 selects an
			// explicit table index, unused by the common MVP-shaped cases
			// this engine targets).
			off, err := decodeConstExpr(r)
			if err != nil {
				return fmt.Errorf("binary: element %d: offset expr: %w", i, err)
			}
			seg.OffsetExpr = off
		}
		numIdx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: element %d: count: %w", i, err)
		}
		seg.Init = make([]wasm.ConstantExpression, numIdx)
		for j := uint32(0); j < numIdx; j++ {
			idx, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return fmt.Errorf("binary: element %d entry %d: %w", i, j, err)
			}
			seg.Init[j] = wasm.ConstantExpression{Opcode: wasm.OpcodeRefFunc, Data: littleEndian8(uint64(idx))}
		}
		m.ElementSection[i] = seg
	}
	return nil
}

func decodeCodeSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: code section count: %w", err)
	}
	m.CodeSection = make([]wasm.Code, count)
	for i := uint32(0); i < count; i++ {
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: code %d: size: %w", i, err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("binary: code %d: body: %w", i, err)
		}
		br := bytes.NewReader(body)

		numLocalDecls, _, err := leb128.DecodeUint32(br)
		if err != nil {
			return fmt.Errorf("binary: code %d: local decl count: %w", i, err)
		}
		var locals []wasm.ValueType
		for j := uint32(0); j < numLocalDecls; j++ {
			n, _, err := leb128.DecodeUint32(br)
			if err != nil {
				return fmt.Errorf("binary: code %d: local decl %d count: %w", i, j, err)
			}
			vt, err := decodeValueType(br)
			if err != nil {
				return fmt.Errorf("binary: code %d: local decl %d type: %w", i, j, err)
			}
			for k := uint32(0); k < n; k++ {
				locals = append(locals, vt)
			}
		}
		bodyStart := int64(len(body)) - int64(br.Len())
		instrs := body[bodyStart:]
		m.CodeSection[i] = wasm.Code{LocalTypes: locals, Body: instrs}
	}
	return nil
}

func decodeDataSection(r *bytes.Reader, m *wasm.Module) error {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return fmt.Errorf("binary: data section count: %w", err)
	}
	m.DataSection = make([]wasm.DataSegment, count)
	for i := uint32(0); i < count; i++ {
		flag, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: data %d: flag: %w", i, err)
		}
		seg := wasm.DataSegment{}
		if flag == 0 {
			off, err := decodeConstExpr(r)
			if err != nil {
				return fmt.Errorf("binary: data %d: offset expr: %w", i, err)
			}
			seg.OffsetExpr = off
		} else if flag == 2 {
			memIdx, _, err := leb128.DecodeUint32(r)
			if err != nil {
				return fmt.Errorf("binary: data %d: memory index: %w", i, err)
			}
			seg.MemoryIndex = memIdx
			off, err := decodeConstExpr(r)
			if err != nil {
				return fmt.Errorf("binary: data %d: offset expr: %w", i, err)
			}
			seg.OffsetExpr = off
		}
		// flag == 1 is a passive segment: OffsetExpr stays nil.
		n, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return fmt.Errorf("binary: data %d: init length: %w", i, err)
		}
		init := make([]byte, n)
		if _, err := io.ReadFull(r, init); err != nil {
			return fmt.Errorf("binary: data %d: init bytes: %w", i, err)
		}
		seg.Init = init
		m.DataSection[i] = seg
	}
	return nil
}

// decodeCustomSection recognizes the standard "name" custom section
// (function/module names only; local names are skipped unparsed) and
// otherwise ignores the section's contents, matching the spec's
// "custom sections carry no semantic weight" rule.
func decodeCustomSection(r *bytes.Reader, m *wasm.Module) error {
	name, err := decodeName(r)
	if err != nil {
		return fmt.Errorf("binary: custom section name: %w", err)
	}
	if name != "name" {
		return nil
	}
	for r.Len() > 0 {
		subID, err := r.ReadByte()
		if err != nil {
			return nil
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil
		}
		sub := make([]byte, size)
		if _, err := io.ReadFull(r, sub); err != nil {
			return nil
		}
		sr := bytes.NewReader(sub)
		switch subID {
		case 0: // module name
			if n, err := decodeName(sr); err == nil {
				m.Name = n
			}
		case 1: // function names
			count, _, err := leb128.DecodeUint32(sr)
			if err != nil {
				continue
			}
			for i := uint32(0); i < count; i++ {
				idx, _, err := leb128.DecodeUint32(sr)
				if err != nil {
					break
				}
				n, err := decodeName(sr)
				if err != nil {
					break
				}
				m.FunctionNames[idx] = n
			}
		}
	}
	return nil
}
