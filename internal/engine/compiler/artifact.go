package compiler

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wasmerio/wasmer-core/api"
	"github.com/wasmerio/wasmer-core/internal/version"
)

// Serialized artifact layout, bit-exact per spec.md §6:
//
//	offset  size  field
//	0       4     magic
//	4       4     format_version (u32 le)
//	8       16    engine_id (utf-8, null-padded)
//	24      64    host_triple (utf-8, null-padded)
//	88      8     features (bitset, u64 le)
//	96      var   module_info_blob (length-prefixed)
//	...     var   per_function_blobs (count-prefixed; each blob is the
//	              function body only -- relocations, frame_info, traps,
//	              jump-table offsets and unwind info are not serialized,
//	              and no custom sections or data initializers follow)
const (
	artifactMagic         = "WART"
	artifactFormatVersion = 1
	engineIDFieldSize     = 16
	hostTripleFieldSize   = 64
)

// Artifact is the on-disk/on-wire representation of a compiled module:
// everything NewModuleEngine needs without re-running the compiler.
type Artifact struct {
	EngineID      string
	HostTriple    string
	Features      api.CoreFeatures
	ModuleInfo    []byte
	FunctionCode  [][]byte
}

// Serialize writes a bit-exact artifact per spec.md §6.
func (a *Artifact) Serialize(w io.Writer) error {
	var hdr bytes.Buffer
	hdr.WriteString(artifactMagic)
	writeU32(&hdr, artifactFormatVersion)
	writePadded(&hdr, a.EngineID, engineIDFieldSize)
	writePadded(&hdr, a.HostTriple, hostTripleFieldSize)
	writeU64(&hdr, uint64(a.Features))
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("compiler: writing artifact header: %w", err)
	}

	if err := writeBlob(w, a.ModuleInfo); err != nil {
		return fmt.Errorf("compiler: writing module info blob: %w", err)
	}

	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(a.FunctionCode)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return fmt.Errorf("compiler: writing function count: %w", err)
	}
	for i, body := range a.FunctionCode {
		if err := writeBlob(w, body); err != nil {
			return fmt.Errorf("compiler: writing function[%d] body: %w", i, err)
		}
	}
	return nil
}

// DeserializeArtifact reads back what Serialize wrote, rejecting any
// artifact whose engine_id/host_triple/features don't match want (spec.md
// §6: "Loading rejects any artifact whose engine_id, host_triple, or
// features differs").
func DeserializeArtifact(r io.Reader, wantFeatures api.CoreFeatures, hostTriple string) (*Artifact, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("compiler: reading magic: %w", err)
	}
	if string(magic[:]) != artifactMagic {
		return nil, fmt.Errorf("compiler: corrupted artifact: bad magic %q", magic)
	}
	formatVersion, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if formatVersion != artifactFormatVersion {
		return nil, fmt.Errorf("compiler: incompatible artifact format_version %d, want %d", formatVersion, artifactFormatVersion)
	}
	engineID, err := readPadded(r, engineIDFieldSize)
	if err != nil {
		return nil, err
	}
	if engineID != version.EngineID {
		return nil, fmt.Errorf("compiler: incompatible artifact: engine_id %q, want %q", engineID, version.EngineID)
	}
	gotHostTriple, err := readPadded(r, hostTripleFieldSize)
	if err != nil {
		return nil, err
	}
	if gotHostTriple != hostTriple {
		return nil, fmt.Errorf("compiler: incompatible artifact: host_triple %q, want %q", gotHostTriple, hostTriple)
	}
	featuresBits, err := readU64(r)
	if err != nil {
		return nil, err
	}
	features := api.CoreFeatures(featuresBits)
	if features != wantFeatures {
		return nil, fmt.Errorf("compiler: incompatible artifact: features %#x, want %#x", featuresBits, wantFeatures)
	}

	moduleInfo, err := readBlob(r)
	if err != nil {
		return nil, fmt.Errorf("compiler: reading module info blob: %w", err)
	}

	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	funcs := make([][]byte, count)
	for i := range funcs {
		body, err := readBlob(r)
		if err != nil {
			return nil, fmt.Errorf("compiler: reading function[%d] body: %w", i, err)
		}
		funcs[i] = body
	}

	return &Artifact{
		EngineID:     engineID,
		HostTriple:   gotHostTriple,
		Features:     features,
		ModuleInfo:   moduleInfo,
		FunctionCode: funcs,
	}, nil
}

func writeU32(w io.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeU64(w io.Writer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func writePadded(w io.Writer, s string, size int) {
	buf := make([]byte, size)
	copy(buf, s)
	w.Write(buf)
}

func writeBlob(w io.Writer, b []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("compiler: reading u32: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("compiler: reading u64: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readPadded(r io.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("compiler: reading %d-byte field: %w", size, err)
	}
	return string(bytes.TrimRight(buf, "\x00")), nil
}

func readBlob(r io.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("compiler: reading %d-byte blob: %w", n, err)
	}
	return buf, nil
}
