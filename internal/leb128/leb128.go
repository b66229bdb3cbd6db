// Package leb128 decodes the variable-length integer encodings used
// throughout the WebAssembly binary format.
package leb128

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"
)

const (
	maxVarintLen32 = 5
	maxVarintLen64 = 10
)

// DecodeUint32 reads an unsigned LEB128 value into a uint32, erroring if the
// encoding overflows 32 bits.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	v, size, err := decodeUint(r, 32)
	return uint32(v), size, err
}

// DecodeUint64 reads an unsigned LEB128 value into a uint64.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	return decodeUint(r, 64)
}

func decodeUint(r io.ByteReader, bitSize int) (ret uint64, bytesRead uint64, err error) {
	maxLen := maxVarintLen32
	if bitSize == 64 {
		maxLen = maxVarintLen64
	}
	var shift int
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, bytesRead, fmt.Errorf("readByte: %w", err)
		}
		bytesRead++
		ret |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			if shift+7 > bitSize && b>>(bitSize-shift) != 0 {
				return 0, bytesRead, fmt.Errorf("overflows a %d-bit integer", bitSize)
			}
			return ret, bytesRead, nil
		}
		shift += 7
		if shift >= maxLen*7 {
			return 0, bytesRead, fmt.Errorf("leb128 encoding too long")
		}
	}
}

// DecodeInt32 reads a signed LEB128 value into an int32.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, size, err := decodeInt(r, 32)
	return int32(v), size, err
}

// DecodeInt33AsInt64 decodes a 33-bit signed value (used for block types),
// sign-extended into an int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeInt(r, 33)
}

// DecodeInt64 reads a signed LEB128 value into an int64.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeInt(r, 64)
}

func decodeInt(r io.ByteReader, bitSize int) (ret int64, bytesRead uint64, err error) {
	var shift int
	var b byte
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, bytesRead, fmt.Errorf("readByte: %w", err)
		}
		bytesRead++
		ret |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= bits.UintSize*7 {
			return 0, bytesRead, fmt.Errorf("leb128 encoding too long")
		}
	}
	if shift < bitSize && b&0x40 != 0 {
		ret |= -1 << shift
	}
	return ret, bytesRead, nil
}

// DecodeUint32FromBytes is a convenience wrapper for callers holding a byte
// slice rather than a reader.
func DecodeUint32FromBytes(b []byte) (uint32, uint64, error) {
	return DecodeUint32(bytes.NewReader(b))
}
