//go:build darwin

package platform

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

func compilerSupported() bool {
	return true
}

func mmapCodeSegment(code io.Reader, size int) ([]byte, error) {
	mmapped, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap code segment: %w", err)
	}
	if _, err := io.ReadFull(code, mmapped); err != nil {
		_ = unix.Munmap(mmapped)
		return nil, fmt.Errorf("read code into mapping: %w", err)
	}
	if err := unix.Mprotect(mmapped, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mmapped)
		return nil, fmt.Errorf("mprotect RX: %w", err)
	}
	return mmapped, nil
}

func munmapCodeSegment(code []byte) error {
	return unix.Munmap(code)
}

func mprotectRW(code []byte) error {
	return unix.Mprotect(code, unix.PROT_READ|unix.PROT_WRITE)
}

func mprotectRX(code []byte) error {
	return unix.Mprotect(code, unix.PROT_READ|unix.PROT_EXEC)
}

func mmapMemory(size int) ([]byte, error) {
	mmapped, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap memory: %w", err)
	}
	return mmapped, nil
}

// invalidateICache is a no-op on every GOARCH: it performs no flush.
func invalidateICache([]byte) error { return nil }
