//go:build linux

package dmic

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

/*------------------------------------------------------------------
 *
 * Purpose:	On-target RegisterFile backed by a real memory-mapped
 *		window, for builds that run against physical silicon
 *		rather than the software model in registers.go.
 *
 *------------------------------------------------------------------*/

// MmapRegisterFile maps physBase..physBase+regionSize of a physical
// address space file (typically /dev/mem or a UIO device node) and
// exposes it as a RegisterFile. Every Read/Write goes through the
// mapped window directly; Go's memory model does not reorder a load or
// store across a call boundary, so the final CIC_CONTROL.SOFT_RESET
// clear in the start sequence (§4.E.4) is never hoisted ahead of the
// writes that precede it.
type MmapRegisterFile struct {
	file *os.File
	mem  []byte
}

// NewMmapRegisterFile opens devicePath (e.g. "/dev/mem") and maps
// regionSize bytes starting at physBase.
func NewMmapRegisterFile(devicePath string, physBase int64) (*MmapRegisterFile, error) {
	f, err := os.OpenFile(devicePath, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("dmic: open %s: %w", devicePath, err)
	}
	mem, err := unix.Mmap(int(f.Fd()), physBase, regionSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dmic: mmap %s @ 0x%x: %w", devicePath, physBase, err)
	}
	return &MmapRegisterFile{file: f, mem: mem}, nil
}

func (m *MmapRegisterFile) Read(addr uint32) uint32 {
	return leUint32(m.mem[addr : addr+4])
}

func (m *MmapRegisterFile) Write(addr uint32, val uint32) {
	m.mem[addr] = byte(val)
	m.mem[addr+1] = byte(val >> 8)
	m.mem[addr+2] = byte(val >> 16)
	m.mem[addr+3] = byte(val >> 24)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Close unmaps the register window and closes the backing file.
func (m *MmapRegisterFile) Close() error {
	if err := unix.Munmap(m.mem); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
