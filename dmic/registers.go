package dmic

import "encoding/binary"

/*------------------------------------------------------------------
 *
 * Purpose:	A typed abstraction over "register at address" so the
 *		register programmer never pokes raw byte offsets. Backs
 *		either a plain byte slice (tests, cmd/dmicctl's software
 *		model) or a real memory-mapped window (golang.org/x/sys
 *		unix.Mmap on a target with /dev/mem-class access); see
 *		NewMmapRegisterFile in registers_mmap.go for the latter.
 *
 * Description:	Write performs an ordinary store; WriteMasked performs
 *		the read-modify-write-under-mask primitive DESIGN NOTES
 *		§9 calls the natural primitive for register access: a
 *		read of the backing store followed by a write. Neither
 *		issues an explicit memory barrier.
 *
 *------------------------------------------------------------------*/

// RegisterFile is a little-endian, word-addressed register window.
type RegisterFile interface {
	Read(addr uint32) uint32
	Write(addr uint32, val uint32)
}

// WriteMasked performs read-modify-write under mask: the bits set in
// mask are replaced by the corresponding bits of val; all other bits
// are preserved.
func WriteMasked(rf RegisterFile, addr uint32, mask uint32, val uint32) {
	cur := rf.Read(addr)
	rf.Write(addr, (cur&^mask)|(val&mask))
}

// ByteSliceRegisterFile backs a RegisterFile with a plain in-memory
// byte slice, sized generously enough to cover the global block plus
// NumControllers per-controller blocks including their coefficient
// RAMs. This is what cmd/dmicctl and every test in this module use; it
// has identical semantics to a real mmap window minus the physical
// side effects.
type ByteSliceRegisterFile struct {
	mem []byte
}

// regionSize covers the global registers plus NumControllers
// per-controller 4 KiB blocks.
const regionSize = (NumControllers + 1) << 12

// NewByteSliceRegisterFile returns a zero-initialized software model of
// the register space.
func NewByteSliceRegisterFile() *ByteSliceRegisterFile {
	return &ByteSliceRegisterFile{mem: make([]byte, regionSize)}
}

func (b *ByteSliceRegisterFile) Read(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(b.mem[addr : addr+4])
}

func (b *ByteSliceRegisterFile) Write(addr uint32, val uint32) {
	binary.LittleEndian.PutUint32(b.mem[addr:addr+4], val)
}
