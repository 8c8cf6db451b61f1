package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Register address map and bitfield layout, taken directly
 *		from the hardware-visible surface in spec.md §6.
 *
 *------------------------------------------------------------------*/

// Register offsets. Global registers live at controller-relative
// offset 0; each controller c occupies its own 4 KiB block starting
// at (c+1)*0x1000.
const (
	RegOutControl0 = 0x0000
	RegOutStat0    = 0x0004
	RegOutData0    = 0x0008
	RegOutControl1 = 0x0100
	RegOutStat1    = 0x0104
	RegOutData1    = 0x0108
)

func controllerBase(c int) uint32 { return uint32(c+1) << 12 }

func RegCICControl(c int) uint32   { return controllerBase(c) + 0x000 }
func RegCICConfig(c int) uint32    { return controllerBase(c) + 0x004 }
func RegMICControl(c int) uint32   { return controllerBase(c) + 0x00c }
func RegFIRControlA(c int) uint32  { return controllerBase(c) + 0x020 }
func RegFIRConfigA(c int) uint32   { return controllerBase(c) + 0x024 }
func RegDCOffsetLeftA(c int) uint32  { return controllerBase(c) + 0x028 }
func RegDCOffsetRightA(c int) uint32 { return controllerBase(c) + 0x02c }
func RegOutGainLeftA(c int) uint32   { return controllerBase(c) + 0x030 }
func RegOutGainRightA(c int) uint32  { return controllerBase(c) + 0x034 }
func RegFIRControlB(c int) uint32  { return controllerBase(c) + 0x040 }
func RegFIRConfigB(c int) uint32   { return controllerBase(c) + 0x044 }
func RegDCOffsetLeftB(c int) uint32  { return controllerBase(c) + 0x048 }
func RegDCOffsetRightB(c int) uint32 { return controllerBase(c) + 0x04c }
func RegOutGainLeftB(c int) uint32   { return controllerBase(c) + 0x050 }
func RegOutGainRightB(c int) uint32  { return controllerBase(c) + 0x054 }
func RegCoeffRAMA(c int) uint32    { return controllerBase(c) + 0x400 }
func RegCoeffRAMB(c int) uint32    { return controllerBase(c) + 0x800 }

// setBit returns x's bit 0 shifted into position b.
func setBit(b uint, x uint32) uint32 {
	return (x & 1) << b
}

// setBits returns the low (hi-lo+1) bits of x shifted into [hi:lo].
func setBits(hi, lo uint, x uint32) uint32 {
	width := hi - lo + 1
	mask := uint32(1)<<width - 1
	return (x & mask) << lo
}

// bitMask returns the mask covering bits [hi:lo].
func bitMask(hi, lo uint) uint32 {
	width := hi - lo + 1
	return (uint32(1)<<width - 1) << lo
}

// OUTCONTROLx bit positions (identical layout for FIFO 0 and 1).
const (
	outControlTieBit  = 27
	outControlSipBit  = 26
	outControlFinitBit = 25
	outControlFciBit  = 24
)

func outControlTie(x uint32) uint32    { return setBit(outControlTieBit, x) }
func outControlSip(x uint32) uint32    { return setBit(outControlSipBit, x) }
func outControlFinit(x uint32) uint32  { return setBit(outControlFinitBit, x) }
func outControlFci(x uint32) uint32    { return setBit(outControlFciBit, x) }
func outControlBfth(x uint32) uint32   { return setBits(23, 20, x) }
func outControlOF(x uint32) uint32     { return setBits(19, 18, x) }
func outControlNumDecimators(x uint32) uint32 { return setBits(17, 15, x) }
func outControlIPMSource1(x uint32) uint32 { return setBits(14, 13, x) }
func outControlIPMSource2(x uint32) uint32 { return setBits(12, 11, x) }
func outControlIPMSource3(x uint32) uint32 { return setBits(10, 9, x) }
func outControlIPMSource4(x uint32) uint32 { return setBits(8, 7, x) }
func outControlTH(x uint32) uint32     { return setBits(5, 0, x) }

// CIC_CONTROL bit positions.
const (
	cicSoftResetBit  = 16
	cicStartBBit     = 15
	cicStartABit     = 14
	cicMicBPolBit    = 3
	cicMicAPolBit    = 2
	cicMicMuteBit    = 1
	cicStereoModeBit = 0
)

func cicSoftReset(x uint32) uint32  { return setBit(cicSoftResetBit, x) }
func cicStartB(x uint32) uint32     { return setBit(cicStartBBit, x) }
func cicStartA(x uint32) uint32     { return setBit(cicStartABit, x) }
func cicMicBPolarity(x uint32) uint32 { return setBit(cicMicBPolBit, x) }
func cicMicAPolarity(x uint32) uint32 { return setBit(cicMicAPolBit, x) }
func cicMicMute(x uint32) uint32    { return setBit(cicMicMuteBit, x) }
func cicStereoMode(x uint32) uint32 { return setBit(cicStereoModeBit, x) }

func cicConfigShift(x uint32) uint32 { return setBits(27, 24, x) }
func cicConfigCombCount(x uint32) uint32 { return setBits(15, 8, x) }

// MIC_CONTROL bit positions.
const (
	micEnBBit = 1
	micEnABit = 0
)

func micControlClkDiv(x uint32) uint32 { return setBits(15, 8, x) }
func micControlSkew(x uint32) uint32   { return setBits(7, 4, x) }
func micControlClkEdge(x uint32) uint32 { return setBit(3, x) }
func micControlEnB(x uint32) uint32    { return setBit(micEnBBit, x) }
func micControlEnA(x uint32) uint32    { return setBit(micEnABit, x) }

// FIR_CONTROL_{A,B} bit positions (identical layout for A and B).
const (
	firStartBit      = 7
	firArrayStartBit = 6
	firDCCompBit     = 4
	firMuteBit       = 1
	firStereoBit     = 0
)

func firControlStart(x uint32) uint32      { return setBit(firStartBit, x) }
func firControlArrayStart(x uint32) uint32 { return setBit(firArrayStartBit, x) }
func firControlDCComp(x uint32) uint32     { return setBit(firDCCompBit, x) }
func firControlMute(x uint32) uint32       { return setBit(firMuteBit, x) }
func firControlStereo(x uint32) uint32     { return setBit(firStereoBit, x) }

func firConfigDecimation(x uint32) uint32 { return setBits(20, 16, x) }
func firConfigShift(x uint32) uint32      { return setBits(11, 8, x) }
func firConfigLength(x uint32) uint32     { return setBits(7, 0, x) }

func dcOffset(x uint32) uint32 { return setBits(21, 0, x) }
func outGain(x uint32) uint32  { return setBits(19, 0, x) }
func firCoef(x uint32) uint32  { return setBits(19, 0, x) }

// DC-offset compensation time constant used for every controller's
// default (unconfigured gain/offset) registers.
const dcCompTC0 = 0
