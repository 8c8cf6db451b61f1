package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Register programmer (component E): given a ChosenMode
 *		and an ActivationMap, emit the sequence of writes that
 *		leaves the device ready to start, and the separate
 *		start/stop sequences that actually release/assert the
 *		CIC soft reset.
 *
 *------------------------------------------------------------------*/

// ProgramConfig writes the OUTCONTROL words, the per-controller
// CIC/MIC/FIR register blocks and the coefficient RAM of each FIR in
// use, per spec.md
// §4.E.2/§4.E.3. It does not start the FIFOs or release soft reset;
// that happens in StartCapture.
func ProgramConfig(rf RegisterFile, logger Logger, hw HardwareProfile, req Request, cm ChosenMode, am ActivationMap) {
	of0 := outputFormatBits(req.Streams[0].PCMWidth)
	of1 := 0
	if req.ClampedStreams() > 1 {
		of1 = outputFormatBits(req.Streams[1].PCMWidth)
	}

	writeOutControl(rf, logger, RegOutControl0, of0, am)
	writeOutControl(rf, logger, RegOutControl1, of1, am)

	edgeMask := req.IO.ClockEdgePol ^ uint32(am.ChannelSwapMask)

	for c := 0; c < NumControllers; c++ {
		writeCICBlock(rf, logger, req, c, cm, am, edgeMask)
		writeFIRBlock(rf, logger, c, cm, am)
	}

	writeCoefRAM(rf, logger, hw, RegCoeffRAMA, cm.FIRA, cm.GainA)
	writeCoefRAM(rf, logger, hw, RegCoeffRAMB, cm.FIRB, cm.GainB)
}

func outputFormatBits(width int) int {
	if width == 32 {
		return 2
	}
	return 0
}

func writeOutControl(rf RegisterFile, logger Logger, reg uint32, of int, am ActivationMap) {
	val := outControlTie(0) |
		outControlSip(0) |
		outControlFinit(1) |
		outControlFci(0) |
		outControlBfth(3) |
		outControlOF(uint32(of)) |
		outControlNumDecimators(uint32(am.NumDecimators)) |
		outControlIPMSource1(am.IPMSource) |
		outControlIPMSource2(am.IPMSource>>4) |
		outControlIPMSource3(am.IPMSource>>8) |
		outControlIPMSource4(am.IPMSource>>12) |
		outControlTH(3)
	rf.Write(reg, val)
	logger.Debugf("WR: OUTCONTROL[0x%04x]: 0x%08x", reg, val)
}

func writeCICBlock(rf RegisterFile, logger Logger, req Request, c int, cm ChosenMode, am ActivationMap, edgeMask uint32) {
	stereo := (uint32(am.StereoMask) >> uint(c)) & 1
	dataPol := (req.IO.DataPolarity >> uint(c)) & 1

	val := cicSoftReset(1) |
		cicStartB(0) |
		cicStartA(0) |
		cicMicBPolarity(dataPol) |
		cicMicAPolarity(dataPol) |
		cicMicMute(0) |
		cicStereoMode(stereo)
	rf.Write(RegCICControl(c), val)
	logger.Debugf("WR: CIC_CONTROL[%d]: 0x%08x", c, val)

	val = cicConfigShift(uint32(cm.CICShift+8)) | cicConfigCombCount(uint32(cm.MCIC-1))
	rf.Write(RegCICConfig(c), val)
	logger.Debugf("WR: CIC_CONFIG[%d]: 0x%08x", c, val)

	skew := (req.IO.ClockSkew >> uint(c*4)) & 0xF
	edge := (edgeMask >> uint(c)) & 1
	val = micControlClkDiv(uint32(cm.ClkDiv-2)) |
		micControlSkew(skew) |
		micControlClkEdge(edge) |
		micControlEnB(0) |
		micControlEnA(0)
	rf.Write(RegMICControl(c), val)
	logger.Debugf("WR: MIC_CONTROL[%d]: 0x%08x", c, val)
}

func writeFIRBlock(rf RegisterFile, logger Logger, c int, cm ChosenMode, am ActivationMap) {
	stereo := (uint32(am.StereoMask) >> uint(c)) & 1
	writeOneFIR(rf, logger, c, "A", RegFIRControlA(c), RegFIRConfigA(c), RegDCOffsetLeftA(c), RegDCOffsetRightA(c),
		RegOutGainLeftA(c), RegOutGainRightA(c), cm.MFIRA, cm.GainA.Shift, firLength(cm.FIRA), stereo)
	writeOneFIR(rf, logger, c, "B", RegFIRControlB(c), RegFIRConfigB(c), RegDCOffsetLeftB(c), RegDCOffsetRightB(c),
		RegOutGainLeftB(c), RegOutGainRightB(c), cm.MFIRB, cm.GainB.Shift, firLength(cm.FIRB), stereo)
}

func firLength(p *Prototype) int {
	if p == nil {
		return 0
	}
	return p.Length
}

func writeOneFIR(rf RegisterFile, logger Logger, c int, which string, ctrlReg, cfgReg, dcLReg, dcRReg, gainLReg, gainRReg uint32, mfir, firShift, length int, stereo uint32) {
	decim := mfir - 1
	if decim < 0 {
		decim = 0
	}
	lenField := length - 1
	if lenField < 0 {
		lenField = 0
	}

	val := firControlStart(0) | firControlArrayStart(0) | firControlDCComp(1) | firControlMute(0) | firControlStereo(stereo)
	rf.Write(ctrlReg, val)
	logger.Debugf("WR: FIR_CONTROL_%s[%d]: 0x%08x", which, c, val)

	val = firConfigDecimation(uint32(decim)) | firConfigShift(uint32(firShift)) | firConfigLength(uint32(lenField))
	rf.Write(cfgReg, val)
	logger.Debugf("WR: FIR_CONFIG_%s[%d]: 0x%08x", which, c, val)

	rf.Write(dcLReg, dcOffset(dcCompTC0))
	rf.Write(dcRReg, dcOffset(dcCompTC0))
	rf.Write(gainLReg, outGain(0))
	rf.Write(gainRReg, outGain(0))
}

// writeCoefRAM writes the N scaled coefficients of proto into base's
// per-controller coefficient RAM for every controller, in reverse tap
// order (taps[N-1] first, taps[0] last) at word offset (N-j-1)*4, per
// spec.md §4.E.3. The RAM is written for all NumControllers
// controllers, active or not, regardless of which FIFO draws from
// them. A nil proto (FIFO unused) leaves that RAM unwritten.
func writeCoefRAM(rf RegisterFile, logger Logger, hw HardwareProfile, base func(int) uint32, proto *Prototype, gain FIRGainPlan) {
	if proto == nil {
		return
	}
	n := proto.Length
	for j := 0; j < n; j++ {
		scaled := ScaledCoefficient(hw, proto.Coef[j], gain.Scale)
		cu := firCoef(uint32(scaled))
		offset := uint32(n-j-1) * 4
		for c := 0; c < NumControllers; c++ {
			rf.Write(base(c)+offset, cu)
		}
	}
	logger.Debugf("WR: coefficient RAM programmed, %d taps x %d controllers", n, NumControllers)
}

// StartCapture performs the interrupts-off start sequence of spec.md
// §4.E.4: set CIC_START/PDM_EN per mic_enable_mask, set FIR start bits
// for the FIFOs in use, release the FIFO packers, and finally clear
// CIC_CONTROL.SOFT_RESET on every controller — the step that actually
// synchronizes capture across controllers.
func StartCapture(rf RegisterFile, am ActivationMap) {
	for c := 0; c < NumControllers; c++ {
		micA := uint32(am.MicEnableMask>>uint(ChanLeft+ChannelLR(c*2))) & 1
		micB := uint32(am.MicEnableMask>>uint(ChanRight+ChannelLR(c*2))) & 1

		var firA, firB uint32
		if (am.MicEnableMask>>uint(c*2))&0x3 != 0 {
			if am.FIFOAUsed {
				firA = 1
			}
			if am.FIFOBUsed {
				firB = 1
			}
		}

		WriteMasked(rf, RegCICControl(c),
			1<<cicStartABit|1<<cicStartBBit,
			cicStartA(micA)|cicStartB(micB))
		WriteMasked(rf, RegMICControl(c),
			1<<micEnABit|1<<micEnBBit,
			micControlEnA(micA)|micControlEnB(micB))
		WriteMasked(rf, RegFIRControlA(c), 1<<firStartBit, firControlStart(firA))
		WriteMasked(rf, RegFIRControlB(c), 1<<firStartBit, firControlStart(firB))
	}

	if am.FIFOAUsed {
		WriteMasked(rf, RegOutControl0, 1<<outControlFinitBit|1<<outControlSipBit, outControlSip(1))
	}
	if am.FIFOBUsed {
		WriteMasked(rf, RegOutControl1, 1<<outControlFinitBit|1<<outControlSipBit, outControlSip(1))
	}

	for c := 0; c < NumControllers; c++ {
		WriteMasked(rf, RegCICControl(c), 1<<cicSoftResetBit, 0)
	}
}

// StopCapture performs the stop/pause sequence of spec.md §4.E.5:
// clear SIP and assert FINIT on both FIFOs, then assert soft reset on
// every controller.
func StopCapture(rf RegisterFile) {
	WriteMasked(rf, RegOutControl0, 1<<outControlSipBit|1<<outControlFinitBit, outControlFinit(1))
	WriteMasked(rf, RegOutControl1, 1<<outControlSipBit|1<<outControlFinitBit, outControlFinit(1))
	for c := 0; c < NumControllers; c++ {
		WriteMasked(rf, RegCICControl(c), 1<<cicSoftResetBit, cicSoftReset(1))
	}
}
