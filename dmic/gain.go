package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Gain planner: propagate unity-gain scaling through the
 *		CIC^5 stage, compute the complementary Q-format shift,
 *		and rescale the chosen FIR coefficients so the full
 *		signal chain neither overflows nor loses significant
 *		bits.
 *
 *------------------------------------------------------------------*/

const firScaleQ = 28 // Q4.28 internal precision for gain computations

// FIRGainPlan is the per-FIR result of PlanGain: the Q4.28 scale to
// multiply every coefficient by before writing the coefficient RAM,
// and the shift to program into the FIR's hardware shift field.
type FIRGainPlan struct {
	Scale int32
	Shift int
}

// ChosenMode is the fully resolved hardware configuration for a
// capture session: the selected decimation triple, the FIR prototypes
// it uses, and the gain plan derived from them.
type ChosenMode struct {
	MergedCandidate
	FIRA *Prototype // nil if FIFO A unused
	FIRB *Prototype // nil if FIFO B unused

	CICShift int
	GainA    FIRGainPlan
	GainB    FIRGainPlan
}

// PlanGain computes cic_shift and, for each FIR in use, the
// (scale, shift) pair described in spec.md §4.D. It returns
// ErrInvalidConfig if any derived shift falls outside the hardware's
// programmable range.
func PlanGain(hw HardwareProfile, mode MergedCandidate, firA, firB *Prototype) (ChosenMode, error) {
	cm := ChosenMode{MergedCandidate: mode, FIRA: firA, FIRB: firB}

	mcic := int64(mode.MCIC)
	gCIC := mcic * mcic * mcic * mcic * mcic
	if gCIC <= 0 || gCIC > int64(math32Max) {
		return ChosenMode{}, configErrorf(ReasonGainOutOfRange, "invalid CIC gain for mcic=%d", mode.MCIC)
	}

	bitsCIC := 32 - NormLeftShift(int32(gCIC))
	cicShift := bitsCIC - hw.FIRInputBits
	if cicShift < hw.CICShiftMin {
		cicShift = hw.CICShiftMin
	} else if cicShift > hw.CICShiftMax {
		cicShift = hw.CICShiftMax
	}
	cm.CICShift = cicShift

	var cicOutMax int64
	if cicShift >= 0 {
		cicOutMax = gCIC >> uint(cicShift)
	} else {
		cicOutMax = gCIC << uint(-cicShift)
	}
	if cicOutMax <= 0 {
		return ChosenMode{}, configErrorf(ReasonGainOutOfRange, "cic_out_max non-positive")
	}

	firInMax := int64(1) << uint(hw.FIRInputBits-1)
	gainToFIR := (firInMax << firScaleQ) / cicOutMax

	if firA != nil {
		plan, err := planFIRGain(hw, gainToFIR, firA)
		if err != nil {
			return ChosenMode{}, err
		}
		cm.GainA = plan
	}
	if firB != nil {
		plan, err := planFIRGain(hw, gainToFIR, firB)
		if err != nil {
			return ChosenMode{}, err
		}
		cm.GainB = plan
	}

	return cm, nil
}

func planFIRGain(hw HardwareProfile, gainToFIR int64, proto *Prototype) (FIRGainPlan, error) {
	firGain := QMulShiftRound(gainToFIR, int64(hw.SensitivityQ28), firScaleQ, 28, firScaleQ)

	amax := MaxAbsI32(proto.Coef)
	newAmax := QMulShiftRound(int64(amax), firGain, 31, firScaleQ, firScaleQ)
	if newAmax <= 0 {
		return FIRGainPlan{}, configErrorf(ReasonGainOutOfRange, "non-positive rescaled coefficient magnitude")
	}

	shift := 31 - firScaleQ - NormLeftShift(int32(newAmax))
	firShiftHW := -shift + proto.Shift
	if firShiftHW < hw.FIRShiftMin || firShiftHW > hw.FIRShiftMax {
		return FIRGainPlan{}, configErrorf(ReasonGainOutOfRange, "fir_shift_hw %d outside [%d,%d]", firShiftHW, hw.FIRShiftMin, hw.FIRShiftMax)
	}

	var scale int64
	if shift < 0 {
		scale = firGain << uint(-shift)
	} else {
		scale = firGain >> uint(shift)
	}

	return FIRGainPlan{Scale: SaturateI32(scale), Shift: firShiftHW}, nil
}

// ScaledCoefficient computes the rescaled, Q-format-adjusted integer
// written into coefficient RAM for one tap, per spec.md §4.E.3.
func ScaledCoefficient(hw HardwareProfile, coef int32, scale int32) int32 {
	v := QMulShiftRound(int64(coef), int64(scale), 31, firScaleQ, hw.FIRCoefBits-1)
	return SaturateI32(v)
}
