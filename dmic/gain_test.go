package dmic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPlanGainProducesInRangeShifts(t *testing.T) {
	hw := DefaultHardwareProfile()
	mode := MergedCandidate{ClkDiv: 12, MCIC: 16, MFIRA: 5, MFIRB: 0}
	firA, ok := Lookup(5, FIRMaxLength(hw, 48000))
	require.True(t, ok)

	cm, err := PlanGain(hw, mode, firA, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, cm.CICShift, hw.CICShiftMin)
	assert.LessOrEqual(t, cm.CICShift, hw.CICShiftMax)
	assert.GreaterOrEqual(t, cm.GainA.Shift, hw.FIRShiftMin)
	assert.LessOrEqual(t, cm.GainA.Shift, hw.FIRShiftMax)
}

func TestPlanGainRejectsExcessiveMCIC(t *testing.T) {
	hw := DefaultHardwareProfile()
	// mcic^5 overflowing int32 should be rejected outright.
	mode := MergedCandidate{ClkDiv: 2, MCIC: 4000, MFIRA: 2}
	proto, ok := Lookup(2, FIRMaxLength(hw, 1000))
	require.True(t, ok)

	_, err := PlanGain(hw, mode, proto, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestScaledCoefficientStaysInRange covers invariant 4: the rescaled
// coefficient must always fit in a signed FIR_COEF_BITS-1 fraction.
func TestScaledCoefficientStaysInRange(t *testing.T) {
	hw := DefaultHardwareProfile()
	limit := int32(1)<<uint(hw.FIRCoefBits-1) - 1

	rapid.Check(t, func(t *rapid.T) {
		coef := rapid.Int32().Draw(t, "coef")
		scale := rapid.Int32Range(0, 1<<28).Draw(t, "scale")

		got := ScaledCoefficient(hw, coef, scale)
		assert.LessOrEqual(t, got, limit)
		assert.GreaterOrEqual(t, got, -limit-1)
	})
}

// TestPlanGainEndToEndShiftsInRange covers invariant 5 across the
// catalog's real prototypes and a spread of feasible modes, rather
// than just one hand-picked case.
func TestPlanGainEndToEndShiftsInRange(t *testing.T) {
	hw := DefaultHardwareProfile()
	io := defaultIO()

	for _, fs := range []int{8000, 16000, 32000, 48000, 96000} {
		modes := MatchModes(FindModes(hw, io, fs), nil)
		if len(modes) == 0 {
			continue
		}
		best, err := SelectMode(modes)
		require.NoError(t, err)

		proto, ok := Lookup(best.MFIRA, FIRMaxLength(hw, fs))
		if !ok {
			continue
		}

		cm, err := PlanGain(hw, best, proto, nil)
		require.NoError(t, err, "fs=%d", fs)
		assert.GreaterOrEqual(t, cm.CICShift, hw.CICShiftMin)
		assert.LessOrEqual(t, cm.CICShift, hw.CICShiftMax)
		assert.GreaterOrEqual(t, cm.GainA.Shift, hw.FIRShiftMin)
		assert.LessOrEqual(t, cm.GainA.Shift, hw.FIRShiftMax)

		for _, c := range proto.Coef {
			scaled := ScaledCoefficient(hw, c, cm.GainA.Scale)
			limit := int32(1)<<uint(hw.FIRCoefBits-1) - 1
			assert.LessOrEqual(t, scaled, limit)
			assert.GreaterOrEqual(t, scaled, -limit-1)
		}
	}
}
