package dmic

import "math/bits"

/*------------------------------------------------------------------
 *
 * Purpose:	Saturating fixed-point primitives shared by the gain
 *		planner and the register programmer's coefficient write.
 *
 * Description:	These four functions are the only places in the module
 *		where signed-overflow reasoning happens. Every higher
 *		layer (gain.go, program.go) relies on their contracts
 *		rather than re-deriving the arithmetic.
 *
 *------------------------------------------------------------------*/

// SaturateI32 clamps a 64-bit signed value to the 32-bit signed range.
func SaturateI32(x int64) int32 {
	switch {
	case x > int64(math32Max):
		return math32Max
	case x < int64(math32Min):
		return math32Min
	default:
		return int32(x)
	}
}

const (
	math32Max int32 = 1<<31 - 1
	math32Min int32 = -1 << 31
)

// QMulShiftRound computes round((px*py) / 2^(qx+qy-qp)) using a 64-bit
// intermediate, rounding away from zero on an exact half. px and py are
// signed values in Q(qx) and Q(qy) format respectively; the result is
// in Q(qp) format.
//
// The shift-then-round sequence is exact as specified:
//
//	((px*py) >> (qx+qy-qp-1)) + 1) >> 1
//
// and must not be replaced by floating point rounding.
func QMulShiftRound(px, py int64, qx, qy, qp int) int64 {
	shift := qx + qy - qp - 1
	product := px * py
	if shift >= 0 {
		return ((product >> uint(shift)) + 1) >> 1
	}
	// A negative shift means qp exceeds qx+qy-1; widen instead of
	// right-shifting by a negative amount.
	return ((product << uint(-shift)) + 1) >> 1
}

// MaxAbsI32 returns the largest absolute value present in a signed
// 32-bit vector. The most-negative element (whose negation overflows
// int32) is represented by its saturated positive counterpart.
func MaxAbsI32(vec []int32) int32 {
	if len(vec) == 0 {
		return 0
	}
	amax := absI64(int64(vec[0]))
	for _, v := range vec[1:] {
		if a := absI64(int64(v)); a > amax {
			amax = a
		}
	}
	return SaturateI32(amax)
}

func absI64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// NormLeftShift returns the left-shift count that, applied to x
// (reinterpreted as a signed Q31 magnitude), normalizes its highest
// magnitude bit into bit 30. Input 0 yields 31. Equivalent to
// count_leading_zeros(|x|) - 1 for a 32-bit word.
func NormLeftShift(x int32) int {
	if x == 0 {
		return 31
	}
	v := int64(x)
	if v < 0 {
		v = -v
	}
	// v now fits in 32 bits (SaturateI32's range ensures -MinInt32
	// still fits once widened to int64).
	return bits.LeadingZeros32(uint32(v)) - 1
}
