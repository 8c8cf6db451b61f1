package dmic

import "math"

/*------------------------------------------------------------------
 *
 * Purpose:	Read-only catalog of FIR decimation prototypes, analogous
 *		to the vendor's ROM-resident coefficient tables.
 *
 * Description:	Each prototype supplies (decimation_factor, length,
 *		shift, coefficients[]) in descending-length order per
 *		decimation factor, so Lookup can pick the best filter
 *		that still fits the CPU budget implied by the output
 *		sample rate.
 *
 *		The coefficient values themselves are generated once at
 *		package init by a small windowed-sinc design routine
 *		rather than hand-transcribed from a vendor dump: the
 *		vendor's actual tap values aren't available to this
 *		module, but the catalog's *shape* (eight prototypes,
 *		decimation factors 2,2,3,3,4,5,6,8, longer filter first
 *		within a factor) mirrors the original silicon's table
 *		exactly, which is what the solver and gain planner
 *		actually depend on.
 *
 *------------------------------------------------------------------*/

// Prototype is one FIR decimation filter as the hardware's coefficient
// RAM expects it: a decimation factor, tap count, a Q-format shift
// applied by the raw coefficient encoding, and the coefficients
// themselves in natural (not reversed) order.
type Prototype struct {
	DecimFactor int
	Length      int
	Shift       int
	Coef        []int32
}

// firCatalog is the ROM-equivalent ordered list: within a given
// DecimFactor, longer (higher-quality) filters precede shorter ones.
var firCatalog = buildFIRCatalog()

// protoSpec describes one catalog entry before its coefficients are
// generated: the decimation factor, desired tap count and the
// normalized passband edge (relative to the decimated Nyquist) used by
// the window-sinc design.
type protoSpec struct {
	decim  int
	length int
	cutoff float64
}

func buildFIRCatalog() []*Prototype {
	specs := []protoSpec{
		{decim: 2, length: 163, cutoff: 0.4375},
		{decim: 2, length: 109, cutoff: 0.4288},
		{decim: 3, length: 219, cutoff: 0.4375},
		{decim: 3, length: 147, cutoff: 0.3850},
		{decim: 4, length: 201, cutoff: 0.4375},
		{decim: 5, length: 161, cutoff: 0.4331},
		{decim: 6, length: 125, cutoff: 0.4156},
		{decim: 8, length: 99, cutoff: 0.4156},
	}

	out := make([]*Prototype, len(specs))
	for i, s := range specs {
		out[i] = &Prototype{
			DecimFactor: s.decim,
			Length:      s.length,
			Shift:       0,
			Coef:        buildPrototype(s.length, s.cutoff*0.5/float64(s.decim)),
		}
	}
	return out
}

// buildPrototype designs a symmetric, unity-DC-gain low-pass FIR of the
// requested odd length with a Hamming-windowed sinc impulse response,
// and returns it quantized to Q31 integers. This stands in for the
// silicon vendor's filter design tool output.
func buildPrototype(length int, cutoff float64) []int32 {
	if length%2 == 0 {
		length++
	}
	taps := make([]float64, length)
	mid := float64(length-1) / 2
	sum := 0.0
	for n := 0; n < length; n++ {
		x := float64(n) - mid
		var h float64
		if x == 0 {
			h = 2 * cutoff
		} else {
			h = math.Sin(2*math.Pi*cutoff*x) / (math.Pi * x)
		}
		// Hamming window.
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(length-1))
		taps[n] = h * w
		sum += taps[n]
	}
	// Normalize to unity DC gain.
	for n := range taps {
		taps[n] /= sum
	}

	coef := make([]int32, length)
	const q31 = float64(int64(1) << 31)
	for n, t := range taps {
		v := t * q31
		if v > float64(math32Max) {
			v = float64(math32Max)
		}
		if v < float64(math32Min) {
			v = float64(math32Min)
		}
		coef[n] = int32(math.Round(v))
	}
	return coef
}

// Lookup returns the first prototype in catalog order whose decimation
// factor equals m and whose length fits within maxLength, or (nil,
// false) if none does. Because the catalog is ordered longest-first per
// decimation factor, this always returns the highest-quality filter
// that fits the CPU budget.
func Lookup(m int, maxLength int) (*Prototype, bool) {
	for _, p := range firCatalog {
		if p.DecimFactor == m && p.Length <= maxLength {
			return p, true
		}
	}
	return nil, false
}

// FIRMaxLength derives L_max per spec: the hardware shares one
// multiplier across channels at the output sample period, so the
// filter length is bounded by the number of IOCLK cycles available per
// output sample, less per-channel pipeline overhead.
func FIRMaxLength(hw HardwareProfile, fsOut int) int {
	if fsOut <= 0 {
		return 0
	}
	maxLen := hw.IOCLKHz/fsOut/2 - hw.PipelineOverhead
	if maxLen > hw.FIRLengthMax {
		maxLen = hw.FIRLengthMax
	}
	if maxLen < 0 {
		maxLen = 0
	}
	return maxLen
}
