package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Decimation-mode solver: enumerate candidate
 *		(clkdiv, mcic, mfir) triples per FIFO, merge two
 *		per-FIFO lists into compatible pairs, and pick one.
 *
 *------------------------------------------------------------------*/

// ModeCandidate is one feasible hardware configuration for a single
// FIFO: IOCLK_HZ == fs * mfir * mcic * clkdiv holds exactly.
type ModeCandidate struct {
	ClkDiv int
	MCIC   int
	MFIR   int
}

// MergedCandidate is a ModeCandidate pair sharing PDM clock and CIC
// stage but possibly differing FIR decimation, produced by MatchModes.
type MergedCandidate struct {
	ClkDiv int
	MCIC   int
	MFIRA  int // 0 if FIFO A unused
	MFIRB  int // 0 if FIFO B unused
}

// validateIOParams checks the requested PDM clock and duty-cycle bounds
// for sanity and against what the silicon profile can actually do,
// mirroring the upfront guard find_modes applies before ever dividing
// by them (original_source/drivers/audio/intel_dmic.c lines 260-293).
func validateIOParams(hw HardwareProfile, io IOParams) error {
	maxPDMClk := hw.IOCLKHz / 2
	if io.MinPDMClkHz <= 0 || io.MaxPDMClkHz <= 0 || io.MinPDMClkHz > io.MaxPDMClkHz ||
		io.MinPDMClkHz < hw.PDMClkHzMin || io.MaxPDMClkHz > maxPDMClk {
		return configErrorf(ReasonClockOutOfRange,
			"pdm clock range [%d,%d] hz invalid or outside silicon bounds [%d,%d]",
			io.MinPDMClkHz, io.MaxPDMClkHz, hw.PDMClkHzMin, maxPDMClk)
	}
	if io.MinDutyPercent <= 0 || io.MaxDutyPercent <= 0 || io.MinDutyPercent > io.MaxDutyPercent ||
		io.MinDutyPercent < hw.DutyMin || io.MaxDutyPercent > hw.DutyMax {
		return configErrorf(ReasonDutyOutOfRange,
			"duty cycle range [%d,%d] %% invalid or outside silicon bounds [%d,%d]",
			io.MinDutyPercent, io.MaxDutyPercent, hw.DutyMin, hw.DutyMax)
	}
	return nil
}

// FindModes enumerates every (clkdiv, mcic, mfir) triple that exactly
// realizes fs from hw.IOCLKHz subject to the IO electrical constraints.
// If fs is 0 the FIFO is disabled and the result is empty. An IOParams
// that fails validateIOParams (e.g. a YAML-decoded request with a
// zero-valued min/max PDM clock) yields no candidates rather than
// dividing by the offending field; Device.Configure calls
// validateIOParams itself first so such a request gets the precise
// ConfigError instead of silently finding nothing.
func FindModes(hw HardwareProfile, io IOParams, fs int) []ModeCandidate {
	var modes []ModeCandidate
	if fs == 0 {
		return modes
	}
	if validateIOParams(hw, io) != nil {
		return modes
	}

	osrMin := hw.OSRMinFor(fs)

	clkdivMin := ceilDiv(hw.IOCLKHz, io.MaxPDMClkHz)
	if clkdivMin < hw.CICDecimMin {
		clkdivMin = hw.CICDecimMin
	}
	clkdivMax := hw.IOCLKHz / io.MinPDMClkHz

	for clkdiv := clkdivMin; clkdiv <= clkdivMax; clkdiv++ {
		c1 := clkdiv / 2
		duMin := 100 * c1 / clkdiv
		duMax := 100 - duMin
		if duMin < io.MinDutyPercent || duMax > io.MaxDutyPercent {
			continue
		}

		pdmClk := hw.IOCLKHz / clkdiv
		osr := pdmClk / fs
		if osr < osrMin {
			continue
		}

		for mfir := hw.FIRDecimMin; mfir <= hw.FIRDecimMax; mfir++ {
			mcic := osr / mfir
			if mcic < hw.CICDecimMin || mcic > hw.CICDecimMax {
				continue
			}
			if fs*mfir*mcic*clkdiv != hw.IOCLKHz {
				continue
			}
			modes = append(modes, ModeCandidate{ClkDiv: clkdiv, MCIC: mcic, MFIR: mfir})
		}
	}

	return modes
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// MatchModes merges the per-FIFO candidate lists for stream A and
// stream B. If either list is empty (the corresponding FIFO wasn't
// requested) the other passes through unchanged with the unused FIR
// decimation marked 0. If both are non-empty, only tuples sharing
// clkdiv and mcic survive.
func MatchModes(a, b []ModeCandidate) []MergedCandidate {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	if len(b) == 0 {
		out := make([]MergedCandidate, len(a))
		for i, m := range a {
			out[i] = MergedCandidate{ClkDiv: m.ClkDiv, MCIC: m.MCIC, MFIRA: m.MFIR, MFIRB: 0}
		}
		return out
	}

	if len(a) == 0 {
		out := make([]MergedCandidate, len(b))
		for i, m := range b {
			out[i] = MergedCandidate{ClkDiv: m.ClkDiv, MCIC: m.MCIC, MFIRA: 0, MFIRB: m.MFIR}
		}
		return out
	}

	var out []MergedCandidate
	for _, ma := range a {
		for _, mb := range b {
			if ma.ClkDiv == mb.ClkDiv && ma.MCIC == mb.MCIC {
				out = append(out, MergedCandidate{
					ClkDiv: ma.ClkDiv,
					MCIC:   ma.MCIC,
					MFIRA:  ma.MFIR,
					MFIRB:  mb.MFIR,
				})
			}
		}
	}
	return out
}

// SelectMode picks, among merged candidates, the one with the smallest
// FIR decimation factor in use (FIR A's if present, else FIR B's).
// Ties are broken by largest clkdiv (slowest mic clock, lowest
// microphone power); remaining ties resolve to the last candidate in
// merged list order.
func SelectMode(modes []MergedCandidate) (MergedCandidate, error) {
	if len(modes) == 0 {
		return MergedCandidate{}, configErrorf(ReasonNoModes, "no feasible decimation mode")
	}

	activeMFIR := func(m MergedCandidate) int {
		if m.MFIRA > 0 {
			return m.MFIRA
		}
		return m.MFIRB
	}

	best := modes[0]
	for _, m := range modes[1:] {
		switch {
		case activeMFIR(m) < activeMFIR(best):
			best = m
		case activeMFIR(m) == activeMFIR(best) && m.ClkDiv >= best.ClkDiv:
			best = m
		}
	}
	return best, nil
}
