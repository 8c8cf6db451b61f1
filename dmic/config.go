package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Data model for a DMIC capture request and the hardware
 *		constants it is solved against.
 *
 * Description:	Request is the Go-native stand-in for the devicetree
 *		bindings and application call parameters the original
 *		driver reads at boot; HardwareProfile is the silicon
 *		generation's fixed constants (IOCLK, decimation ranges,
 *		coefficient RAM word width, ...). Both decode cleanly
 *		from YAML for cmd/dmicctl's bench-tool use.
 *
 *------------------------------------------------------------------*/

// NumControllers and NumFIFOs are fixed by the hardware generation this
// module targets; they are not part of HardwareProfile because nothing
// in the register map or activation logic is parametric over them.
const (
	NumControllers = 4
	NumFIFOs       = 2
	MaxStreams     = NumFIFOs
)

// HardwareProfile holds the constants spec.md calls out for a given
// silicon revision. The defaults in DefaultHardwareProfile match the
// concrete end-to-end scenarios in spec.md §8.
type HardwareProfile struct {
	IOCLKHz          int `yaml:"ioclk_hz"`
	CICDecimMin      int `yaml:"cic_decim_min"`
	CICDecimMax      int `yaml:"cic_decim_max"`
	FIRDecimMin      int `yaml:"fir_decim_min"`
	FIRDecimMax      int `yaml:"fir_decim_max"`
	FIRLengthMax     int `yaml:"fir_length_max"`
	CICShiftMin      int `yaml:"cic_shift_min"`
	CICShiftMax      int `yaml:"cic_shift_max"`
	FIRShiftMin      int `yaml:"fir_shift_min"`
	FIRShiftMax      int `yaml:"fir_shift_max"`
	FIRCoefBits      int `yaml:"fir_coef_bits"`
	FIRInputBits     int `yaml:"fir_input_bits"`
	SensitivityQ28   int32 `yaml:"sensitivity_q28"`
	OSRMinDefault    int `yaml:"osr_min_default"`  // used for fs < HighRateMinFs
	OSRMinHighRate   int `yaml:"osr_min_high_rate"` // used for fs >= HighRateMinFs
	HighRateMinFsHz  int `yaml:"high_rate_min_fs_hz"`
	PDMClkHzMin      int `yaml:"pdm_clk_hz_min"`
	DutyMin          int `yaml:"duty_min"`
	DutyMax          int `yaml:"duty_max"`
	PipelineOverhead int `yaml:"pipeline_overhead"`
	CoefRAMWords     int `yaml:"coef_ram_words"`
}

// DefaultHardwareProfile is the silicon profile used by spec.md's
// end-to-end scenarios and by cmd/dmicctl when no profile file is
// given.
func DefaultHardwareProfile() HardwareProfile {
	return HardwareProfile{
		IOCLKHz:          38_400_000,
		CICDecimMin:      5,
		CICDecimMax:      31,
		FIRDecimMin:      2,
		FIRDecimMax:      20,
		FIRLengthMax:     250,
		CICShiftMin:      -8,
		CICShiftMax:      4,
		FIRShiftMin:      0,
		FIRShiftMax:      8,
		FIRCoefBits:      20,
		FIRInputBits:     22,
		SensitivityQ28:   1 << 28,
		OSRMinDefault:    50,
		OSRMinHighRate:   40,
		HighRateMinFsHz:  64_000,
		PDMClkHzMin:      100_000,
		DutyMin:          20,
		DutyMax:          80,
		PipelineOverhead: 5,
		CoefRAMWords:     256,
	}
}

// OSRMinFor returns the minimum oversampling ratio the solver must
// enforce for the given output rate: the high-rate relaxation applies
// at and above HighRateMinFsHz.
func (hw HardwareProfile) OSRMinFor(fs int) int {
	if fs >= hw.HighRateMinFsHz {
		return hw.OSRMinHighRate
	}
	return hw.OSRMinDefault
}

// IOParams are the mic-clock electrical constraints: min/max PDM clock
// frequency, min/max duty cycle, and per-controller polarity/skew,
// packed the way the hardware's channel-map provider supplies them.
type IOParams struct {
	MinPDMClkHz    int    `yaml:"min_pdm_clk_hz"`
	MaxPDMClkHz    int    `yaml:"max_pdm_clk_hz"`
	MinDutyPercent int    `yaml:"min_duty_percent"`
	MaxDutyPercent int    `yaml:"max_duty_percent"`
	DataPolarity   uint32 `yaml:"data_polarity"`   // bitmap, one bit per controller
	ClockEdgePol   uint32 `yaml:"clock_edge_pol"`  // bitmap, one bit per controller
	ClockSkew      uint32 `yaml:"clock_skew"`      // four bits per controller, packed
}

// StreamRequest describes one of the (up to two) independent PCM
// output FIFOs.
type StreamRequest struct {
	PCMRateHz   int    `yaml:"pcm_rate_hz"` // 0 = unused
	PCMWidth    int    `yaml:"pcm_width"`   // 16, 24 or 32
	BlockSize   int    `yaml:"block_size"`
	SlabHandle  string `yaml:"slab_handle"`
}

// Request is one configure() call's worth of parameters: IO
// electrical constraints, the packed channel map, and up to two
// stream requests.
type Request struct {
	IO               IOParams        `yaml:"io"`
	ChannelMapLo     uint32          `yaml:"channel_map_lo"`
	ChannelMapHi     uint32          `yaml:"channel_map_hi"`
	RequestedChannels int            `yaml:"req_num_channels"` // 1..8
	RequestedStreams  int            `yaml:"req_num_streams"`  // 1..2
	Streams          [MaxStreams]StreamRequest `yaml:"streams"`
}

// ClampedStreams returns the number of streams the hardware will
// actually honor: the original driver clamps an over-large request to
// DMIC_MAX_STREAMS rather than failing outright.
func (r Request) ClampedStreams() int {
	n := r.RequestedStreams
	if n > MaxStreams {
		n = MaxStreams
	}
	if n < 0 {
		n = 0
	}
	return n
}
