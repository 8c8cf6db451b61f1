package dmic

/*------------------------------------------------------------------
 *
 * Purpose:	Decode the packed channel map into the activation
 *		bitmaps the register programmer and start sequence
 *		consume.
 *
 * Description:	Walks the requested channels in request order; the
 *		first occurrence of a controller index allocates it an
 *		IPM-source slot (0..3). The stereo bit is set for a
 *		controller iff both its L and R channels were requested.
 *		The swap bit is set iff the controller's first-requested
 *		channel is its right channel, so the hardware's
 *		natively-left mono path can serve a mono-right
 *		microphone without a software rotation.
 *
 *------------------------------------------------------------------*/

// ChannelLR identifies which stereo leg a packed channel-map entry
// names.
type ChannelLR uint8

const (
	ChanLeft  ChannelLR = 0
	ChanRight ChannelLR = 1
)

// DecodeChannel extracts (controller_index, L|R) for logical channel
// index ch from the packed 4-bit-per-channel channel map: channels
// 0..7 are in lo, channels 8..15 in hi. The low three bits of each
// nibble name the controller, the top bit names L/R. Request carries
// the two packed words as given; this package does not build them.
func DecodeChannel(lo, hi uint32, ch int) (controller int, lr ChannelLR) {
	var nibble uint32
	if ch < 8 {
		nibble = (lo >> uint(ch*4)) & 0xF
	} else {
		nibble = (hi >> uint((ch-8)*4)) & 0xF
	}
	controller = int(nibble & 0x7)
	lr = ChannelLR((nibble >> 3) & 0x1)
	return controller, lr
}

// ActivationMap is the per-programming-pass output of channel-map
// decoding: which controllers are active, which are stereo, which
// need a channel swap, the L/R mic-enable bitmap, which FIFOs are
// used, and the packed IPM source field.
type ActivationMap struct {
	ControllerMask  uint8 // bit c set iff controller c is active
	StereoMask      uint8 // bit c set iff controller c runs stereo
	ChannelSwapMask uint8 // bit c set iff controller c's channels are swapped
	MicEnableMask   uint16 // two bits per controller: (L, R)
	FIFOAUsed       bool
	FIFOBUsed       bool
	IPMSource       uint32 // controller index per IPM slot 1..4, one slot per nibble (slot 1 in bits 3:0)
	NumDecimators   int    // count of active controllers (IPM slots used)
}

// DecodeChannelMap walks req_num_channels entries of the packed
// channel map and produces the ActivationMap's controller/stereo/swap/
// mic-enable fields. FIFOAUsed/FIFOBUsed are filled in separately by
// the caller once the chosen mode is known.
func DecodeChannelMap(req Request) (ActivationMap, error) {
	var am ActivationMap
	var lrSeenMask uint16 // bit (2*c + lr) set once that leg has been seen

	ipmSlot := 0
	for ch := 0; ch < req.RequestedChannels; ch++ {
		controller, lr := DecodeChannel(req.ChannelMapLo, req.ChannelMapHi, ch)
		if controller >= NumControllers {
			return ActivationMap{}, configErrorf(ReasonBadChannelMap,
				"channel %d maps to controller %d, only %d present", ch, controller, NumControllers)
		}

		if am.ControllerMask&(1<<uint(controller)) == 0 {
			am.ControllerMask |= 1 << uint(controller)
			am.IPMSource |= uint32(controller) << uint(ipmSlot*4)
			ipmSlot++
			// First occurrence of this controller: if it's the
			// right channel, this controller needs a swap so
			// the left-only mono path serves it.
			if lr == ChanRight {
				am.ChannelSwapMask |= 1 << uint(controller)
			}
		}

		legBit := uint16(1) << uint(int(lr)+controller*2)
		lrSeenMask |= legBit
		bothLegs := (uint16(1) << uint(controller*2)) | (uint16(1) << uint(controller*2+1))
		if lrSeenMask&bothLegs == bothLegs {
			am.StereoMask |= 1 << uint(controller)
		}
	}
	am.NumDecimators = ipmSlot

	for c := 0; c < NumControllers; c++ {
		if am.ControllerMask&(1<<uint(c)) == 0 {
			continue
		}
		if am.StereoMask&(1<<uint(c)) != 0 {
			am.MicEnableMask |= (1<<uint(ChanLeft) | 1<<uint(ChanRight)) << uint(c*2)
			continue
		}
		if am.ChannelSwapMask&(1<<uint(c)) == 0 {
			am.MicEnableMask |= 1 << uint(ChanLeft) << uint(c*2)
		} else {
			am.MicEnableMask |= 1 << uint(ChanRight) << uint(c*2)
		}
	}

	return am, nil
}

// EffectiveClockEdge is the per-controller clock edge actually
// programmed into MIC_CONTROL: the requested polarity XORed with the
// controller's swap bit, since a mono-right microphone reads the PDM
// bitstream on the opposite clock edge from a mono-left one.
func EffectiveClockEdge(requestedPolarity uint32, am ActivationMap, controller int) uint32 {
	swap := (uint32(am.ChannelSwapMask) >> uint(controller)) & 1
	pol := (requestedPolarity >> uint(controller)) & 1
	return pol ^ swap
}
