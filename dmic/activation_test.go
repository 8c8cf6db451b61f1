package dmic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packChannel builds a channel-map nibble for controller c, leg lr, at
// logical channel index ch, returning the (lo, hi) words updated.
func packChannel(lo, hi uint32, ch, controller int, lr ChannelLR) (uint32, uint32) {
	nibble := uint32(controller&0x7) | uint32(lr)<<3
	if ch < 8 {
		lo |= nibble << uint(ch*4)
	} else {
		hi |= nibble << uint((ch-8)*4)
	}
	return lo, hi
}

// TestScenarioS1_ChannelMap is spec scenario S1: one mono-left channel
// on controller 0.
func TestScenarioS1_ChannelMap(t *testing.T) {
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 0, 0, ChanLeft)

	req := Request{ChannelMapLo: lo, ChannelMapHi: hi, RequestedChannels: 1}
	am, err := DecodeChannelMap(req)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x1), am.ControllerMask)
	assert.Equal(t, uint8(0), am.StereoMask)
	assert.Equal(t, uint8(0), am.ChannelSwapMask)
	assert.Equal(t, 1, am.NumDecimators)
}

// TestScenarioS2_StereoChannelMap is spec scenario S2: L+R on
// controller 0, which must set the stereo bit and no swap bit.
func TestScenarioS2_StereoChannelMap(t *testing.T) {
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 0, 0, ChanLeft)
	lo, hi = packChannel(lo, hi, 1, 0, ChanRight)

	req := Request{ChannelMapLo: lo, ChannelMapHi: hi, RequestedChannels: 2}
	am, err := DecodeChannelMap(req)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x1), am.ControllerMask)
	assert.Equal(t, uint8(0x1), am.StereoMask)
	assert.Equal(t, uint8(0), am.ChannelSwapMask)
	assert.Equal(t, uint16(0x3), am.MicEnableMask&0x3)
}

// TestScenarioS3_MonoRight is spec scenario S3: a single right-channel
// request on controller 0 needs a swap.
func TestScenarioS3_MonoRight(t *testing.T) {
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 0, 0, ChanRight)

	req := Request{ChannelMapLo: lo, ChannelMapHi: hi, RequestedChannels: 1}
	am, err := DecodeChannelMap(req)
	require.NoError(t, err)

	assert.Equal(t, uint8(0x1), am.ChannelSwapMask)
	assert.Equal(t, uint8(0), am.StereoMask)
	// Right leg enabled, left cleared.
	assert.NotZero(t, am.MicEnableMask&(1<<uint(ChanRight)))
	assert.Zero(t, am.MicEnableMask&(1<<uint(ChanLeft)))

	edgeS1 := EffectiveClockEdge(0, ActivationMap{}, 0)
	edgeS3 := EffectiveClockEdge(0, am, 0)
	assert.NotEqual(t, edgeS1, edgeS3, "mono-right should invert the effective clock edge relative to mono-left")
}

func TestDecodeChannelMapRejectsOutOfRangeController(t *testing.T) {
	// Controller index 7 doesn't exist (NumControllers == 4).
	nibble := uint32(7)
	req := Request{ChannelMapLo: nibble, RequestedChannels: 1}
	_, err := DecodeChannelMap(req)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecodeChannelMapFirstOccurrenceAllocatesIPMSlot(t *testing.T) {
	// Two channels both naming controller 2 should only allocate one
	// IPM slot, at slot 0 (first occurrence order).
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 0, 2, ChanLeft)
	lo, hi = packChannel(lo, hi, 1, 2, ChanRight)

	req := Request{ChannelMapLo: lo, ChannelMapHi: hi, RequestedChannels: 2}
	am, err := DecodeChannelMap(req)
	require.NoError(t, err)

	assert.Equal(t, 1, am.NumDecimators)
	assert.Equal(t, uint32(2), am.IPMSource&0xF, "controller 2 should occupy IPM slot 0")
}

func TestDecodeChannelEncodesControllerAndLR(t *testing.T) {
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 3, 1, ChanRight)
	lo, hi = packChannel(lo, hi, 9, 2, ChanLeft)

	c, lr := DecodeChannel(lo, hi, 3)
	assert.Equal(t, 1, c)
	assert.Equal(t, ChanRight, lr)

	c2, lr2 := DecodeChannel(lo, hi, 9)
	assert.Equal(t, 2, c2)
	assert.Equal(t, ChanLeft, lr2)
}
