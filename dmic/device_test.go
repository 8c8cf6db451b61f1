package dmic

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monoRequest() Request {
	var lo, hi uint32
	lo, hi = packChannel(lo, hi, 0, 0, ChanLeft)
	req := Request{
		IO:                defaultIO(),
		ChannelMapLo:      lo,
		ChannelMapHi:      hi,
		RequestedChannels: 1,
		RequestedStreams:  1,
	}
	req.Streams[0] = StreamRequest{PCMRateHz: 48000, PCMWidth: 16, BlockSize: 64}
	return req
}

func newTestDevice() (*Device, *SimDMA) {
	hw := DefaultHardwareProfile()
	rf := NewByteSliceRegisterFile()
	sim := NewSimDMA()
	return NewDevice(hw, rf, sim, NopLogger), sim
}

func TestDeviceLifecycleHappyPath(t *testing.T) {
	dev, sim := newTestDevice()
	assert.Equal(t, StateUninitialized, dev.StateValue())

	require.NoError(t, dev.Initialize())
	assert.Equal(t, StateInitialized, dev.StateValue())

	require.NoError(t, dev.Configure(monoRequest()))
	assert.Equal(t, StateConfigured, dev.StateValue())

	require.NoError(t, dev.Trigger(TriggerStart))
	assert.Equal(t, StateActive, dev.StateValue())

	sim.CompleteChannel(0, nil)
	buf, err := dev.Read(0, time.Second)
	require.NoError(t, err)
	assert.Len(t, buf, 64)
	dev.Release(0, buf)

	require.NoError(t, dev.Trigger(TriggerStop))
	assert.Equal(t, StateConfigured, dev.StateValue())
}

func TestDevicePauseResume(t *testing.T) {
	dev, sim := newTestDevice()
	require.NoError(t, dev.Initialize())
	require.NoError(t, dev.Configure(monoRequest()))
	require.NoError(t, dev.Trigger(TriggerStart))

	require.NoError(t, dev.Trigger(TriggerPause))
	assert.Equal(t, StatePaused, dev.StateValue())

	require.NoError(t, dev.Trigger(TriggerRelease))
	assert.Equal(t, StateActive, dev.StateValue())

	sim.CompleteChannel(0, nil)
	_, err := dev.Read(0, time.Second)
	require.NoError(t, err)
}

func TestDeviceTriggerInvalidFromUninitialized(t *testing.T) {
	dev, _ := newTestDevice()
	err := dev.Trigger(TriggerStart)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeviceConfigureInvalidBeforeInitialize(t *testing.T) {
	dev, _ := newTestDevice()
	err := dev.Configure(monoRequest())
	assert.ErrorIs(t, err, ErrInvalidState)
}

// TestDeviceConfigureRejectsInfeasibleRate is spec scenario S4: an
// unsatisfiable rate must leave the device INITIALIZED, not CONFIGURED.
func TestDeviceConfigureRejectsInfeasibleRate(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())

	req := monoRequest()
	req.Streams[0].PCMRateHz = 44100

	err := dev.Configure(req)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, StateInitialized, dev.StateValue())
}

// TestDeviceConfigureRejectsZeroValuedIOParams covers a YAML request
// file that omits min_pdm_clk_hz/max_pdm_clk_hz: Configure must return
// ErrInvalidConfig tagged clock_out_of_range synchronously, never panic
// on the divide in FindModes.
func TestDeviceConfigureRejectsZeroValuedIOParams(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())

	req := monoRequest()
	req.IO.MinPDMClkHz = 0
	req.IO.MaxPDMClkHz = 0

	var err error
	assert.NotPanics(t, func() { err = dev.Configure(req) })
	assert.ErrorIs(t, err, ErrInvalidConfig)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ReasonClockOutOfRange, ce.Reason)
	assert.Equal(t, StateInitialized, dev.StateValue())
}

// TestDeviceConfigureRejectsBadDutyRange covers the duty_out_of_range
// sub-reason through the public Configure path.
func TestDeviceConfigureRejectsBadDutyRange(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())

	req := monoRequest()
	req.IO.MinDutyPercent = 80
	req.IO.MaxDutyPercent = 20 // min > max

	err := dev.Configure(req)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ReasonDutyOutOfRange, ce.Reason)
	assert.Equal(t, StateInitialized, dev.StateValue())
}

func TestDeviceReadTimesOutWithNoCompletion(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())
	require.NoError(t, dev.Configure(monoRequest()))
	require.NoError(t, dev.Trigger(TriggerStart))

	_, err := dev.Read(0, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDeviceReadUnconfiguredStreamFails(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())
	require.NoError(t, dev.Configure(monoRequest()))
	require.NoError(t, dev.Trigger(TriggerStart))

	_, err := dev.Read(1, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeviceReconfigureReplacesStreams(t *testing.T) {
	dev, _ := newTestDevice()
	require.NoError(t, dev.Initialize())
	require.NoError(t, dev.Configure(monoRequest()))

	req2 := monoRequest()
	req2.RequestedStreams = 1
	req2.Streams[0].BlockSize = 128
	require.NoError(t, dev.Configure(req2))
	assert.Equal(t, StateConfigured, dev.StateValue())

	require.NoError(t, dev.Trigger(TriggerStart))
	dev.mu.Lock()
	sz := dev.streams[0].blockSize
	dev.mu.Unlock()
	assert.Equal(t, 128, sz)
}
