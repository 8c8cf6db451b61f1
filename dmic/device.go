package dmic

import (
	"context"
	"fmt"
	"sync"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Device is the single owned "device private" record
 *		spec.md §9 calls out, collapsed from the original's
 *		file-scope dmic_private into one value passed by
 *		reference through Initialize/Configure/Trigger/Read.
 *		Grounded on the dmic_initialize/dmic_configure/
 *		dmic_trigger/dmic_read state machine in original_source/
 *		drivers/audio/intel_dmic.c (lines ~1100-1400).
 *
 *------------------------------------------------------------------*/

// noWaitContext returns an already-expired context, the Go analogue
// of Zephyr's K_NO_WAIT: Slab.Alloc/Queue.Put/Queue.Get all try a
// non-blocking operation first and only consult ctx if that would
// block, so this reliably yields an immediate failure in that case
// without racing a successful non-blocking attempt.
func noWaitContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 0)
}

// State is the device's lifecycle state, per spec.md §3.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateConfigured
	StateActive
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitialized:
		return "INITIALIZED"
	case StateConfigured:
		return "CONFIGURED"
	case StateActive:
		return "ACTIVE"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Trigger is one of the four commands trigger() accepts.
type Trigger int

const (
	TriggerStart Trigger = iota
	TriggerRelease
	TriggerStop
	TriggerPause
)

// stream holds one FIFO's runtime ownership chain: slab → in_queue →
// DMA → out_queue → consumer → slab, per spec.md §5.
type stream struct {
	blockSize int
	slab      Slab
	inQueue   Queue
	outQueue  Queue
	channel   int
}

// Device is the single owned record for one DMIC instance. All state
// transitions and register programming happen under mu; the DMA
// completion path (the callback built by makeCompletionCallback) takes the same lock for its brief
// queue/slab bookkeeping, standing in for the original's
// interrupts-disabled critical section.
type Device struct {
	mu sync.Mutex

	hw     HardwareProfile
	rf     RegisterFile
	dma    DMAEngine
	logger Logger

	state State
	req   Request
	mode  ChosenMode
	am    ActivationMap

	streams [MaxStreams]*stream
}

// NewDevice wires a register file, DMA engine and hardware profile
// into a Device in the UNINITIALIZED state. logger may be nil, in
// which case NopLogger is used.
func NewDevice(hw HardwareProfile, rf RegisterFile, dma DMAEngine, logger Logger) *Device {
	if logger == nil {
		logger = NopLogger
	}
	return &Device{hw: hw, rf: rf, dma: dma, logger: logger, state: StateUninitialized}
}

// Initialize transitions UNINITIALIZED → INITIALIZED. It is
// idempotent: calling it again while already past UNINITIALIZED is a
// no-op success, matching the original's dmic_initialize.
func (d *Device) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateUninitialized {
		d.state = StateInitialized
		d.logger.Infof("device: INITIALIZED")
	}
	return nil
}

// Configure runs the full solve-and-program pipeline (modes.go →
// gain.go → activation.go → program.go) and leaves the device
// CONFIGURED. Valid only from INITIALIZED or CONFIGURED, per spec.md
// §3; re-entering from CONFIGURED recomputes from scratch, there is
// no incremental update.
func (d *Device) Configure(req Request) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateInitialized && d.state != StateConfigured {
		return fmt.Errorf("dmic: configure: %w (state %s)", ErrInvalidState, d.state)
	}

	am, err := DecodeChannelMap(req)
	if err != nil {
		return err
	}

	numStreams := req.ClampedStreams()
	if numStreams < 1 {
		return configErrorf(ReasonNoStreams, "req_num_streams clamps to 0")
	}

	fsA := 0
	if numStreams >= 1 {
		fsA = req.Streams[0].PCMRateHz
	}
	fsB := 0
	if numStreams >= 2 {
		fsB = req.Streams[1].PCMRateHz
	}
	if fsA <= 0 && fsB <= 0 {
		return configErrorf(ReasonBadRate, "at least one stream must request a positive pcm_rate_hz")
	}

	if err := validateIOParams(d.hw, req.IO); err != nil {
		return fmt.Errorf("dmic: configure: %w", err)
	}

	modesA := FindModes(d.hw, req.IO, fsA)
	modesB := FindModes(d.hw, req.IO, fsB)
	merged := MatchModes(modesA, modesB)
	sel, err := SelectMode(merged)
	if err != nil {
		return fmt.Errorf("dmic: configure: %w", err)
	}

	var firA, firB *Prototype
	var ok bool
	if sel.MFIRA > 0 {
		firA, ok = Lookup(sel.MFIRA, FIRMaxLength(d.hw, fsA))
		if !ok {
			return configErrorf(ReasonFIRNotFound, "no FIR prototype for decim=%d within length budget", sel.MFIRA)
		}
	}
	if sel.MFIRB > 0 {
		firB, ok = Lookup(sel.MFIRB, FIRMaxLength(d.hw, fsB))
		if !ok {
			return configErrorf(ReasonFIRNotFound, "no FIR prototype for decim=%d within length budget", sel.MFIRB)
		}
	}

	chosen, err := PlanGain(d.hw, sel, firA, firB)
	if err != nil {
		return fmt.Errorf("dmic: configure: %w", err)
	}

	am.FIFOAUsed = fsA > 0
	am.FIFOBUsed = fsB > 0

	ProgramConfig(d.rf, d.logger, d.hw, req, chosen, am)

	for s := 0; s < numStreams; s++ {
		sr := req.Streams[s]
		if sr.BlockSize <= 0 {
			return configErrorf(ReasonBadBlockSize, "stream %d: block_size must be positive", s)
		}
		d.streams[s] = &stream{
			blockSize: sr.BlockSize,
			slab:      NewSlab(4, sr.BlockSize),
			inQueue:   NewQueue(4),
			outQueue:  NewQueue(4),
			channel:   s,
		}
		if d.dma != nil {
			cfg := DMAConfig{
				Burst:     8,
				DataSize:  4,
				Direction: PeripheralToMemory,
				Callback:  d.makeCompletionCallback(s),
			}
			if err := d.dma.Configure(s, cfg); err != nil {
				return fmt.Errorf("dmic: configure: dma channel %d: %w", s, err)
			}
		}
	}
	for s := numStreams; s < MaxStreams; s++ {
		d.streams[s] = nil
	}

	d.req = req
	d.mode = chosen
	d.am = am
	d.state = StateConfigured
	d.logger.Infof("device: CONFIGURED (%d stream(s))", numStreams)
	return nil
}

// Trigger drives the START/RELEASE/STOP/PAUSE transitions of spec.md
// §3/§4.E.4/§4.E.5. START/RELEASE are valid only from
// CONFIGURED/PAUSED; STOP is valid from ACTIVE or PAUSED; PAUSE is
// valid only from ACTIVE.
func (d *Device) Trigger(t Trigger) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch t {
	case TriggerStart, TriggerRelease:
		if d.state != StateConfigured && d.state != StatePaused {
			return fmt.Errorf("dmic: trigger(start): %w (state %s)", ErrInvalidState, d.state)
		}
		if err := d.start(); err != nil {
			return err
		}
		d.state = StateActive
		d.logger.Infof("device: ACTIVE")
		return nil

	case TriggerStop:
		if d.state != StateActive && d.state != StatePaused {
			return fmt.Errorf("dmic: trigger(stop): %w (state %s)", ErrInvalidState, d.state)
		}
		StopCapture(d.rf)
		d.state = StateConfigured
		d.logger.Infof("device: CONFIGURED (stopped)")
		return nil

	case TriggerPause:
		if d.state != StateActive {
			return fmt.Errorf("dmic: trigger(pause): %w (state %s)", ErrInvalidState, d.state)
		}
		StopCapture(d.rf)
		d.state = StatePaused
		d.logger.Infof("device: PAUSED")
		return nil

	default:
		return fmt.Errorf("dmic: trigger: %w (unknown command)", ErrInvalidState)
	}
}

// start performs §4.E.4's allocate-enqueue-reload-then-release
// sequence for every configured stream, then calls StartCapture to
// release soft reset across all controllers simultaneously.
func (d *Device) start() error {
	ctx, cancel := noWaitContext()
	defer cancel()

	for s := range d.streams {
		st := d.streams[s]
		if st == nil {
			continue
		}
		buf, err := st.slab.Alloc(ctx)
		if err != nil {
			return fmt.Errorf("dmic: start: stream %d: slab alloc: %w", s, err)
		}
		if err := st.inQueue.Put(ctx, buf); err != nil {
			return fmt.Errorf("dmic: start: stream %d: in_queue put: %w", s, err)
		}
		if d.dma != nil {
			if err := d.dma.Reload(st.channel, buf, st.blockSize); err != nil {
				return fmt.Errorf("dmic: start: stream %d: dma reload: %w", s, err)
			}
		}
	}

	StartCapture(d.rf, d.am)

	if d.dma != nil {
		for s := range d.streams {
			if d.streams[s] == nil {
				continue
			}
			if err := d.dma.Start(d.streams[s].channel); err != nil {
				return fmt.Errorf("dmic: start: stream %d: dma start: %w", s, err)
			}
		}
	}
	return nil
}

// makeCompletionCallback returns the per-channel DMA callback wired
// into DMAConfig.Callback at Configure time. It takes d.mu for its
// brief queue/slab bookkeeping, the Go equivalent of running with
// interrupts disabled; per spec.md §5 it never calls back into
// Configure or Trigger.
func (d *Device) makeCompletionCallback(streamIdx int) func(channel int, err error) {
	return func(channel int, dmaErr error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		st := d.streams[streamIdx]
		if st == nil {
			return
		}
		active := d.state == StateActive
		ctx, cancel := noWaitContext()
		defer cancel()
		sc := &streamCompletion{
			channel:   channel,
			blockSize: st.blockSize,
			inQueue:   st.inQueue,
			outQueue:  st.outQueue,
			slab:      st.slab,
			dma:       d.dma,
			logger:    d.logger,
		}
		onDMAComplete(ctx, sc, active)
	}
}

// Read returns the oldest unread buffer for streamIndex, blocking up
// to timeout. The caller must return buf to the stream's slab once
// done (Device does not do this automatically, since the caller may
// hold it for an arbitrary processing duration).
func (d *Device) Read(streamIndex int, timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	if streamIndex < 0 || streamIndex >= MaxStreams || d.streams[streamIndex] == nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("dmic: read: %w (stream %d not configured)", ErrInvalidState, streamIndex)
	}
	st := d.streams[streamIndex]
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf, err := st.outQueue.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("dmic: read: stream %d: %w", streamIndex, ErrTimeout)
	}
	return buf, nil
}

// Release returns a buffer previously returned by Read back to
// streamIndex's slab.
func (d *Device) Release(streamIndex int, buf []byte) {
	d.mu.Lock()
	st := d.streams[streamIndex]
	d.mu.Unlock()
	if st != nil {
		st.slab.Free(buf)
	}
}

// StateValue reports the device's current lifecycle state.
func (d *Device) StateValue() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
