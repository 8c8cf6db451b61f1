package dmic

import (
	"context"
	"fmt"
	"sync"
)

/*------------------------------------------------------------------
 *
 * Purpose:	The DMA/slab/queue contracts of SPEC_FULL.md §13, plus an
 *		in-memory reference implementation. Grounded on the
 *		k_mem_slab/k_msgq/dma_config machinery intel_dmic.c builds
 *		its ping-pong buffering on (original_source/drivers/audio/
 *		intel_dmic.c lines ~120-130, 950-1012, 1370-1400).
 *
 *------------------------------------------------------------------*/

// DMADirection names the one direction this driver ever programs.
type DMADirection int

const PeripheralToMemory DMADirection = 0

// DMAConfig is what Device.Configure hands the DMA engine for each
// streaming channel: burst/unit sizes and the completion callback the
// engine must invoke from its own completion context.
type DMAConfig struct {
	Burst     int
	DataSize  int
	Direction DMADirection
	Callback  func(channel int, err error)
}

// DMAEngine is the narrow contract the device needs from whatever
// moves bytes out of a FIFO and into a buffer: configure once, then
// reload/start/stop per completion. A real backend would drive an
// actual DMA controller's channel registers; NewSimDMA below is the
// in-memory stand-in used by cmd/dmicplay and by every test in this
// package.
type DMAEngine interface {
	Configure(channel int, cfg DMAConfig) error
	Reload(channel int, dst []byte, bytes int) error
	Start(channel int) error
	Stop(channel int) error
}

// Slab is a fixed-size buffer pool, the Go analogue of k_mem_slab:
// Alloc blocks until a buffer is available or ctx is done, Free
// returns one to the pool.
type Slab interface {
	Alloc(ctx context.Context) ([]byte, error)
	Free(buf []byte)
}

// Queue is a bounded FIFO of buffers, the Go analogue of k_msgq.
type Queue interface {
	Put(ctx context.Context, buf []byte) error
	Get(ctx context.Context) ([]byte, error)
}

// simSlab is a fixed-count, fixed-size buffer pool backed by a
// buffered channel of pre-allocated slices, mirroring k_mem_slab's
// "N blocks of size B, carved from one static pool" semantics.
type simSlab struct {
	free     chan []byte
	bufSize  int
}

// NewSlab returns a Slab of count buffers, each bufSize bytes.
func NewSlab(count, bufSize int) Slab {
	s := &simSlab{free: make(chan []byte, count), bufSize: bufSize}
	for i := 0; i < count; i++ {
		s.free <- make([]byte, bufSize)
	}
	return s
}

// Alloc tries an immediate, non-blocking grab first (the K_NO_WAIT
// case the DMA completion path needs); only if the pool is empty does
// it fall back to waiting on ctx, so a caller that passes an
// already-expired ctx gets true non-blocking semantics without racing
// against a buffer that was in fact available.
func (s *simSlab) Alloc(ctx context.Context) ([]byte, error) {
	select {
	case buf := <-s.free:
		return buf, nil
	default:
	}
	select {
	case buf := <-s.free:
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *simSlab) Free(buf []byte) {
	if len(buf) != s.bufSize {
		buf = buf[:s.bufSize]
	}
	select {
	case s.free <- buf:
	default:
		// Pool already holds count buffers; a double-free would
		// block forever, so drop it rather than wedge the caller.
	}
}

// simQueue is a bounded FIFO of buffer handles, the Go analogue of
// k_msgq sized for pointer-sized elements.
type simQueue struct {
	ch chan []byte
}

// NewQueue returns a Queue with room for depth buffers.
func NewQueue(depth int) Queue {
	return &simQueue{ch: make(chan []byte, depth)}
}

// Put tries an immediate, non-blocking send first; only if the queue
// is full does it fall back to waiting on ctx. A caller that wants
// K_NO_WAIT semantics passes an already-expired ctx and gets an
// immediate error without racing a send that would in fact succeed.
func (q *simQueue) Put(ctx context.Context, buf []byte) error {
	select {
	case q.ch <- buf:
		return nil
	default:
	}
	select {
	case q.ch <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get mirrors Put: an immediate non-blocking receive first, then a
// real wait on ctx. This lets the same implementation serve both the
// IRQ-context non-blocking poll (dma_completion.go, immediate ctx) and
// Device.Read's blocking-with-timeout consumer API (real deadline
// ctx).
func (q *simQueue) Get(ctx context.Context) ([]byte, error) {
	select {
	case buf := <-q.ch:
		return buf, nil
	default:
	}
	select {
	case buf := <-q.ch:
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// simDMAChannel records what Configure last set and whether Start has
// been called; SimDMA invokes Callback synchronously from
// CompleteChannel, standing in for the real hardware's interrupt.
type simDMAChannel struct {
	cfg     DMAConfig
	dst     []byte
	bytes   int
	running bool
}

// SimDMA is the in-memory DMAEngine reference implementation;
// CompleteChannel is its test/bench hook for driving one completion
// (what a real interrupt handler would do) without a hardware timer.
type SimDMA struct {
	mu   sync.Mutex
	chs  map[int]*simDMAChannel
}

// NewSimDMA returns a SimDMA engine with no channels configured yet.
func NewSimDMA() *SimDMA {
	return &SimDMA{chs: make(map[int]*simDMAChannel)}
}

func (d *SimDMA) Configure(channel int, cfg DMAConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chs[channel] = &simDMAChannel{cfg: cfg}
	return nil
}

func (d *SimDMA) Reload(channel int, dst []byte, bytes int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.chs[channel]
	if !ok {
		return fmt.Errorf("dmic: channel %d not configured", channel)
	}
	ch.dst = dst
	ch.bytes = bytes
	return nil
}

func (d *SimDMA) Start(channel int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.chs[channel]
	if !ok {
		return fmt.Errorf("dmic: channel %d not configured", channel)
	}
	ch.running = true
	return nil
}

func (d *SimDMA) Stop(channel int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch, ok := d.chs[channel]
	if !ok {
		return fmt.Errorf("dmic: channel %d not configured", channel)
	}
	ch.running = false
	return nil
}

// FillNextBuffer calls fill on the buffer currently reloaded for
// channel, standing in for the PDM bitstream a real microphone would
// have written by the time the hardware raises its completion
// interrupt. Call this immediately before CompleteChannel.
func (d *SimDMA) FillNextBuffer(channel int, fill func(buf []byte)) {
	d.mu.Lock()
	ch, ok := d.chs[channel]
	d.mu.Unlock()
	if !ok || ch.dst == nil {
		return
	}
	fill(ch.dst[:ch.bytes])
}

// CompleteChannel fires channel's completion callback with err, as a
// real DMA interrupt would. Used by tests and cmd/dmicplay to drive
// the ping-pong loop one block at a time.
func (d *SimDMA) CompleteChannel(channel int, err error) {
	d.mu.Lock()
	ch, ok := d.chs[channel]
	d.mu.Unlock()
	if !ok || ch.cfg.Callback == nil {
		return
	}
	ch.cfg.Callback(channel, err)
}
