package dmic

import "context"

/*------------------------------------------------------------------
 *
 * Purpose:	The DMA completion callback's state machine, split out of
 *		Device so it can be unit-tested without a real interrupt
 *		context. Grounded on dmic_dma_callback in original_source/
 *		drivers/audio/intel_dmic.c lines 958-1012, restructured per
 *		spec.md DESIGN NOTES §9 as an explicit switch over
 *		(state, in_queue_has_buffer, alloc_ok) rather than the
 *		original's nested if/else.
 *
 *------------------------------------------------------------------*/

// completionCase names the five disjoint outcomes of one DMA
// completion, matching DESIGN NOTES §9's "(state, in_queue_has_buffer,
// alloc_ok)" description.
type completionCase int

const (
	caseStopHadBuffer completionCase = iota
	caseStopNoBuffer
	caseActiveReload
	caseActiveAllocFailed
	caseActiveQueueEmpty
)

// classifyCompletion maps the three observed facts to one of the five
// cases. active is dmic_private.state == DMIC_STATE_ACTIVE at the
// moment of completion; hasBuffer is whether in_queue yielded a
// buffer; allocOK is only meaningful (and only consulted) when active
// && hasBuffer.
func classifyCompletion(active, hasBuffer, allocOK bool) completionCase {
	switch {
	case !active && hasBuffer:
		return caseStopHadBuffer
	case !active && !hasBuffer:
		return caseStopNoBuffer
	case active && !hasBuffer:
		return caseActiveQueueEmpty
	case active && hasBuffer && allocOK:
		return caseActiveReload
	default: // active && hasBuffer && !allocOK
		return caseActiveAllocFailed
	}
}

// streamCompletion holds the per-stream state a completion callback
// needs: the queues ping-ponging buffer ownership, the slab they're
// carved from, the DMA engine and channel to reload/stop, and the
// logger to trace the outcome on.
type streamCompletion struct {
	channel   int
	blockSize int
	inQueue   Queue
	outQueue  Queue
	slab      Slab
	dma       DMAEngine
	logger    Logger
}

// onDMAComplete is the non-blocking body of the completion callback:
// it must not block, so the caller passes an already-expired ctx
// (noWaitContext) and every queue/slab operation below either succeeds
// at once or fails at once.
func onDMAComplete(ctx context.Context, s *streamCompletion, active bool) {
	buf, getErr := s.inQueue.Get(ctx)
	hasBuffer := getErr == nil

	var allocOK bool
	var newBuf []byte
	if active && hasBuffer {
		var allocErr error
		newBuf, allocErr = s.slab.Alloc(ctx)
		allocOK = allocErr == nil
	}

	switch classifyCompletion(active, hasBuffer, allocOK) {
	case caseStopHadBuffer:
		s.logger.Debugf("dma[%d]: stop, releasing in-flight buffer", s.channel)
		_ = s.dma.Stop(s.channel)
		s.slab.Free(buf)

	case caseStopNoBuffer:
		s.logger.Debugf("dma[%d]: stop, no buffer to release", s.channel)
		_ = s.dma.Stop(s.channel)

	case caseActiveReload:
		if err := s.outQueue.Put(ctx, buf); err != nil {
			s.logger.Errorf("dma[%d]: out_queue full: %v", s.channel, err)
		}
		if err := s.inQueue.Put(ctx, newBuf); err != nil {
			s.logger.Errorf("dma[%d]: in_queue put failed: %v", s.channel, err)
		}
		if err := s.dma.Reload(s.channel, newBuf, s.blockSize); err != nil {
			s.logger.Errorf("dma[%d]: reload failed: %v", s.channel, err)
			return
		}
		if err := s.dma.Start(s.channel); err != nil {
			s.logger.Errorf("dma[%d]: start failed: %v", s.channel, err)
		}

	case caseActiveAllocFailed:
		s.logger.Errorf("dma[%d]: buffer alloc from slab failed, capture stalls on this channel", s.channel)
		if err := s.outQueue.Put(ctx, buf); err != nil {
			s.logger.Errorf("dma[%d]: out_queue full: %v", s.channel, err)
		}

	case caseActiveQueueEmpty:
		s.logger.Errorf("dma[%d]: in_queue empty while active, nothing to reload", s.channel)
	}
}
