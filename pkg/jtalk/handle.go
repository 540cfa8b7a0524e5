package jtalk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/jtalk/internal/queue"
)

// State is the progress of a handle.
type State int32

const (
	StateIdle State = iota
	StateChecking
	StateSynthesizing
	StatePlaying
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateSynthesizing:
		return "synthesizing"
	case StatePlaying:
		return "playing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stage identifies which external program an outcome came from.
type Stage int

const (
	StageNone Stage = iota
	StageSynthesis
	StagePlayback
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageSynthesis:
		return "synthesis"
	case StagePlayback:
		return "playback"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Outcome describes how a handle finished.
//
// ExitCode is the exit code of the last process that ran: the player's when
// playback happened, otherwise the synthesizer's. Err classifies the result
// and is nil only when everything played successfully.
type Outcome struct {
	ExitCode int
	Stage    Stage
	Err      error

	// Played and Failed count utterances.
	Played int
	Failed int
}

// OK reports whether every utterance was played successfully.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Handle tracks one Talk or TalkQueue call.
type Handle struct {
	cancel context.CancelFunc
	queue  *queue.PlaybackQueue

	state   atomic.Int32
	once    sync.Once
	onDone  func(Outcome)
	outcome Outcome
	done    chan struct{}
}

func newHandle(cancel context.CancelFunc, q *queue.PlaybackQueue, onDone func(Outcome)) *Handle {
	return &Handle{
		cancel: cancel,
		queue:  q,
		onDone: onDone,
		done:   make(chan struct{}),
	}
}

// Cancel stops the handle: pending queue items are dropped and whichever
// synthesizer or player process is running is killed. It returns
// immediately. Cancel after the handle is done is a no-op.
//
// The context is cancelled before the queue is cleared, so a player that
// exits on its own in between is still reported as cancelled.
func (h *Handle) Cancel() {
	h.cancel()
	if h.queue != nil {
		h.queue.Clear()
	}
}

// Done is closed once the handle has finished and its callback has run.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle finishes and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.outcome
}

// State returns the current state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Pending returns the utterances still waiting to be played. It is always
// empty for a single Talk.
func (h *Handle) Pending() []string {
	if h.queue == nil {
		return nil
	}
	return h.queue.Pending()
}

func (h *Handle) setState(s State) {
	h.state.Store(int32(s))
}

// finish records the outcome, runs the callback and releases waiters. Only
// the first call has any effect.
func (h *Handle) finish(o Outcome) {
	h.once.Do(func() {
		h.outcome = o
		h.setState(StateDone)
		h.cancel()
		if h.onDone != nil {
			h.onDone(o)
		}
		close(h.done)
	})
}
