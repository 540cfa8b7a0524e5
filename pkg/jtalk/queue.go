package jtalk

import (
	"context"
	"errors"
	"slices"

	"github.com/dgnsrekt/jtalk/internal/queue"
	"golang.org/x/sync/errgroup"
)

// slot carries one item's artifact from the synthesis cursor to the playback
// cursor. ready is closed once artifact and code are set.
type slot struct {
	ready    chan struct{}
	artifact string
	code     int
}

// TalkQueue speaks texts in order and returns immediately.
//
// Items are synthesized one at a time in list order, skipping text that is
// already cached. Playback also runs in list order and starts on an item as
// soon as its audio exists and the previous item finished playing, so later
// items are synthesized while earlier ones play. An item whose synthesis
// fails is skipped and counted in Outcome.Failed. The outcome is reported
// once, after the last item. texts is copied; the caller may reuse it.
func (s *Speaker) TalkQueue(texts []string, opts ...TalkOption) *Handle {
	texts = slices.Clone(texts)
	o := newTalkOptions(opts)
	q := queue.NewPlaybackQueue(texts)
	return s.start(q, o, func(ctx context.Context, h *Handle) {
		h.finish(s.talkQueue(ctx, h, q, texts, o.pitch))
	})
}

func (s *Speaker) talkQueue(ctx context.Context, h *Handle, q *queue.PlaybackQueue, texts []string, pitch *float64) Outcome {
	h.setState(StateChecking)

	slots := make([]*slot, len(texts))
	for i := range slots {
		slots[i] = &slot{ready: make(chan struct{})}
	}

	var (
		out        Outcome
		synthFails bool
		playFails  bool
	)

	g, gctx := errgroup.WithContext(ctx)

	// Synthesis cursor
	g.Go(func() error {
		next := 0
		defer func() {
			// Release anything the playback cursor could still wait on.
			for ; next < len(slots); next++ {
				close(slots[next].ready)
			}
		}()

		for ; next < len(texts); next++ {
			if err := gctx.Err(); err != nil {
				return err
			}

			sl := slots[next]
			if artifact, ok := s.cache.Get(texts[next]); ok {
				sl.artifact = artifact
				close(sl.ready)
				continue
			}

			res := s.synth.Synthesize(gctx, texts[next], pitch).Wait()
			sl.artifact, sl.code = res.Artifact, res.ExitCode
			close(sl.ready)
		}
		return nil
	})

	// Playback cursor
	g.Go(func() error {
		for {
			item, err := q.Peek()
			if err != nil {
				// Drained or cleared by Cancel.
				return nil
			}

			sl := slots[item.Index]
			select {
			case <-sl.ready:
			default:
				h.setState(StateSynthesizing)
				select {
				case <-sl.ready:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			if sl.artifact == "" {
				s.logger.Warn("Skipping item, synthesis failed", "index", item.Index, "text", item.Text, "code", sl.code)
				out.ExitCode, out.Stage = sl.code, StageSynthesis
				out.Failed++
				synthFails = true
				_, _ = q.Pop()
				continue
			}

			h.setState(StatePlaying)
			code := s.player.Play(gctx, sl.artifact).Wait()
			if err := gctx.Err(); err != nil {
				out.ExitCode, out.Stage = code, StagePlayback
				return err
			}

			out.ExitCode, out.Stage = code, StagePlayback
			if code != 0 {
				s.logger.Warn("Playback failed", "index", item.Index, "text", item.Text, "code", code)
				out.Failed++
				playFails = true
			} else {
				out.Played++
			}
			_, _ = q.Pop()
		}
	})

	_ = g.Wait()

	switch {
	case ctx.Err() != nil:
		out.Err = ErrCanceled
	default:
		var errs []error
		if synthFails {
			errs = append(errs, ErrSynthesisFailed)
		}
		if playFails {
			errs = append(errs, ErrPlaybackFailed)
		}
		out.Err = errors.Join(errs...)
	}

	s.logger.Debug("Queue finished",
		"items", len(texts),
		"played", out.Played,
		"failed", out.Failed,
		"remaining", q.Len(),
		"stats", q.GetStats())
	return out
}
