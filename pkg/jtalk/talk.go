package jtalk

import (
	"context"
)

// Talk speaks text and returns immediately.
//
// Cached text goes straight to the player; otherwise it is synthesized first
// and the new artifact is cached. If synthesis fails nothing is played and
// the outcome carries ErrSynthesisFailed with the synthesizer's exit code.
// After playback the outcome carries the player's exit code.
func (s *Speaker) Talk(text string, opts ...TalkOption) *Handle {
	o := newTalkOptions(opts)
	return s.start(nil, o, func(ctx context.Context, h *Handle) {
		h.finish(s.talk(ctx, h, text, o.pitch))
	})
}

func (s *Speaker) talk(ctx context.Context, h *Handle, text string, pitch *float64) Outcome {
	h.setState(StateChecking)
	artifact, ok := s.cache.Get(text)

	if !ok {
		if ctx.Err() != nil {
			return Outcome{Err: ErrCanceled}
		}

		h.setState(StateSynthesizing)
		res := s.synth.Synthesize(ctx, text, pitch).Wait()
		switch {
		case ctx.Err() != nil:
			return Outcome{ExitCode: res.ExitCode, Stage: StageSynthesis, Err: ErrCanceled}
		case !res.OK():
			s.logger.Warn("Not playing, synthesis failed", "text", text, "code", res.ExitCode)
			return Outcome{ExitCode: res.ExitCode, Stage: StageSynthesis, Err: ErrSynthesisFailed, Failed: 1}
		}
		artifact = res.Artifact
	}

	if ctx.Err() != nil {
		return Outcome{Err: ErrCanceled}
	}

	h.setState(StatePlaying)
	code := s.player.Play(ctx, artifact).Wait()

	out := Outcome{ExitCode: code, Stage: StagePlayback}
	switch {
	case ctx.Err() != nil:
		out.Err = ErrCanceled
	case code != 0:
		s.logger.Warn("Playback failed", "text", text, "code", code)
		out.Err = ErrPlaybackFailed
		out.Failed = 1
	default:
		out.Played = 1
	}
	return out
}
