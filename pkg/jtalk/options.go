package jtalk

import (
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/process"
	"github.com/spf13/afero"
)

// Option configures a Speaker.
type Option func(*Speaker)

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *log.Logger) Option {
	return func(s *Speaker) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFs sets the filesystem used to create the output directory and delete
// artifacts. The synthesizer and player are external programs, so anything
// other than the OS filesystem is only useful in tests.
func WithFs(fs afero.Fs) Option {
	return func(s *Speaker) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithRunner sets the process runner.
func WithRunner(r *process.Runner) Option {
	return func(s *Speaker) {
		if r != nil {
			s.runner = r
		}
	}
}

// TalkOption configures a single Talk or TalkQueue call.
type TalkOption func(*talkOptions)

type talkOptions struct {
	pitch  *float64
	onDone func(Outcome)
}

// WithPitch overrides the configured pitch.
func WithPitch(pitch float64) TalkOption {
	return func(o *talkOptions) {
		o.pitch = &pitch
	}
}

// WithDone registers a callback invoked exactly once when the handle
// finishes, including on failure and cancellation. It runs before Done is
// closed and must not call Wait on the same handle.
func WithDone(fn func(Outcome)) TalkOption {
	return func(o *talkOptions) {
		o.onDone = fn
	}
}

func newTalkOptions(opts []TalkOption) talkOptions {
	var o talkOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
