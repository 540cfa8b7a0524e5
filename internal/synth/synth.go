// Package synth runs the speech synthesizer and registers the audio it
// produces in the speech cache.
package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/cache"
	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/internal/process"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ArtifactExt is the extension of every synthesized file.
const ArtifactExt = ".wav"

// Synthesizer pipes text into the synthesizer binary, one process per call.
type Synthesizer struct {
	cfg       config.Config
	outputDir string

	runner *process.Runner
	cache  *cache.SpeechCache
	fs     afero.Fs
	logger *log.Logger

	newName func() string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithFs sets the filesystem used to discard failed artifacts.
func WithFs(fs afero.Fs) Option {
	return func(s *Synthesizer) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Synthesizer writing artifacts into outputDir and caching
// them in c.
func New(cfg config.Config, outputDir string, runner *process.Runner, c *cache.SpeechCache, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		cfg:       cfg,
		outputDir: outputDir,
		runner:    runner,
		cache:     c,
		fs:        afero.NewOsFs(),
		logger:    log.Default(),
		newName:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPrefix("synth")
	return s
}

// Args composes the synthesizer command line for one artifact. Each tuning
// flag is present only when its option is set; pitch, when non-nil, replaces
// the configured pitch.
func (s *Synthesizer) Args(artifact string, pitch *float64) []string {
	if pitch == nil {
		pitch = s.cfg.Pitch
	}

	var args []string
	str := func(flag, v string) {
		if v != "" {
			args = append(args, flag, v)
		}
	}
	float := func(flag string, v *float64) {
		if v != nil {
			args = append(args, flag, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	integer := func(flag string, v *int) {
		if v != nil {
			args = append(args, flag, strconv.Itoa(*v))
		}
	}

	str("-m", s.cfg.Voice)
	str("-x", s.cfg.DicDir)
	integer("-s", s.cfg.SamplingRate)
	float("-p", pitch)
	float("-a", s.cfg.Alpha)
	float("-b", s.cfg.Beta)
	float("-u", s.cfg.UVThreshold)
	float("-jm", s.cfg.GVWeightMGC)
	float("-jf", s.cfg.GVWeightLF0)
	integer("-z", s.cfg.AudioBuffSize)
	args = append(args, "-ow", artifact)
	return args
}

// Synthesize starts synthesizing text and returns immediately. Text is passed
// verbatim on standard input; empty text is not treated specially and the
// synthesizer's exit code decides the outcome.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, pitch *float64) *Job {
	artifact := filepath.Join(s.outputDir, s.newName()+ArtifactExt)
	job := &Job{done: make(chan struct{})}

	s.logger.Debug("Synthesizing", "text", text, "artifact", artifact)
	job.handle = s.runner.Run(ctx, process.Command{
		Program: s.cfg.Binary,
		Args:    s.Args(artifact, pitch),
		Stdin:   strings.NewReader(text),
	})

	go func() {
		defer close(job.done)

		code := job.handle.Wait()
		if code != 0 {
			s.logger.Warn("Synthesis failed", "text", text, "code", code)
			s.discard(artifact)
			job.result = Result{ExitCode: code}
			return
		}

		job.result = Result{Artifact: s.register(text, artifact)}
	}()

	return job
}

// register caches artifact under text. If text was cached by another job in
// the meantime the existing artifact wins and the new file is discarded.
func (s *Synthesizer) register(text, artifact string) string {
	for {
		if s.cache.Put(text, artifact) {
			return artifact
		}
		if existing, ok := s.cache.Get(text); ok {
			s.logger.Debug("Already cached, discarding duplicate", "text", text, "artifact", artifact)
			s.discard(artifact)
			return existing
		}
	}
}

// discard deletes an artifact that will never be cached.
func (s *Synthesizer) discard(artifact string) {
	if err := s.fs.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to discard artifact", "artifact", artifact, "error", err)
	}
}
