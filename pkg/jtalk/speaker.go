package jtalk

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/cache"
	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/internal/player"
	"github.com/dgnsrekt/jtalk/internal/process"
	"github.com/dgnsrekt/jtalk/internal/queue"
	"github.com/dgnsrekt/jtalk/internal/synth"
	"github.com/spf13/afero"
)

// Speaker turns text into speech. It is safe for concurrent use.
type Speaker struct {
	cfg       config.Config
	outputDir string

	logger *log.Logger
	fs     afero.Fs
	runner *process.Runner

	cache  *cache.SpeechCache
	synth  *synth.Synthesizer
	player *player.Player

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// New validates cfg, creates the artifact directory and returns a ready
// Speaker.
func New(cfg config.Config, opts ...Option) (*Speaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &Speaker{
		cfg:    cfg,
		logger: log.Default(),
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = process.NewRunner(
			process.WithLogger(s.logger),
			process.WithKillGrace(cfg.KillGrace),
		)
	}

	outputDir, err := cfg.ResolveOutputDir()
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(outputDir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}
	s.outputDir = outputDir

	s.cache = cache.NewSpeechCache(s.fs, s.logger)
	s.synth = synth.New(cfg, outputDir, s.runner, s.cache,
		synth.WithFs(s.fs),
		synth.WithLogger(s.logger),
	)
	s.player = player.New(cfg.Player, s.runner, s.logger)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.logger = s.logger.WithPrefix("jtalk")

	s.logger.Debug("Speaker ready",
		"binary", cfg.Binary,
		"player", s.player.Program(),
		"output_dir", outputDir)
	return s, nil
}

// OutputDir returns the directory artifacts are written to.
func (s *Speaker) OutputDir() string {
	return s.outputDir
}

// PlayerProgram returns the audio player in use.
func (s *Speaker) PlayerProgram() string {
	return s.player.Program()
}

// PlayerAvailable reports whether the audio player can be found in PATH.
func (s *Speaker) PlayerAvailable() bool {
	return s.player.Available()
}

// Cached reports whether text has already been synthesized.
func (s *Speaker) Cached(text string) bool {
	return s.cache.Has(text)
}

// CacheStats returns speech cache statistics.
func (s *Speaker) CacheStats() cache.CacheStats {
	return s.cache.Stats()
}

// Remove deletes the cached audio for text so the next Talk synthesizes it
// again.
func (s *Speaker) Remove(text string) error {
	return s.cache.Remove(text)
}

// RemoveAll deletes every cached artifact.
func (s *Speaker) RemoveAll() error {
	return s.cache.RemoveAll()
}

// Close cancels every active handle, waits for them to finish and deletes
// all cached audio. Handles created afterwards finish at once with ErrClosed.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.logger.Debug("Removing cached audio", "count", s.cache.Len(), "texts", s.cache.Keys())
	if err := s.cache.RemoveAll(); err != nil {
		return fmt.Errorf("unable to remove cached audio: %w", err)
	}
	return nil
}

// start registers a new handle and runs fn for it on its own goroutine.
func (s *Speaker) start(q *queue.PlaybackQueue, opts talkOptions, fn func(ctx context.Context, h *Handle)) *Handle {
	ctx, cancel := context.WithCancel(s.ctx)
	h := newHandle(cancel, q, opts.onDone)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		h.Cancel()
		h.finish(Outcome{Err: ErrClosed})
		return h
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn(ctx, h)
	}()
	return h
}
