package jtalk

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	alpha := 2.0
	cfg.Alpha = &alpha

	_, err := New(cfg)
	require.Error(t, err)

	var verr *config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "alpha", verr.Field)
}

func TestNewCreatesOutputDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := config.Default()
	cfg.OutputDir = "/speech/out"

	s, err := New(cfg, WithFs(fs))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	exists, err := afero.DirExists(fs, "/speech/out")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/speech/out", s.OutputDir())
}

func TestNewPlayerSelection(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Player = "custom-player"

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	assert.Equal(t, "custom-player", s.PlayerProgram())
	assert.False(t, s.PlayerAvailable())
}

func TestRemoveAll(t *testing.T) {
	s, _ := newTestSpeaker(t, testutil.FakeOptions{})

	require.True(t, waitOutcome(t, s.TalkQueue([]string{"one", "two", "three"})).OK())
	files := artifacts(t, s)
	require.Len(t, files, 3)

	require.NoError(t, s.RemoveAll())
	assert.Equal(t, int64(0), s.CacheStats().ItemCount)
	for _, text := range []string{"one", "two", "three"} {
		assert.False(t, s.Cached(text))
	}
	for _, f := range files {
		_, err := os.Stat(f)
		assert.True(t, os.IsNotExist(err), "%s should be deleted", f)
	}
}

func TestRemoveUnknownText(t *testing.T) {
	s, _ := newTestSpeaker(t, testutil.FakeOptions{})
	assert.NoError(t, s.Remove("never spoken"))
}

func TestClose(t *testing.T) {
	s, fakes := newTestSpeaker(t, testutil.FakeOptions{PlayDelay: "5"})

	h := s.Talk("closing")
	require.Eventually(t, func() bool {
		return fakes.Count(t, "play-start closing") == 1
	}, waitTimeout, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.Close() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Close did not return")
	}

	// Close waited for the active handle.
	select {
	case <-h.Done():
	default:
		t.Fatal("active handle still running after Close")
	}
	assert.ErrorIs(t, h.Wait().Err, ErrCanceled)
	assert.Empty(t, artifacts(t, s))

	// Closing twice is fine.
	assert.NoError(t, s.Close())

	var got outcomes
	late := s.TalkQueue([]string{"late"}, WithDone(got.record))
	select {
	case <-late.Done():
	default:
		t.Fatal("handle after Close should finish immediately")
	}
	assert.ErrorIs(t, late.Wait().Err, ErrClosed)
	assert.Empty(t, late.Pending())
	assert.Len(t, got.get(), 1)
}

func TestConcurrentTalks(t *testing.T) {
	s, fakes := newTestSpeaker(t, testutil.FakeOptions{SynthDelay: "0.1"})

	handles := []*Handle{
		s.Talk("shared"),
		s.Talk("shared"),
		s.Talk("other"),
	}
	for _, h := range handles {
		assert.True(t, waitOutcome(t, h).OK())
	}

	// Concurrent synthesis of the same text leaves a single cached file.
	assert.True(t, s.Cached("shared"))
	assert.Len(t, artifacts(t, s), 2)
	assert.Equal(t, 3, fakes.Count(t, "play-start"))
}
