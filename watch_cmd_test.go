package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/internal/testutil"
	"github.com/dgnsrekt/jtalk/pkg/jtalk"
	"github.com/fsnotify/fsnotify"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestWatchFileRestartsOnWrite(t *testing.T) {
	fakes := testutil.NewFakes(t, testutil.FakeOptions{PlayDelay: "1"})

	cfg := config.Default()
	cfg.Binary = fakes.Synth
	cfg.Player = fakes.Player
	cfg.OutputDir = filepath.Join(fakes.Dir, "out")
	cfg.KillGrace = 50 * time.Millisecond

	s, err := jtalk.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close() //nolint:errcheck

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "speech.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchFile(ctx, s, path) }()

	waitFor(t, "first to start playing", func() bool {
		return fakes.Index(t, "play-start first") >= 0
	})

	if err := os.WriteFile(path, []byte("second\n\n   \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "second to finish playing", func() bool {
		return fakes.Index(t, "play-end second") >= 0
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchFile returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop after cancellation")
	}

	if i := fakes.Index(t, "play-end first"); i >= 0 {
		t.Errorf("first was played to the end, the reload should have cancelled it")
	}
	if fakes.Index(t, "play-start first") > fakes.Index(t, "synth-start second") {
		t.Errorf("second was synthesized before first started playing")
	}

	for _, e := range fakes.Events(t) {
		if strings.HasPrefix(e, "synth-start") && strings.TrimSpace(strings.TrimPrefix(e, "synth-start")) == "" {
			t.Errorf("blank line was synthesized: %q", e)
		}
	}
	if n := fakes.Count(t, "synth-start second"); n == 0 {
		t.Error("second was never synthesized")
	}
}

func TestDrain(t *testing.T) {
	events := make(chan fsnotify.Event, 3)
	events <- fsnotify.Event{Name: "a", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "a", Op: fsnotify.Write}
	drain(events)
	if len(events) != 0 {
		t.Errorf("expected drained channel, %d events left", len(events))
	}

	// A closed channel does not block.
	close(events)
	drain(events)
}
