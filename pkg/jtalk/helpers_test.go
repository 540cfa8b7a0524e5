package jtalk

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/internal/testutil"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

func newTestSpeaker(t *testing.T, opts testutil.FakeOptions) (*Speaker, *testutil.Fakes) {
	t.Helper()
	fakes := testutil.NewFakes(t, opts)

	cfg := config.Default()
	cfg.Binary = fakes.Synth
	cfg.Player = fakes.Player
	cfg.OutputDir = filepath.Join(fakes.Dir, "out")
	cfg.KillGrace = 50 * time.Millisecond

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, fakes
}

// withPrefix returns the events starting with prefix, prefix removed.
func withPrefix(t *testing.T, fakes *testutil.Fakes, prefix string) []string {
	t.Helper()
	var out []string
	for _, e := range fakes.Events(t) {
		if strings.HasPrefix(e, prefix) {
			out = append(out, strings.TrimPrefix(e, prefix))
		}
	}
	return out
}

func artifacts(t *testing.T, s *Speaker) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(s.OutputDir(), "*.wav"))
	require.NoError(t, err)
	return matches
}

func resetLog(t *testing.T, fakes *testutil.Fakes) {
	t.Helper()
	require.NoError(t, os.Truncate(fakes.Log, 0))
}

func waitOutcome(t *testing.T, h *Handle) Outcome {
	t.Helper()
	select {
	case <-h.Done():
		return h.Wait()
	case <-time.After(waitTimeout):
		t.Fatal("handle did not finish in time")
		return Outcome{}
	}
}

// outcomes records every callback invocation.
type outcomes struct {
	mu   sync.Mutex
	list []Outcome
}

func (o *outcomes) record(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, out)
}

func (o *outcomes) get() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome(nil), o.list...)
}
