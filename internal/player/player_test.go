package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/jtalk/internal/process"
	"github.com/dgnsrekt/jtalk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramFor(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "afplay"},
		{"linux", "aplay"},
		{"netbsd", "audioplay"},
		{"freebsd", FallbackProgram},
		{"windows", FallbackProgram},
		{"plan9", FallbackProgram},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, ProgramFor(platformFor(tt.goos)))
		})
	}
}

func TestNewDefaultsToPlatformPlayer(t *testing.T) {
	p := New("", process.NewRunner(), nil)
	assert.Equal(t, ProgramFor(CurrentPlatform()), p.Program())

	p = New("mpv", process.NewRunner(), nil)
	assert.Equal(t, "mpv", p.Program())
}

func TestStripSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/a.wav", "/tmp/a.wav"},
		{" /tmp/a.wav\n", "/tmp/a.wav"},
		{"/tmp/my file\t.wav", "/tmp/myfile.wav"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripSpace(tt.in), "stripSpace(%q)", tt.in)
	}
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPlay(t *testing.T) {
	fakes := testutil.NewFakes(t, testutil.FakeOptions{})
	p := New(fakes.Player, process.NewRunner(), nil)
	artifact := writeArtifact(t, fakes.Dir, "a.wav", "hello")

	code := p.Play(context.Background(), artifact).Wait()
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"play-start hello", "play-end hello"}, fakes.Events(t))
}

func TestPlayStripsWhitespace(t *testing.T) {
	fakes := testutil.NewFakes(t, testutil.FakeOptions{})
	p := New(fakes.Player, process.NewRunner(), nil)
	artifact := writeArtifact(t, fakes.Dir, "b.wav", "spaced")

	code := p.Play(context.Background(), " "+artifact+"\n").Wait()
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, fakes.Count(t, "play-start spaced"))
}

func TestPlayReportsFailure(t *testing.T) {
	fakes := testutil.NewFakes(t, testutil.FakeOptions{})
	p := New(fakes.Player, process.NewRunner(), nil)
	artifact := writeArtifact(t, fakes.Dir, "c.wav", "badplay")

	assert.Equal(t, 2, p.Play(context.Background(), artifact).Wait())
}

func TestPlayMissingPlayer(t *testing.T) {
	p := New("nonexistent_player_xyz", process.NewRunner(), nil)
	assert.False(t, p.Available())
	assert.Equal(t, process.ExitSpawnFailed, p.Play(context.Background(), "/tmp/x.wav").Wait())
}

func TestPlayKill(t *testing.T) {
	fakes := testutil.NewFakes(t, testutil.FakeOptions{PlayDelay: "5"})
	p := New(fakes.Player, process.NewRunner(process.WithKillGrace(50*time.Millisecond)), nil)
	artifact := writeArtifact(t, fakes.Dir, "d.wav", "long")

	h := p.Play(context.Background(), artifact)
	time.Sleep(100 * time.Millisecond)
	h.Kill()

	select {
	case <-h.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("player was not stopped")
	}
	assert.NotEqual(t, 0, h.ExitCode())
	assert.Equal(t, 0, fakes.Count(t, "play-end"))
}
