// Package player plays synthesized artifacts through the platform's audio
// player program.
package player

import (
	"context"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/process"
)

// Player spawns one player process per artifact.
type Player struct {
	program string
	runner  *process.Runner
	logger  *log.Logger
}

// New creates a Player. An empty program selects the player for the current
// platform.
func New(program string, runner *process.Runner, logger *log.Logger) *Player {
	if program == "" {
		program = ProgramFor(CurrentPlatform())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Player{
		program: program,
		runner:  runner,
		logger:  logger.WithPrefix("player"),
	}
}

// Program returns the player executable.
func (p *Player) Program() string {
	return p.program
}

// Available reports whether the player executable can be found.
func (p *Player) Available() bool {
	return isCommandAvailable(p.program)
}

// Play starts playing artifact and returns immediately. The handle completes
// with the player's exit code whether or not playback succeeded; killing it
// stops the audio.
func (p *Player) Play(ctx context.Context, artifact string) *process.Handle {
	artifact = stripSpace(artifact)
	h := p.runner.Run(ctx, process.Command{
		Program: p.program,
		Args:    []string{artifact},
	})
	p.logger.Debug("Playing", "program", p.program, "artifact", artifact, "pid", h.Pid())
	return h
}

// stripSpace removes every whitespace character. Artifact names are UUIDs and
// never legitimately contain any.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
