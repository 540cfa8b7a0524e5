package player

import (
	"os/exec"
	"runtime"
)

// Platform represents the host operating system
type Platform string

const (
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformNetBSD  Platform = "netbsd"
	PlatformUnknown Platform = "unknown"
)

// FallbackProgram plays audio on platforms without a known player (SoX).
const FallbackProgram = "play"

var programs = map[Platform]string{
	PlatformDarwin: "afplay",
	PlatformLinux:  "aplay",
	PlatformNetBSD: "audioplay",
}

// CurrentPlatform returns the platform the binary runs on.
func CurrentPlatform() Platform {
	return platformFor(runtime.GOOS)
}

func platformFor(goos string) Platform {
	switch p := Platform(goos); p {
	case PlatformDarwin, PlatformLinux, PlatformNetBSD:
		return p
	default:
		return PlatformUnknown
	}
}

// ProgramFor returns the audio player for a platform.
func ProgramFor(p Platform) string {
	if prog, ok := programs[p]; ok {
		return prog
	}
	return FallbackProgram
}

// isCommandAvailable checks if a command is available in PATH
func isCommandAvailable(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
