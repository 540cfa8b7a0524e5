package jtalk

import "errors"

var (
	// ErrSynthesisFailed means the synthesizer exited with a non-zero code
	// or could not be started.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrPlaybackFailed means the player exited with a non-zero code or
	// could not be started.
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrCanceled means the handle was cancelled before it finished.
	ErrCanceled = errors.New("canceled")

	// ErrClosed is reported by handles created after Close.
	ErrClosed = errors.New("speaker is closed")
)
