// Package process runs external programs with argument vectors, streams their
// output line by line and reports completion as a numeric exit code.
//
// Exit codes are the program's own, or one of the negative sentinels:
// ExitSpawnFailed when it never started, ExitSignaled when a signal ended it
// and ExitRunning while it has not exited yet.
package process
