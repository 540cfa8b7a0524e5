package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// ExitSpawnFailed is reported when the program could not be started at all.
	ExitSpawnFailed = -2
	// ExitSignaled is reported when the process was terminated by a signal.
	ExitSignaled = -1
	// ExitRunning is what Handle.ExitCode returns while the process is
	// still running. It is never a final exit code.
	ExitRunning = -3

	// DefaultKillGrace is how long a killed process gets to exit after the
	// interrupt before it is killed outright.
	DefaultKillGrace = 500 * time.Millisecond
)

// Command describes one external program invocation. Arguments are passed as
// a vector; no shell is ever involved.
type Command struct {
	Program string
	Args    []string

	// Stdin is copied to the process and then closed. Nil means no input.
	Stdin io.Reader

	// OnStdout and OnStderr receive output one line at a time, without the
	// trailing newline. Nil callbacks discard the stream.
	OnStdout func(line string)
	OnStderr func(line string)
}

// Runner spawns external programs and reports their completion through a
// Handle. It never returns an error: all failures surface as exit codes.
type Runner struct {
	logger    *log.Logger
	killGrace time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for subprocess diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithKillGrace sets the delay between the interrupt and the hard kill.
func WithKillGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.killGrace = d
		}
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:    log.Default(),
		killGrace: DefaultKillGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithPrefix("process")
	return r
}

// Run starts the command and returns immediately. Cancelling ctx has the same
// effect as calling Kill on the returned handle.
func (r *Runner) Run(ctx context.Context, c Command) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Cancel = func() error { return interrupt(cmd.Process) }
	cmd.WaitDelay = r.killGrace
	cmd.Stdin = c.Stdin

	var stdout, stderr *lineWriter
	if c.OnStdout != nil {
		stdout = newLineWriter(c.OnStdout)
		cmd.Stdout = stdout
	}
	stderr = newLineWriter(func(line string) {
		r.logger.Debug("stderr", "program", c.Program, "line", line)
		if c.OnStderr != nil {
			c.OnStderr(line)
		}
	})
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		r.logger.Warn("Failed to start process", "program", c.Program, "error", err)
		h.code = ExitSpawnFailed
		cancel()
		close(h.done)
		return h
	}
	h.pid = cmd.Process.Pid
	r.logger.Debug("Process started", "program", c.Program, "args", c.Args, "pid", h.pid)

	go func() {
		defer cancel()
		err := cmd.Wait()
		if stdout != nil {
			stdout.Flush()
		}
		stderr.Flush()

		h.code = exitCode(cmd, err)
		r.logger.Debug("Process exited",
			"program", c.Program,
			"pid", h.pid,
			"code", h.code,
			"duration", time.Since(start))
		close(h.done)
	}()

	return h
}

// exitCode maps the result of Wait onto the numeric exit code contract.
func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState == nil {
		return ExitSpawnFailed
	}
	code := cmd.ProcessState.ExitCode()
	if code == -1 {
		return ExitSignaled
	}
	if code == 0 && err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		// Exited cleanly but copying its I/O failed.
		return 1
	}
	return code
}

// interrupt asks the process to stop. Windows has no SIGINT.
func interrupt(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		return proc.Kill()
	}
	return proc.Signal(os.Interrupt)
}
