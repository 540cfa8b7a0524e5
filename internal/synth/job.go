package synth

import "github.com/dgnsrekt/jtalk/internal/process"

// Result is the outcome of one synthesis. Artifact is empty unless ExitCode
// is zero.
type Result struct {
	Artifact string
	ExitCode int
}

// OK reports whether the synthesis produced a cached artifact.
func (r Result) OK() bool {
	return r.ExitCode == 0 && r.Artifact != ""
}

// Job is one in-flight synthesis.
type Job struct {
	handle *process.Handle
	done   chan struct{}
	result Result
}

// Done is closed once the synthesizer has exited and the artifact has been
// cached or discarded.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job completes.
func (j *Job) Wait() Result {
	<-j.done
	return j.result
}

// Cancel kills the synthesizer. It returns immediately; a partially written
// file is discarded when the process exits.
func (j *Job) Cancel() {
	j.handle.Kill()
}
