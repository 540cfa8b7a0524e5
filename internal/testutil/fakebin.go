// Package testutil provides stand-ins for the synthesizer and player
// binaries. They are small POSIX shell scripts that record what they were
// asked to do in an event log, so tests can assert on spawn counts and
// ordering without real audio tooling.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// SkipWithoutShell skips tests that rely on /bin/sh scripts.
func SkipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Skipping shell script test on Windows")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("Skipping test: /bin/sh not available")
	}
}

// Fakes holds a fake synthesizer and player sharing one event log.
type Fakes struct {
	Dir    string
	Synth  string
	Player string
	Log    string
}

// FakeOptions tune how long the fakes take.
type FakeOptions struct {
	SynthDelay string // sleep(1) argument, e.g. "0.2"
	PlayDelay  string
}

// NewFakes writes the fake binaries into a fresh temporary directory.
//
// The synthesizer reads text from stdin, logs "synth-start TEXT" and
// "synth-end TEXT", and writes TEXT into the file given by -ow. Text starting
// with "fail" makes it exit 1 after writing a partial file. Its arguments are
// appended to Log+".args", one invocation per line.
//
// The player logs "play-start TEXT" and "play-end TEXT" where TEXT is the
// content of the artifact it was given. Content starting with "badplay" makes
// it exit 2.
func NewFakes(t *testing.T, opts FakeOptions) *Fakes {
	t.Helper()
	SkipWithoutShell(t)

	if opts.SynthDelay == "" {
		opts.SynthDelay = "0"
	}
	if opts.PlayDelay == "" {
		opts.PlayDelay = "0"
	}

	dir := t.TempDir()
	f := &Fakes{
		Dir: dir,
		Log: filepath.Join(dir, "events.log"),
	}

	f.Synth = WriteScript(t, dir, "fake_synth", fmt.Sprintf(`log=%q
printf '%%s\n' "$*" >> "$log.args"
out=""
while [ $# -gt 0 ]; do
	if [ "$1" = "-ow" ]; then out="$2"; fi
	shift
done
text=$(cat)
echo "synth-start $text" >> "$log"
sleep %s
printf '%%s' "$text" > "$out"
echo "synth-end $text" >> "$log"
case "$text" in
	fail*) exit 1 ;;
esac
exit 0
`, f.Log, opts.SynthDelay))

	f.Player = WriteScript(t, dir, "fake_player", fmt.Sprintf(`log=%q
text=$(cat "$1")
echo "play-start $text" >> "$log"
sleep %s
echo "play-end $text" >> "$log"
case "$text" in
	badplay*) exit 2 ;;
esac
exit 0
`, f.Log, opts.PlayDelay))

	return f
}

// WriteScript writes an executable shell script and returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil { //nolint:gosec
		t.Fatalf("Failed to write script %s: %v", name, err)
	}
	return path
}

// Events returns the logged events in order.
func (f *Fakes) Events(t *testing.T) []string {
	t.Helper()
	return readLines(t, f.Log)
}

// Invocations returns the argument line of every synthesizer run.
func (f *Fakes) Invocations(t *testing.T) []string {
	t.Helper()
	return readLines(t, f.Log+".args")
}

// Count returns how many events start with prefix.
func (f *Fakes) Count(t *testing.T, prefix string) int {
	t.Helper()
	n := 0
	for _, e := range f.Events(t) {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first event equal to event, or -1.
func (f *Fakes) Index(t *testing.T, event string) int {
	t.Helper()
	for i, e := range f.Events(t) {
		if e == event {
			return i
		}
	}
	return -1
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer file.Close() //nolint:errcheck

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return lines
}
