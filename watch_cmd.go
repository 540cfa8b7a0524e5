package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/pkg/jtalk"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// reloadInterval throttles how often a watched file is spoken again, so an
// editor saving in several writes triggers a single reload.
const reloadInterval = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Speak a file every time it changes",
	Long:  paragraph(fmt.Sprintf("\n%s a file and speak its lines whenever it is saved. A new save interrupts what is still being spoken; unchanged lines are not synthesized again.", keyword("Watch"))),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("unable to resolve %s: %w", args[0], err)
		}

		s, err := newSpeaker()
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return watchFile(ctx, s, path)
	},
}

// fileSpeaker restarts a queue with the current content of a file.
type fileSpeaker struct {
	speaker *jtalk.Speaker
	path    string
	current *jtalk.Handle
}

func (f *fileSpeaker) speak() {
	file, err := os.Open(f.path)
	if err != nil {
		log.Warn("Could not open watched file", "path", f.path, "error", err)
		return
	}
	defer file.Close() //nolint:errcheck

	lines, err := splitLines(file)
	if err != nil {
		log.Warn("Could not read watched file", "path", f.path, "error", err)
		return
	}

	f.stop()
	log.Debug("Speaking file", "path", f.path, "lines", len(lines))
	f.current = f.speaker.TalkQueue(lines, jtalk.WithDone(func(o jtalk.Outcome) {
		if o.Err != nil && !errors.Is(o.Err, jtalk.ErrCanceled) {
			log.Warn("Some lines could not be spoken", "failed", o.Failed, "error", o.Err)
		}
	}))
}

func (f *fileSpeaker) stop() {
	if f.current != nil {
		f.current.Cancel()
		f.current.Wait()
		f.current = nil
	}
}

func watchFile(ctx context.Context, s *jtalk.Speaker, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	log.Info("Watching file", "path", path)

	fsp := &fileSpeaker{speaker: s, path: path}
	defer fsp.stop()
	fsp.speak()

	limiter := rate.NewLimiter(rate.Every(reloadInterval), 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			if err := limiter.Wait(ctx); err != nil {
				return nil //nolint:nilerr
			}
			drain(watcher.Events)
			fsp.speak()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// drain discards events that piled up while waiting for the limiter.
func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
