// Package main provides the entry point for the jtalk CLI application.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/config"
	"github.com/dgnsrekt/jtalk/pkg/jtalk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	pitch             float64
	queueMode         bool
	fromClipboard     bool
	debug             bool
	keep              bool

	rootCmd = &cobra.Command{
		Use:   "jtalk [TEXT...]",
		Short: "Speak Japanese text with Open JTalk",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text through %s and your audio player. Several texts are spoken in order, synthesizing the next one while the current one plays.", keyword("Open JTalk")),
		),
		Example:          paragraph("jtalk こんにちは\njtalk --pitch 220 おはよう こんばんは\necho さようなら | jtalk"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	if cmd.Flags().Changed("pitch") && pitch < 0 {
		return fmt.Errorf("pitch cannot be negative, got %g", pitch)
	}
	return nil
}

// loadConfig reads the effective configuration from viper and the
// environment.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return cfg, err //nolint:wrapcheck
	}
	return cfg, nil
}

func newSpeaker() (*jtalk.Speaker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s, err := jtalk.New(cfg, jtalk.WithLogger(log.Default()))
	if err != nil {
		return nil, fmt.Errorf("unable to start speaker: %w", err)
	}
	if !s.PlayerAvailable() {
		log.Warn("Audio player not found in PATH", "player", s.PlayerProgram())
	}
	return s, nil
}

func stdinIsPipe() bool {
	return !term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec
}

// splitLines returns the non-blank lines of r, trimmed.
func splitLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read input: %w", err)
	}
	return lines, nil
}

// gatherTexts collects what to say from the clipboard, the arguments or
// standard input, in that order of preference. A "-" argument reads stdin.
func gatherTexts(args []string, stdin io.Reader, piped bool) ([]string, error) {
	if fromClipboard {
		content, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return splitLines(strings.NewReader(content))
	}

	if len(args) == 0 && piped {
		return splitLines(stdin)
	}

	var texts []string
	for _, arg := range args {
		if arg == "-" {
			lines, err := splitLines(stdin)
			if err != nil {
				return nil, err
			}
			texts = append(texts, lines...)
			continue
		}
		if arg = strings.TrimSpace(arg); arg != "" {
			texts = append(texts, arg)
		}
	}
	return texts, nil
}

func execute(cmd *cobra.Command, args []string) error {
	texts, err := gatherTexts(args, os.Stdin, stdinIsPipe())
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return errors.New("nothing to say: pass text as arguments, on stdin or with --clipboard")
	}

	s, err := newSpeaker()
	if err != nil {
		return err
	}
	defer func() {
		if keep {
			return
		}
		if err := s.Close(); err != nil {
			log.Warn("Could not remove synthesized audio", "error", err)
		}
	}()

	var opts []jtalk.TalkOption
	if cmd.Flags().Changed("pitch") {
		opts = append(opts, jtalk.WithPitch(pitch))
	}

	var h *jtalk.Handle
	if len(texts) == 1 && !queueMode {
		h = s.Talk(texts[0], opts...)
	} else {
		h = s.TalkQueue(texts, opts...)
	}

	return report(cmd, waitInterruptible(h), len(texts))
}

// waitInterruptible waits for h, cancelling it on Ctrl-C.
func waitInterruptible(h *jtalk.Handle) jtalk.Outcome {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	select {
	case <-h.Done():
	case <-sig:
		log.Debug("Interrupted, cancelling")
		h.Cancel()
	}
	return h.Wait()
}

func report(cmd *cobra.Command, out jtalk.Outcome, total int) error {
	switch {
	case out.OK():
		if total > 1 {
			fmt.Fprintln(cmd.ErrOrStderr(), faint(fmt.Sprintf("Spoke %d of %d", out.Played, total)))
		}
		return nil
	case errors.Is(out.Err, jtalk.ErrCanceled):
		return nil
	default:
		return fmt.Errorf("%w (%s exit code %d, %d of %d failed)", out.Err, out.Stage, out.ExitCode, out.Failed, total)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to stderr")
	rootCmd.Flags().Float64VarP(&pitch, "pitch", "p", 0, "override the configured pitch")
	rootCmd.Flags().BoolVarP(&queueMode, "queue", "q", false, "use the playback queue even for a single text")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "speak the clipboard contents")
	rootCmd.Flags().BoolVar(&keep, "keep", false, "keep synthesized audio in the output directory")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(configCmd, manCmd, cleanCmd, watchCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := config.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("jtalk")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("jtalk")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	defaultConfigFile = filepath.Join(dirs[0], "jtalk.yml")
}
