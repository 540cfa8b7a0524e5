// Package config holds the synthesizer, player and cache settings.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gap "github.com/muesli/go-app-paths"
	"gopkg.in/yaml.v3"
)

// Built-in locations for the three settings that always have a value.
const (
	DefaultBinary = "open_jtalk"
	DefaultDicDir = "/var/lib/mecab/dic/open-jtalk/naist-jdic"
	DefaultVoice  = "/usr/share/hts-voice/nitech-jp-atr503-m001/nitech_jp_atr503_m001.htsvoice"

	DefaultKillGrace = 500 * time.Millisecond

	appName = "jtalk"
)

// Config contains every synthesizer and playback option.
//
// Numeric synthesizer options are pointers: nil means "not configured" and
// the corresponding flag is omitted, while an explicit zero is passed on.
type Config struct {
	// Synthesizer paths
	Binary string `yaml:"binary" mapstructure:"binary" env:"JTALK_BINARY"`
	DicDir string `yaml:"dic_dir" mapstructure:"dic_dir" env:"JTALK_DIC_DIR"`
	Voice  string `yaml:"voice" mapstructure:"voice" env:"JTALK_VOICE"`

	// Synthesizer tuning
	Pitch         *float64 `yaml:"pitch,omitempty" mapstructure:"pitch" env:"JTALK_PITCH"`
	SamplingRate  *int     `yaml:"sampling_rate,omitempty" mapstructure:"sampling_rate" env:"JTALK_SAMPLING_RATE"`
	Alpha         *float64 `yaml:"alpha,omitempty" mapstructure:"alpha" env:"JTALK_ALPHA"`
	Beta          *float64 `yaml:"beta,omitempty" mapstructure:"beta" env:"JTALK_BETA"`
	UVThreshold   *float64 `yaml:"uv_threshold,omitempty" mapstructure:"uv_threshold" env:"JTALK_UV_THRESHOLD"`
	GVWeightMGC   *float64 `yaml:"gv_weight_mgc,omitempty" mapstructure:"gv_weight_mgc" env:"JTALK_GV_WEIGHT_MGC"`
	GVWeightLF0   *float64 `yaml:"gv_weight_lf0,omitempty" mapstructure:"gv_weight_lf0" env:"JTALK_GV_WEIGHT_LF0"`
	AudioBuffSize *int     `yaml:"audio_buff_size,omitempty" mapstructure:"audio_buff_size" env:"JTALK_AUDIO_BUFF_SIZE"`

	// Where artifacts are written. Empty means the user cache directory.
	OutputDir string `yaml:"output_dir,omitempty" mapstructure:"output_dir" env:"JTALK_OUTPUT_DIR"`

	// Player program; empty selects one by platform.
	Player string `yaml:"player,omitempty" mapstructure:"player" env:"JTALK_PLAYER"`

	// How long a killed process may take to exit before it is killed outright.
	KillGrace time.Duration `yaml:"kill_grace,omitempty" mapstructure:"kill_grace" env:"JTALK_KILL_GRACE"`
}

// Default returns a Config with the built-in paths and no tuning options.
func Default() Config {
	return Config{
		Binary:    DefaultBinary,
		DicDir:    DefaultDicDir,
		Voice:     DefaultVoice,
		KillGrace: DefaultKillGrace,
	}
}

// ValidationError reports a configuration field with an unusable value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Binary == "" {
		return &ValidationError{Field: "binary", Message: "synthesizer binary cannot be empty"}
	}
	if c.SamplingRate != nil && *c.SamplingRate <= 0 {
		return &ValidationError{Field: "sampling_rate", Message: fmt.Sprintf("must be positive, got %d", *c.SamplingRate)}
	}
	if err := checkUnit("alpha", c.Alpha); err != nil {
		return err
	}
	if err := checkUnit("uv_threshold", c.UVThreshold); err != nil {
		return err
	}
	if c.GVWeightMGC != nil && *c.GVWeightMGC < 0 {
		return &ValidationError{Field: "gv_weight_mgc", Message: fmt.Sprintf("cannot be negative, got %g", *c.GVWeightMGC)}
	}
	if c.GVWeightLF0 != nil && *c.GVWeightLF0 < 0 {
		return &ValidationError{Field: "gv_weight_lf0", Message: fmt.Sprintf("cannot be negative, got %g", *c.GVWeightLF0)}
	}
	if c.AudioBuffSize != nil && *c.AudioBuffSize <= 0 {
		return &ValidationError{Field: "audio_buff_size", Message: fmt.Sprintf("must be positive, got %d", *c.AudioBuffSize)}
	}
	if c.KillGrace < 0 {
		return &ValidationError{Field: "kill_grace", Message: fmt.Sprintf("cannot be negative, got %s", c.KillGrace)}
	}
	return nil
}

func checkUnit(field string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between 0 and 1, got %g", *v)}
	}
	return nil
}

// ResolveOutputDir returns the directory artifacts are written to.
func (c Config) ResolveOutputDir() (string, error) {
	if c.OutputDir != "" {
		return c.OutputDir, nil
	}
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("could not find cache directory: %w", err)
	}
	return filepath.Join(dir, "artifacts"), nil
}

// ConfigDirs lists the directories searched for jtalk.yml, most specific
// first.
func ConfigDirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, appName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, appName)}, dirs...)
	}

	if c := os.Getenv("JTALK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	return dirs, nil
}

// Example renders the default configuration as a commented YAML document,
// used to seed a new config file.
func Example() (string, error) {
	var doc yaml.Node
	if err := doc.Encode(Default()); err != nil {
		return "", fmt.Errorf("unable to encode config: %w", err)
	}

	comments := map[string]string{
		"binary":     "synthesizer executable",
		"dic_dir":    "dictionary directory",
		"voice":      "HTS voice model",
		"kill_grace": "time a stopped process gets before it is killed",
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		key.HeadComment = comments[key.Value]
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return "", fmt.Errorf("unable to encode config: %w", err)
	}
	_ = enc.Close()

	return buf.String() + strings.Join([]string{
		"",
		"# Optional tuning, omitted from the command line unless set:",
		"# pitch: 0.0",
		"# sampling_rate: 48000",
		"# alpha: 0.55",
		"# beta: 0.0",
		"# uv_threshold: 0.5",
		"# gv_weight_mgc: 1.0",
		"# gv_weight_lf0: 1.0",
		"# audio_buff_size: 1600",
		"",
		"# Where synthesized audio is kept (default: user cache dir)",
		"# output_dir: ~/.cache/jtalk/artifacts",
		"",
		"# Player program (default: afplay, aplay, audioplay or play by platform)",
		"# player: aplay",
		"",
	}, "\n"), nil
}
