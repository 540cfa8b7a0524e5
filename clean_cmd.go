package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/jtalk/internal/synth"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	dryRun bool

	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Delete leftover synthesized audio",
		Long:  paragraph(fmt.Sprintf("\n%s audio files left in the output directory, for example by runs with --keep or runs that were killed.", keyword("Delete"))),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := cfg.ResolveOutputDir()
			if err != nil {
				return err //nolint:wrapcheck
			}

			count, size, err := cleanArtifacts(afero.NewOsFs(), dir, dryRun)
			if err != nil {
				return err
			}

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d files (%s) from %s\n", verb, count, humanize.Bytes(uint64(size)), dir) //nolint:gosec
			return nil
		},
	}
)

// cleanArtifacts deletes every artifact in dir and reports how many files
// and bytes were involved. A missing directory is not an error.
func cleanArtifacts(fs afero.Fs, dir string, dry bool) (int, int64, error) {
	matches, err := afero.Glob(fs, filepath.Join(dir, "*"+synth.ArtifactExt))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to list artifacts: %w", err)
	}

	var (
		count int
		size  int64
	)
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if !dry {
			if err := fs.Remove(m); err != nil {
				log.Warn("Could not remove artifact", "path", m, "error", err)
				continue
			}
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

func init() {
	cleanCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "only report what would be removed")
}
