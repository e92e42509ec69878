package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/archlens/internal/config"
)

const (
	sentinelStart = "# archlens:start"
	sentinelEnd   = "# archlens:end"
)

// newInitCmd implements `archlens init`, which writes (or updates) a block
// listing every setting and its default in an archlens.toml file.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-archlens.toml]",
		Short: "Write the default settings block to archlens.toml",
		Long: `Write every archlens setting, commented out at its default value, to an
archlens.toml file. The block is wrapped in sentinel comments so it can be
updated in place on subsequent runs without touching surrounding settings.
Creates the file if it does not exist.

path-to-archlens.toml defaults to ./` + config.FileName + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, err := os.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote archlens settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped settings block.
func generateSection() string {
	body := `# Every archlens setting at its default. This block is rewritten by
# "archlens init"; set values below it rather than editing it in place.
# Environment variables (ARCHLENS_MAX_FILES=500) and flags override this file.
#
` + strings.TrimRight(config.DefaultTOML(), "\n")

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
