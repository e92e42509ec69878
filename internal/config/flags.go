package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags adds every setting to fs under its config key.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./"+FileName+" when present)")

	fs.IntP("workers", "j", 0, "parallel file workers (0 = one per CPU)")
	fs.Int("max-files", 0, "stop after this many files (0 = no limit)")
	fs.Int64("max-file-size", 1<<20, "skip files larger than this many bytes (0 = no limit)")
	fs.Duration("timeout", 0, "deadline for the whole analysis (0 = none)")
	fs.StringSliceP("langs", "l", nil, "languages to analyze (default: all)")
	fs.StringSlice("exclude", nil, "gitignore-style patterns to skip")
	fs.Bool("include-tests", false, "analyze test files too")
	fs.StringSliceP("patterns", "p", nil, "patterns to recognize (default: all)")
	fs.StringSlice("categories", nil, "pattern categories to recognize (default: all)")
	fs.StringSliceP("styles", "s", nil, "architectural styles to evaluate (default: all)")
	fs.Bool("tolerate-syntax-errors", false, "analyze files whose syntax tree contains errors")

	fs.Float64("healthy-threshold", 0.7, "confidence at which a style counts as healthy")
	fs.Int("coupling-threshold", 10, "in+out degree that flags tight coupling")
	fs.Int("god-threshold", 15, "degree that makes a component a god component candidate")
	fs.Int("god-min-responsibilities", 4, "responsibilities a god component carries")
	fs.Int("max-cycles", 100, "most dependency cycles to report")
	fs.Float64("erosion-tolerance", 0, "how much a metric may worsen against the baseline")

	fs.StringP("format", "f", "toon", "output format: toon or json")
	fs.IntP("top", "n", 0, "only output the top N components by rank (0 = all)")
	fs.String("focus", "", "only output components whose path contains this text")
	fs.String("cache", "", "reuse this output file while no source file is newer")
	fs.String("baseline", "", "compare against this snapshot for erosion")
	fs.String("save-baseline", "", "write a snapshot of this run to this path")
	fs.BoolP("watch", "w", false, "re-run when source files change")
	fs.Duration("debounce", 500*time.Millisecond, "quiet period before a watch re-run")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.Bool("log-json", false, "log as JSON")
}
