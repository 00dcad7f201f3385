package config

import (
	"flag"
	"os"
	"strings"

	"github.com/planquery/appealvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   comma-separated candidate base paths for the cold archive
//	-m string   manifest file name within each base path
//	-l int      default result limit for searches
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	basePaths := fs.String("b", strings.Join(cfg.BasePaths, ","), "comma-separated base paths of the cold archive")
	fs.StringVar(&cfg.ManifestName, "m", cfg.ManifestName, "manifest file name")
	fs.IntVar(&cfg.DefaultLimit, "l", cfg.DefaultLimit, "default search result limit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *basePaths != "" {
		parts := strings.Split(*basePaths, ",")
		paths := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) > 0 {
			cfg.BasePaths = paths
		}
	}
}
