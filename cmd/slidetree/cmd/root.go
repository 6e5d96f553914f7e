package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/slidegest/internal/config"
	"github.com/dgallion1/slidegest/internal/content"
	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/logging"
)

var (
	cfg         = config.Load()
	coursesFile string
	treeDir     string
	contentURL  string
	logLevel    string
	retries     int
	log         *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "slidetree",
	Short: "Build and inspect course trees offline",
	Long: `slidetree builds the document tree of a course by crawling the content
service, stores it as a tree file for the slide server, and runs slide
extraction from the command line.

Defaults come from the same environment variables the server reads.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(cmd.ErrOrStderr(), logLevel)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&coursesFile, "courses", cfg.CoursesFile, "course definitions file")
	rootCmd.PersistentFlags().StringVar(&treeDir, "trees", cfg.TreeDir, "directory holding tree files")
	rootCmd.PersistentFlags().StringVar(&contentURL, "content-url", cfg.ContentURL, "base URL of the content service")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", cfg.FetchRetries, "fetch attempts per document")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

// newClient returns a content client for the configured service.
func newClient() (*content.Client, error) {
	if contentURL == "" {
		return nil, fmt.Errorf("no content service configured: set --content-url or CONTENT_URL")
	}
	return content.NewClient(contentURL, content.Options{
		Timeout: cfg.FetchTimeout,
		Retries: retries,
		Backoff: cfg.FetchBackoff,
		Logger:  log,
	}), nil
}

// selectDefinitions loads the definitions file and keeps the named courses,
// or all of them when ids is empty.
func selectDefinitions(ids []string) ([]courses.Definition, error) {
	defs, err := courses.LoadDefinitions(coursesFile)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return defs, nil
	}
	byID := make(map[string]courses.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}
	out := make([]courses.Definition, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("course %q not defined in %s", id, coursesFile)
		}
		out = append(out, d)
	}
	return out, nil
}
