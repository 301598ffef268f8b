package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "artfinder",
		Short: "artfinder - arXiv article search client",
		Long: `artfinder searches arXiv articles through the search backend and lets you
filter by publication date, sort, paginate and export the results.

Environment variables:
  ARTFINDER_API_URL       Search backend base URL (default: http://localhost:5000)
  ARTFINDER_PAGE_SIZE     Results per page (default: 20)
  ARTFINDER_LOG_FILE      Diagnostic log file (rotated; default: console only)
  ARTFINDER_SENTRY_DSN    Error reporting DSN (optional)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "Search backend base URL (overrides env)")

	rootCmd.AddCommand(cli.SearchCmd())
	rootCmd.AddCommand(cli.BrowseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
