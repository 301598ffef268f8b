package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/render"
)

// SearchCmd creates the one-shot search command.
func SearchCmd() *cobra.Command {
	var (
		startDate  string
		endDate    string
		sortFlag   string
		page       int
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search arXiv articles",
		Long:  "Searches arXiv articles through the backend, optionally filtered by publication date range and sorted client-side.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], startDate, endDate, sortFlag, page, exportPath, outputJSON)
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "Start of the publication date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End of the publication date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort by publication date: asc or desc")
	cmd.Flags().IntVar(&page, "page", 1, "Page number to display")
	cmd.Flags().StringVar(&exportPath, "export", "", "Export the result set to the given file after searching")

	return cmd
}

func runSearch(cmd *cobra.Command, query, startDate, endDate, sortFlag string, page int, exportPath string, outputJSON bool) error {
	order, err := domain.ParseSortOrder(sortFlag)
	if err != nil {
		return fmt.Errorf("%s", userMessage(err, msgSearchFailed))
	}

	sess, cleanup, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	err = sess.SubmitQuery(cmd.Context(), query, domain.DateRange{Start: startDate, End: endDate}, order)
	if err != nil {
		msg := userMessage(err, msgSearchFailed)
		if msg == "" {
			return nil // empty query is silently ignored
		}
		return fmt.Errorf("%s", msg)
	}

	if page > 1 {
		sess.ChangePage(page)
	}

	snap := sess.Snapshot()
	vm := render.Page(snap)

	if outputJSON {
		output, _ := json.MarshalIndent(vm, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(output))
	} else {
		printPage(cmd.OutOrStdout(), vm)
	}

	if exportPath != "" && snap.ExportEnabled {
		if err := sess.ExportResults(cmd.Context(), exportPath); err != nil {
			return fmt.Errorf("%s", userMessage(err, msgExportFailed))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Результаты сохранены в %s\n", exportPath)
	}

	return nil
}
