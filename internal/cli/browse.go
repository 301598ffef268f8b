package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/render"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/session"
)

// BrowseCmd creates the interactive command: a terminal stand-in for the
// search page, driving one session across queries, page changes, filters,
// sorts and exports.
func BrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Browse search results interactively",
		Long: `Starts an interactive session. Any input line runs a new search;
commands control the current result set:

  :page <n>             show page n
  :filter <start> <end>  filter by publication dates (YYYY-MM-DD, "-" for open bound)
  :filter -             clear the date filter
  :sort asc|desc|none   sort by publication date
  :export <file>        export the current result set
  :quit                 leave`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial := ""
			if len(args) == 1 {
				initial = args[0]
			}
			return runBrowse(cmd, initial)
		},
	}
	return cmd
}

func runBrowse(cmd *cobra.Command, initial string) error {
	out := cmd.OutOrStdout()

	sess, cleanup, err := newSession(cmd, func(loading bool) {
		if loading {
			fmt.Fprintln(out, "Загрузка...")
		}
	})
	if err != nil {
		return err
	}
	defer cleanup()

	if initial != "" {
		submit(cmd, sess, out, initial)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == ":quit" || line == ":q" {
			break
		}
		if line != "" {
			dispatch(cmd, sess, out, line)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func dispatch(cmd *cobra.Command, sess *session.Session, out io.Writer, line string) {
	if !strings.HasPrefix(line, ":") {
		submit(cmd, sess, out, line)
		return
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":page", ":p":
		if len(fields) != 2 {
			printError(out, "Использование: :page <номер>")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			printError(out, "Неверный номер страницы")
			return
		}
		sess.ChangePage(n)
		printPage(out, render.Page(sess.Snapshot()))

	case ":filter", ":f":
		start, end := parseBounds(fields[1:])
		if err := sess.ApplyDateFilter(cmd.Context(), start, end); err != nil {
			printError(out, userMessage(err, msgFilterFailed))
			return
		}
		printPage(out, render.Page(sess.Snapshot()))

	case ":sort", ":s":
		if len(fields) != 2 {
			printError(out, "Использование: :sort asc|desc|none")
			return
		}
		order, err := domain.ParseSortOrder(fields[1])
		if err != nil {
			printError(out, userMessage(err, msgFilterFailed))
			return
		}
		sess.ApplySort(order)
		printPage(out, render.Page(sess.Snapshot()))

	case ":export", ":e":
		if len(fields) != 2 {
			printError(out, "Использование: :export <файл>")
			return
		}
		if !sess.Snapshot().ExportEnabled {
			printError(out, "Нет результатов для экспорта")
			return
		}
		if err := sess.ExportResults(cmd.Context(), fields[1]); err != nil {
			printError(out, userMessage(err, msgExportFailed))
			return
		}
		fmt.Fprintf(out, "Результаты сохранены в %s\n", fields[1])

	default:
		printError(out, "Неизвестная команда: "+fields[0])
	}
}

func submit(cmd *cobra.Command, sess *session.Session, out io.Writer, query string) {
	if err := sess.SubmitQuery(cmd.Context(), query, domain.DateRange{}, domain.SortNone); err != nil {
		printError(out, userMessage(err, msgSearchFailed))
		return
	}
	printPage(out, render.Page(sess.Snapshot()))
}

// parseBounds reads up to two bound arguments; "-" stands for an open
// bound. ":filter -" alone clears the filter entirely.
func parseBounds(args []string) (start, end string) {
	if len(args) > 0 && args[0] != "-" {
		start = args[0]
	}
	if len(args) > 1 && args[1] != "-" {
		end = args[1]
	}
	return start, end
}
