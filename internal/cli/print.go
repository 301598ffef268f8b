package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/render"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	dateColor  = color.New(color.FgYellow)
	urlColor   = color.New(color.Faint)
	totalColor = color.New(color.Bold)
	errColor   = color.New(color.FgRed)
	pageColor  = color.New(color.FgGreen, color.Bold)
)

// printPage draws one state of the results page.
func printPage(w io.Writer, vm render.ViewModel) {
	fmt.Fprintln(w, totalColor.Sprint(vm.TotalLine))
	fmt.Fprintln(w)

	for _, item := range vm.Items {
		fmt.Fprintf(w, "%s %s\n", item.Icon, titleColor.Sprint(item.Title))
		fmt.Fprintf(w, "  %s\n", urlColor.Sprint(item.URL))
		fmt.Fprintf(w, "  %s\n", dateColor.Sprintf("Дата публикации: %s", item.Date))
		fmt.Fprintf(w, "  %s\n\n", item.Snippet)
	}

	if len(vm.Pages) > 1 {
		buttons := make([]string, len(vm.Pages))
		for i, p := range vm.Pages {
			if p.Active {
				buttons[i] = pageColor.Sprintf("[%d]", p.Number)
			} else {
				buttons[i] = fmt.Sprintf(" %d ", p.Number)
			}
		}
		fmt.Fprintf(w, "Страницы: %s\n", strings.Join(buttons, " "))
	}

	if vm.ExportEnabled {
		fmt.Fprintln(w, urlColor.Sprint("Доступен экспорт результатов"))
	}
}

func printError(w io.Writer, message string) {
	if message == "" {
		return
	}
	fmt.Fprintln(w, errColor.Sprint(message))
}
