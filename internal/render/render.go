// Package render turns a session snapshot into a view model. The functions
// here are pure: all DOM-equivalent side effects (terminal printing) live in
// the cli package, so the reconciliation logic stays testable on its own.
package render

import (
	"fmt"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/session"
)

// User-facing strings match the original page verbatim.
const (
	fallbackDate    = "Дата не указана"
	fallbackSnippet = "Описание отсутствует"
	totalFormat     = "Найдено результатов: %d"
)

// Suprematist icons rotate per result position, like the page's Malevich
// images (square, cross, circle).
var icons = []string{"■", "✚", "●"}

// ItemView is one rendered result card.
type ItemView struct {
	Index   int
	Icon    string
	Title   string
	URL     string
	Date    string
	Snippet string
}

// PageButton is one pagination control.
type PageButton struct {
	Number int
	Active bool
}

// ViewModel is everything the frontend needs to draw one state of the page.
type ViewModel struct {
	Items         []ItemView
	TotalLine     string
	Pages         []PageButton
	ExportEnabled bool
}

// Page builds the view model for the current snapshot.
func Page(snap session.Snapshot) ViewModel {
	vm := ViewModel{
		TotalLine:     fmt.Sprintf(totalFormat, snap.Total),
		ExportEnabled: snap.ExportEnabled,
	}

	for i, item := range snap.PageItems {
		date := item.PublishedDate
		if date == "" {
			date = fallbackDate
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = fallbackSnippet
		}
		vm.Items = append(vm.Items, ItemView{
			Index:   i + 1,
			Icon:    icons[i%len(icons)],
			Title:   item.Title,
			URL:     item.URL,
			Date:    date,
			Snippet: snippet,
		})
	}

	for n := 1; n <= snap.TotalPages; n++ {
		vm.Pages = append(vm.Pages, PageButton{Number: n, Active: n == snap.Page})
	}

	return vm
}
