package e2e

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
)

const backendPageSize = 20

// fakeBackend mimics the search collaborator: /search issues a query_key
// for a stored result set, /filter re-filters that set by publication date,
// /export streams it as CSV.
type fakeBackend struct {
	mu         sync.Mutex
	corpus     []domain.ResultItem
	resultSets map[string][]domain.ResultItem
	searchHits int
	filterHits int
}

func newBackend(t *testing.T, corpus []domain.ResultItem) (*httptest.Server, *fakeBackend) {
	t.Helper()

	b := &fakeBackend{
		corpus:     corpus,
		resultSets: make(map[string][]domain.ResultItem),
	}

	r := chi.NewRouter()
	r.Post("/search", b.handleSearch)
	r.Get("/filter", b.handleFilter)
	r.Get("/export", b.handleExport)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, b
}

func (b *fakeBackend) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Поисковый запрос не может быть пустым"})
		return
	}

	b.mu.Lock()
	b.searchHits++
	key := uuid.NewString()
	b.resultSets[key] = b.corpus
	b.mu.Unlock()

	writeResults(w, b.corpus, key)
}

func (b *fakeBackend) handleFilter(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.filterHits++
	set, ok := b.resultSets[r.URL.Query().Get("query_key")]
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Неверный ключ запроса"})
		return
	}

	filtered := filterByDates(set, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	writeResults(w, filtered, "")
}

func (b *fakeBackend) handleExport(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	set, ok := b.resultSets[r.URL.Query().Get("query_key")]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	filtered := filterByDates(set, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))

	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"title", "url", "published_date"})
	for _, item := range filtered {
		_ = cw.Write([]string{item.Title, item.URL, item.PublishedDate})
	}
	cw.Flush()
}

func (b *fakeBackend) counts() (searches, filters int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.searchHits, b.filterHits
}

func filterByDates(items []domain.ResultItem, start, end string) []domain.ResultItem {
	if start == "" && end == "" {
		return items
	}

	from, errFrom := time.Parse(domain.DateLayout, start)
	to, errTo := time.Parse(domain.DateLayout, end)

	var out []domain.ResultItem
	for _, item := range items {
		year, month, ok := domain.ParsePublishedDate(item.PublishedDate)
		if !ok {
			continue
		}
		published := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if errFrom == nil && published.Before(time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)) {
			continue
		}
		if errTo == nil && published.After(to) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func writeResults(w http.ResponseWriter, items []domain.ResultItem, key string) {
	payload := map[string]any{
		"results":     items,
		"total":       len(items),
		"total_pages": (len(items) + backendPageSize - 1) / backendPageSize,
	}
	if key != "" {
		payload["query_key"] = key
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
