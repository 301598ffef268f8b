// Package session holds the client-side result-set state machine. A Session
// owns the current query, the last fetched result set, the page number, the
// date filter, the sort order and the backend-issued continuation token, and
// mediates every user action into either a local re-render or a network call.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/pagination"
	"github.com/trofimovelijah/SuprematistArticleFinder/internal/telemetry"
)

const defaultPageSize = 20

// API is the search collaborator as seen by the session. The backend is
// opaque; only result-page shapes cross this boundary.
type API interface {
	Search(ctx context.Context, query string) (*domain.ResultPage, error)
	Filter(ctx context.Context, token string, page int, dates domain.DateRange) (*domain.ResultPage, error)
	Export(ctx context.Context, token string, dates domain.DateRange, outputPath string) error
}

// Session is created once per page view and owns its state exclusively.
// Pagination strategy: the session holds the full result set from the last
// search/filter response and slices pages client-side; ChangePage performs
// no network I/O. Filter changes are the only follow-up round-trips.
type Session struct {
	api      API
	log      *zap.Logger
	pageSize int
	now      func() time.Time
	loading  func(bool)

	mu  sync.Mutex
	seq uint64 // last issued request sequence, staleness guard

	query         domain.SearchQuery
	token         string
	baseline      []domain.ResultItem // unfiltered set from the last search
	baselineTotal int
	current       []domain.ResultItem // displayed set, server order
	total         int
	page          int
}

// Option configures a Session.
type Option func(*Session)

// WithPageSize overrides the client-side page size.
func WithPageSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithLogger attaches a structured logger for diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithClock overrides the calendar clock. Tests use this to pin "today".
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLoadingFunc registers the loading indicator hook. It is invoked with
// true when a network chain starts and guaranteed to be invoked with false
// on every exit path.
func WithLoadingFunc(fn func(bool)) Option {
	return func(s *Session) { s.loading = fn }
}

// New creates an empty Session around the given collaborator.
func New(api API, opts ...Option) *Session {
	s := &Session{
		api:      api,
		log:      zap.NewNop(),
		pageSize: defaultPageSize,
		now:      time.Now,
		page:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitQuery replaces the session state wholesale with the results of a new
// search. Empty query text is a silent no-op (ErrEmptyQuery is returned for
// the caller to ignore). The search call carries the raw query text only; a
// supplied date range is applied as a second, separate filter call, and the
// display reflects only the final response in the chain.
func (s *Session) SubmitQuery(ctx context.Context, text string, dates domain.DateRange, sort domain.SortOrder) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyQuery
	}
	if err := dates.Validate(s.now()); err != nil {
		return err
	}

	seq := s.issue()
	log := s.log.With(zap.String("request_id", uuid.NewString()), zap.Uint64("seq", seq))
	log.Debug("search issued", zap.String("query", text))

	s.setLoading(true)
	defer s.setLoading(false)

	page, err := s.api.Search(ctx, text)
	if err != nil {
		if !s.clearAllIfCurrent(seq) {
			log.Debug("stale search failure discarded")
			return nil
		}
		log.Warn("search failed", zap.Error(err))
		telemetry.CaptureError(ctx, err)
		return err
	}

	items := withDerivedDates(page.Items)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		log.Debug("stale search response discarded")
		return nil
	}
	s.query = domain.SearchQuery{Text: text, Dates: dates, Sort: sort}
	s.token = page.ContinuationToken
	s.baseline = items
	s.baselineTotal = page.TotalCount
	s.current = items
	s.total = page.TotalCount
	s.page = 1
	s.mu.Unlock()

	if dates.IsZero() {
		return nil
	}

	norm := dates.Normalize(s.now())
	filtered, err := s.api.Filter(ctx, page.ContinuationToken, 1, norm)
	if err != nil {
		if !s.clearViewIfCurrent(seq) {
			log.Debug("stale filter failure discarded")
			return nil
		}
		log.Warn("follow-up filter failed", zap.Error(err))
		telemetry.CaptureError(ctx, err)
		return err
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		log.Debug("stale filter response discarded")
		return nil
	}
	s.current = withDerivedDates(filtered.Items)
	s.total = filtered.TotalCount
	s.page = 1
	s.mu.Unlock()
	return nil
}

// ChangePage moves the visible window to another page of the locally held
// result set. Never mutates the query and never touches the network.
// Out-of-range or repeated page numbers are ignored.
func (s *Session) ChangePage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || page == s.page {
		return
	}
	totalPages := pagination.Count(len(s.current), s.pageSize)
	if page < 1 || page > totalPages {
		s.log.Debug("page change ignored", zap.Int("page", page), zap.Int("total_pages", totalPages))
		return
	}
	s.page = page
}

// ApplyDateFilter re-filters the current result set by publication date.
// Filtering before any search completed is a user error, not a failure, and
// is silently ignored. Supplying neither bound clears the filter and
// restores the unfiltered result set locally. A single supplied bound is
// normalized (missing start becomes the epoch floor, missing end becomes
// today) before the network call; bounds in the future are rejected without
// one. Always resets the page number to 1.
func (s *Session) ApplyDateFilter(ctx context.Context, start, end string) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		s.log.Debug("filter ignored: no active search")
		return nil
	}

	bounds := domain.DateRange{Start: start, End: end}
	if bounds.IsZero() {
		s.query.Dates = domain.DateRange{}
		s.current = s.baseline
		s.total = s.baselineTotal
		s.page = 1
		s.mu.Unlock()
		return nil
	}
	token := s.token
	s.mu.Unlock()

	if err := bounds.Validate(s.now()); err != nil {
		return err
	}

	seq := s.issue()
	log := s.log.With(zap.String("request_id", uuid.NewString()), zap.Uint64("seq", seq))
	norm := bounds.Normalize(s.now())
	log.Debug("filter issued", zap.String("start", norm.Start), zap.String("end", norm.End))

	s.setLoading(true)
	defer s.setLoading(false)

	filtered, err := s.api.Filter(ctx, token, 1, norm)
	if err != nil {
		if !s.clearViewIfCurrent(seq) {
			log.Debug("stale filter failure discarded")
			return nil
		}
		log.Warn("filter failed", zap.Error(err))
		telemetry.CaptureError(ctx, err)
		return err
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		log.Debug("stale filter response discarded")
		return nil
	}
	s.query.Dates = bounds
	s.current = withDerivedDates(filtered.Items)
	s.total = filtered.TotalCount
	s.page = 1
	s.mu.Unlock()
	return nil
}

// ApplySort sets the client-side ordering of the held result set. Pure
// re-ordering: no network I/O, the visible page keeps its number and shows
// the same window of the re-ordered set.
func (s *Session) ApplySort(order domain.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query.Sort = order
}

// ExportResults downloads the export payload for the current result set and
// date bounds into outputPath. No session state changes. Exporting before
// any search completed is silently ignored.
func (s *Session) ExportResults(ctx context.Context, outputPath string) error {
	s.mu.Lock()
	token := s.token
	dates := s.query.Dates
	s.mu.Unlock()

	if token == "" {
		s.log.Debug("export ignored: no active search")
		return nil
	}

	if err := s.api.Export(ctx, token, dates.Normalize(s.now()), outputPath); err != nil {
		s.log.Warn("export failed", zap.Error(err))
		telemetry.CaptureError(ctx, err)
		return err
	}
	return nil
}

// Snapshot is an immutable view of the session for rendering.
type Snapshot struct {
	Query         domain.SearchQuery
	Items         []domain.ResultItem // full held set, display order
	PageItems     []domain.ResultItem // visible window
	Page          int
	TotalPages    int
	Total         int // backend-reported result count
	Token         string
	ExportEnabled bool
}

// Snapshot returns the current state with the sort order and page slice
// applied. Sorting and slicing operate on the same held copy, so the page
// window and the sort order can never desynchronize.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := append([]domain.ResultItem(nil), s.current...)
	domain.SortByPublishedDate(view, s.query.Sort)

	return Snapshot{
		Query:         s.query,
		Items:         view,
		PageItems:     append([]domain.ResultItem(nil), pagination.Slice(view, s.page, s.pageSize)...),
		Page:          s.page,
		TotalPages:    pagination.Count(len(view), s.pageSize),
		Total:         s.total,
		Token:         s.token,
		ExportEnabled: s.token != "" && len(view) > 0,
	}
}

// issue allocates the next request sequence number. A response is applied
// only while its sequence is still the latest issued one, so the response to
// the most recent request always wins.
func (s *Session) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// clearAllIfCurrent drops the whole result state (a failed search clears
// the page). Returns false when seq has been superseded.
func (s *Session) clearAllIfCurrent(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.token = ""
	s.baseline = nil
	s.baselineTotal = 0
	s.current = nil
	s.total = 0
	s.page = 1
	return true
}

// clearViewIfCurrent drops only the displayed set (a failed filter keeps
// the token and the unfiltered baseline recoverable). Returns false when
// seq has been superseded.
func (s *Session) clearViewIfCurrent(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.current = nil
	s.total = 0
	s.page = 1
	return true
}

func (s *Session) setLoading(v bool) {
	if s.loading != nil {
		s.loading(v)
	}
}

// withDerivedDates fills missing or unparseable publication dates from the
// arXiv identifier in the result URL, where possible.
func withDerivedDates(items []domain.ResultItem) []domain.ResultItem {
	out := append([]domain.ResultItem(nil), items...)
	for i := range out {
		if _, _, ok := domain.ParsePublishedDate(out[i].PublishedDate); ok {
			continue
		}
		if derived := domain.PublishedDateFromURL(out[i].URL); derived != "" {
			out[i].PublishedDate = derived
		}
	}
	return out
}
