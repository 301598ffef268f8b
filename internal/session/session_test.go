package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
)

var testNow = func() time.Time {
	return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
}

type filterRequest struct {
	token string
	page  int
	dates domain.DateRange
}

// fakeAPI is a scripted search collaborator recording every call.
type fakeAPI struct {
	mu             sync.Mutex
	searchQueries  []string
	filterRequests []filterRequest

	searchFn func(query string) (*domain.ResultPage, error)
	filterFn func(token string, page int, dates domain.DateRange) (*domain.ResultPage, error)
	exportFn func(token string, dates domain.DateRange, path string) error
}

func (f *fakeAPI) Search(_ context.Context, query string) (*domain.ResultPage, error) {
	f.mu.Lock()
	f.searchQueries = append(f.searchQueries, query)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return resultPage("key", "03.2020", "01.2023", ""), nil
	}
	return fn(query)
}

func (f *fakeAPI) Filter(_ context.Context, token string, page int, dates domain.DateRange) (*domain.ResultPage, error) {
	f.mu.Lock()
	f.filterRequests = append(f.filterRequests, filterRequest{token: token, page: page, dates: dates})
	fn := f.filterFn
	f.mu.Unlock()
	if fn == nil {
		return resultPage("", "03.2020"), nil
	}
	return fn(token, page, dates)
}

func (f *fakeAPI) Export(_ context.Context, token string, dates domain.DateRange, path string) error {
	f.mu.Lock()
	fn := f.exportFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(token, dates, path)
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searchQueries)
}

func (f *fakeAPI) filterCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filterRequests)
}

// resultPage builds a page with one item per publication date.
func resultPage(token string, dates ...string) *domain.ResultPage {
	items := make([]domain.ResultItem, len(dates))
	for i, d := range dates {
		items[i] = domain.ResultItem{
			URL:           "https://example.com/" + d,
			Title:         "item-" + d,
			PublishedDate: d,
		}
	}
	return &domain.ResultPage{
		Items:             items,
		TotalCount:        len(items),
		TotalPages:        1,
		PageNumber:        1,
		ContinuationToken: token,
	}
}

func newTestSession(api API, opts ...Option) *Session {
	return New(api, append([]Option{WithClock(testNow)}, opts...)...)
}

func TestSubmitQuery_EmptyTextIsSilentNoOp(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "   ", domain.DateRange{}, domain.SortNone)

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Equal(t, 0, api.searchCount(), "empty query must not reach the network")
}

func TestSubmitQuery_IssuesExactlyOneSearchCall(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone)
	require.NoError(t, err)

	assert.Equal(t, 1, api.searchCount())
	assert.Equal(t, 0, api.filterCount(), "no date bound, no follow-up filter")

	snap := s.Snapshot()
	assert.Equal(t, "test", snap.Query.Text)
	assert.Equal(t, "key", snap.Token)
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, snap.TotalPages)
	assert.True(t, snap.ExportEnabled)
}

func TestSubmitQuery_WithDatesChainsOneFilterCall(t *testing.T) {
	api := &fakeAPI{
		filterFn: func(token string, page int, dates domain.DateRange) (*domain.ResultPage, error) {
			return resultPage("", "01.2023"), nil
		},
	}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "test", domain.DateRange{Start: "2024-01-01"}, domain.SortNone)
	require.NoError(t, err)

	require.Equal(t, 1, api.searchCount())
	require.Equal(t, 1, api.filterCount())

	got := api.filterRequests[0]
	assert.Equal(t, "key", got.token)
	assert.Equal(t, 1, got.page)
	assert.Equal(t, domain.DateRange{Start: "2024-01-01", End: "2025-03-15"}, got.dates,
		"missing end bound is normalized to today before the call")

	snap := s.Snapshot()
	assert.Len(t, snap.Items, 1, "display reflects only the final response in the chain")
	assert.Equal(t, "01.2023", snap.Items[0].PublishedDate)
}

func TestSubmitQuery_EndOnlyBoundGetsEpochFloor(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "test", domain.DateRange{End: "2024-01-01"}, domain.SortNone)
	require.NoError(t, err)

	require.Equal(t, 1, api.filterCount())
	assert.Equal(t, domain.DateRange{Start: "1980-01-01", End: "2024-01-01"}, api.filterRequests[0].dates)
}

func TestSubmitQuery_FutureBoundRejectedBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "test", domain.DateRange{Start: "2025-03-16"}, domain.SortNone)

	assert.ErrorIs(t, err, domain.ErrFutureDateBound)
	assert.Equal(t, 0, api.searchCount())
}

func TestSubmitQuery_SearchFailureClearsState(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "first", domain.DateRange{}, domain.SortNone))

	api.mu.Lock()
	api.searchFn = func(string) (*domain.ResultPage, error) {
		return nil, domain.NewNetworkError(errors.New("connection refused"))
	}
	api.mu.Unlock()

	err := s.SubmitQuery(context.Background(), "second", domain.DateRange{}, domain.SortNone)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeNetwork, domain.ErrorCode(err))

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Token)
	assert.False(t, snap.ExportEnabled)
}

func TestSubmitQuery_FollowUpFilterFailureClearsViewKeepsToken(t *testing.T) {
	api := &fakeAPI{
		filterFn: func(string, int, domain.DateRange) (*domain.ResultPage, error) {
			return nil, domain.NewServerError("Неверный формат даты")
		},
	}
	s := newTestSession(api)

	err := s.SubmitQuery(context.Background(), "test", domain.DateRange{Start: "2024-01-01"}, domain.SortNone)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeServer, domain.ErrorCode(err))

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, "key", snap.Token, "a failed filter keeps the search token usable")
}

func TestChangePage_MovesWindowLocally(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(string) (*domain.ResultPage, error) {
			return resultPage("key", "01.2020", "02.2020", "03.2020", "04.2020", "05.2020"), nil
		},
	}
	s := newTestSession(api, WithPageSize(2))
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

	before := s.Snapshot()
	require.Equal(t, 3, before.TotalPages)
	require.Equal(t, []string{"01.2020", "02.2020"}, pageDates(before))

	s.ChangePage(2)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, []string{"03.2020", "04.2020"}, pageDates(snap))
	assert.Equal(t, before.Query, snap.Query, "page change never mutates the query")
	assert.Equal(t, 1, api.searchCount(), "page change never triggers network I/O")
	assert.Equal(t, 0, api.filterCount())
}

func TestChangePage_OutOfRangeIsNoOp(t *testing.T) {
	api := &fakeAPI{} // default: 3 items, one page
	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

	s.ChangePage(2)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, snap.TotalPages)
}

func TestChangePage_BeforeAnySearchIsNoOp(t *testing.T) {
	s := newTestSession(&fakeAPI{})
	s.ChangePage(3)
	assert.Equal(t, 1, s.Snapshot().Page)
}

func TestApplyDateFilter_BeforeAnySearchIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)

	err := s.ApplyDateFilter(context.Background(), "2024-01-01", "2024-06-01")

	require.NoError(t, err)
	assert.Equal(t, 0, api.filterCount())
}

func TestApplyDateFilter_NormalizesSingleBounds(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  domain.DateRange
	}{
		{"start only", "2024-01-01", "", domain.DateRange{Start: "2024-01-01", End: "2025-03-15"}},
		{"end only", "", "2024-01-01", domain.DateRange{Start: "1980-01-01", End: "2024-01-01"}},
		{"both", "2020-01-01", "2024-01-01", domain.DateRange{Start: "2020-01-01", End: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			s := newTestSession(api)
			require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

			require.NoError(t, s.ApplyDateFilter(context.Background(), tt.start, tt.end))

			require.Equal(t, 1, api.filterCount())
			assert.Equal(t, tt.want, api.filterRequests[0].dates)
			assert.Equal(t, 1, s.Snapshot().Page, "filter change resets to page 1")
		})
	}
}

func TestApplyDateFilter_FutureBoundRejectedWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))
	before := s.Snapshot()

	err := s.ApplyDateFilter(context.Background(), "2025-03-16", "")

	assert.ErrorIs(t, err, domain.ErrFutureDateBound)
	assert.Equal(t, 0, api.filterCount())
	assert.Equal(t, before.Items, s.Snapshot().Items, "held results stay unchanged on validation errors")
}

func TestApplyDateFilter_ClearRestoresBaselineLocally(t *testing.T) {
	api := &fakeAPI{
		filterFn: func(string, int, domain.DateRange) (*domain.ResultPage, error) {
			return resultPage("", "01.2023"), nil
		},
	}
	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))
	require.NoError(t, s.ApplyDateFilter(context.Background(), "2023-01-01", "2023-12-31"))
	require.Len(t, s.Snapshot().Items, 1)

	err := s.ApplyDateFilter(context.Background(), "", "")
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Items, 3, "clearing the filter re-shows the unfiltered result set")
	assert.True(t, snap.Query.Dates.IsZero())
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, api.filterCount(), "clearing the filter is local, no extra round-trip")
}

func TestApplySort_DescendingPushesMissingDatesLast(t *testing.T) {
	s := newTestSession(&fakeAPI{}) // default dates: 03.2020, 01.2023, missing
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

	s.ApplySort(domain.SortDescending)

	assert.Equal(t, []string{"01.2023", "03.2020", ""}, pageDates(s.Snapshot()))
}

func TestApplySort_IdempotentAndReversible(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(string) (*domain.ResultPage, error) {
			return resultPage("key", "03.2020", "01.2023", "05.1998", "12.2008"), nil
		},
	}
	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

	s.ApplySort(domain.SortAscending)
	asc := pageDates(s.Snapshot())
	s.ApplySort(domain.SortAscending)
	assert.Equal(t, asc, pageDates(s.Snapshot()), "re-applying the same order changes nothing")

	s.ApplySort(domain.SortDescending)
	desc := pageDates(s.Snapshot())
	for i := range asc {
		assert.Equal(t, asc[len(asc)-1-i], desc[i], "desc is the exact reverse of asc for all-dated items")
	}

	assert.Equal(t, 0, api.filterCount(), "sorting never triggers network I/O")
	assert.Equal(t, 1, api.searchCount())
}

func TestApplySort_KeepsPageNumber(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(string) (*domain.ResultPage, error) {
			return resultPage("key", "01.2020", "02.2020", "03.2020", "04.2020"), nil
		},
	}
	s := newTestSession(api, WithPageSize(2))
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))
	s.ChangePage(2)

	s.ApplySort(domain.SortDescending)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Page, "same page number, different content order")
	assert.Equal(t, []string{"02.2020", "01.2020"}, pageDates(snap))
}

func TestStaleness_LatestRequestWins(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.searchFn = func(query string) (*domain.ResultPage, error) {
		if query == "slow" {
			close(slowStarted)
			<-release
			return resultPage("slow-key", "01.2001"), nil
		}
		return resultPage("fast-key", "02.2002"), nil
	}
	s := newTestSession(api)

	done := make(chan error, 1)
	go func() {
		done <- s.SubmitQuery(context.Background(), "slow", domain.DateRange{}, domain.SortNone)
	}()
	<-slowStarted

	// A newer request is issued and settles while the first is in flight.
	require.NoError(t, s.SubmitQuery(context.Background(), "fast", domain.DateRange{}, domain.SortNone))

	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	assert.Equal(t, "fast-key", snap.Token, "stale response must never overwrite fresher state")
	assert.Equal(t, "fast", snap.Query.Text)
	assert.Equal(t, []string{"02.2002"}, pageDates(snap))
}

func TestStaleness_StaleFailureDoesNotClearFresherState(t *testing.T) {
	slowStarted := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.searchFn = func(query string) (*domain.ResultPage, error) {
		if query == "slow" {
			close(slowStarted)
			<-release
			return nil, domain.NewNetworkError(errors.New("timeout"))
		}
		return resultPage("fast-key", "02.2002"), nil
	}
	s := newTestSession(api)

	done := make(chan error, 1)
	go func() {
		done <- s.SubmitQuery(context.Background(), "slow", domain.DateRange{}, domain.SortNone)
	}()
	<-slowStarted

	require.NoError(t, s.SubmitQuery(context.Background(), "fast", domain.DateRange{}, domain.SortNone))

	close(release)
	assert.NoError(t, <-done, "a superseded failure is discarded, not surfaced")
	assert.Equal(t, "fast-key", s.Snapshot().Token)
}

func TestLoadingHook_RestoredOnEveryExitPath(t *testing.T) {
	var states []bool
	api := &fakeAPI{}
	s := newTestSession(api, WithLoadingFunc(func(v bool) { states = append(states, v) }))

	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))
	assert.Equal(t, []bool{true, false}, states)

	api.mu.Lock()
	api.searchFn = func(string) (*domain.ResultPage, error) {
		return nil, domain.NewNetworkError(errors.New("boom"))
	}
	api.mu.Unlock()

	states = nil
	require.Error(t, s.SubmitQuery(context.Background(), "again", domain.DateRange{}, domain.SortNone))
	assert.Equal(t, []bool{true, false}, states, "indicator is hidden on the failure path too")
}

// MockExportAPI exercises the export contract with a testify mock.
type MockExportAPI struct {
	mock.Mock
}

func (m *MockExportAPI) Search(ctx context.Context, query string) (*domain.ResultPage, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResultPage), args.Error(1)
}

func (m *MockExportAPI) Filter(ctx context.Context, token string, page int, dates domain.DateRange) (*domain.ResultPage, error) {
	args := m.Called(ctx, token, page, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResultPage), args.Error(1)
}

func (m *MockExportAPI) Export(ctx context.Context, token string, dates domain.DateRange, path string) error {
	args := m.Called(ctx, token, dates, path)
	return args.Error(0)
}

func TestExportResults_CarriesTokenAndNormalizedBounds(t *testing.T) {
	api := new(MockExportAPI)
	api.On("Search", mock.Anything, "test").Return(resultPage("key", "03.2020"), nil)
	api.On("Filter", mock.Anything, "key", 1, domain.DateRange{Start: "2024-01-01", End: "2025-03-15"}).
		Return(resultPage("", "03.2020"), nil)
	api.On("Export", mock.Anything, "key", domain.DateRange{Start: "2024-01-01", End: "2025-03-15"}, "out.csv").
		Return(nil)

	s := newTestSession(api)
	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))
	require.NoError(t, s.ApplyDateFilter(context.Background(), "2024-01-01", ""))

	before := s.Snapshot()
	require.NoError(t, s.ExportResults(context.Background(), "out.csv"))

	assert.Equal(t, before, s.Snapshot(), "export mutates no session state")
	api.AssertExpectations(t)
}

func TestExportResults_BeforeAnySearchIsNoOp(t *testing.T) {
	api := new(MockExportAPI)
	s := newTestSession(api)

	require.NoError(t, s.ExportResults(context.Background(), "out.csv"))
	api.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEndToEnd_SubmitThenPageNoOpThenSort(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(string) (*domain.ResultPage, error) {
			return resultPage("abc", "03.2020", "01.2023", ""), nil
		},
	}
	s := newTestSession(api)

	require.NoError(t, s.SubmitQuery(context.Background(), "test", domain.DateRange{}, domain.SortNone))

	snap := s.Snapshot()
	assert.Len(t, snap.PageItems, 3)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, snap.TotalPages)
	assert.True(t, snap.ExportEnabled)

	s.ChangePage(2) // total_pages=1, must be a no-op
	assert.Equal(t, 1, s.Snapshot().Page)

	s.ApplySort(domain.SortDescending)
	assert.Equal(t, []string{"01.2023", "03.2020", ""}, pageDates(s.Snapshot()))
}

func pageDates(snap Snapshot) []string {
	dates := make([]string, len(snap.PageItems))
	for i, item := range snap.PageItems {
		dates[i] = item.PublishedDate
	}
	return dates
}
