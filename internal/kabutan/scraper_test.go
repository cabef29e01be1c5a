package kabutan

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kabuka/internal/browser"
	"kabuka/internal/extractor"
	"kabuka/internal/fetcher"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	markup string
	err    error
	panic  bool
	calls  int
}

func (f *fakeSource) TableHTML(ctx context.Context, symbol string) (string, error) {
	f.calls++
	if f.panic {
		panic("page went away")
	}
	return f.markup, f.err
}

func newTestScraper(src TableSource) *Scraper {
	s := NewScraper(src)
	s.now = func() time.Time { return time.Date(2023, 1, 17, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestFetch(t *testing.T) {
	src := &fakeSource{markup: loadFixture(t, "kabuka_table.html")}
	series, ok := newTestScraper(src).Fetch(context.Background(), "0000")
	require.True(t, ok)
	require.Equal(t, "0000", series.Symbol)
	require.Equal(t, 3, series.Len())
	require.Equal(t, date(2023, 1, 16), *series.Records[0].Date)
	require.Equal(t, time.Date(2023, 1, 17, 9, 0, 0, 0, time.UTC), series.FetchedAt)
}

func TestFetchIsRepeatable(t *testing.T) {
	src := &fakeSource{markup: loadFixture(t, "kabuka_table.html")}
	s := newTestScraper(src)

	first, ok := s.Fetch(context.Background(), "0000")
	require.True(t, ok)
	second, ok := s.Fetch(context.Background(), "0000")
	require.True(t, ok)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second fetch differs (-first +second):\n%s", diff)
	}
	require.Equal(t, 2, src.calls)
}

func TestFetchEmptyTable(t *testing.T) {
	src := &fakeSource{markup: loadFixture(t, "header_only_table.html")}
	series, ok := newTestScraper(src).Fetch(context.Background(), "0000")
	require.True(t, ok)
	require.Zero(t, series.Len())
	require.NotNil(t, series.Records)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{name: "too few columns", src: &fakeSource{markup: loadFixture(t, "narrow_table.html")}},
		{name: "no table", src: &fakeSource{markup: "<div></div>"}},
		{name: "timeout", src: &fakeSource{err: fmt.Errorf("%w: wait", ErrNavigationTimeout)}},
		{name: "element not found", src: &fakeSource{err: fmt.Errorf("%w: table", ErrElementNotFound)}},
		{name: "driver", src: &fakeSource{err: fmt.Errorf("%w: websocket closed", ErrDriver)}},
		{name: "panic", src: &fakeSource{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, ok := newTestScraper(tt.src).Fetch(context.Background(), "0000")
			require.False(t, ok)
			require.Nil(t, series.Records)
		})
	}
}

func TestRunReturnsCategorizedError(t *testing.T) {
	_, err := newTestScraper(&fakeSource{err: fmt.Errorf("%w: websocket closed", ErrDriver)}).Run(context.Background(), "0000")
	require.Equal(t, CategoryDriver, Categorize(err))

	_, err = newTestScraper(&fakeSource{panic: true}).Run(context.Background(), "0000")
	require.Error(t, err)
	require.Equal(t, CategoryUnexpected, Categorize(err))

	series, err := newTestScraper(&fakeSource{markup: loadFixture(t, "kabuka_table.html")}).Run(context.Background(), "0000")
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		err  error
		want Category
	}{
		{translate(fmt.Errorf("%w: deadline", fetcher.ErrTimeout)), CategoryTimeout},
		{translate(fmt.Errorf("%w: table", extractor.ErrElementNotFound)), CategoryElementNotFound},
		{translate(fmt.Errorf("%w: crashed", fetcher.ErrDriver)), CategoryDriver},
		{translate(errors.New("cdp: -32000")), CategoryDriver},
		{fmt.Errorf("%w: 7 columns", ErrStructuralMismatch), CategoryStructuralMismatch},
		{fmt.Errorf("%w: no binary", browser.ErrInit), CategoryInitialization},
		{errors.New("something else"), CategoryUnexpected},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			require.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestTableURL(t *testing.T) {
	require.Equal(t, "https://kabutan.jp/stock/kabuka?code=0000", TableURL("", "0000"))
	require.Equal(t, "https://kabutan.jp/stock/kabuka?code=7203", TableURL("https://kabutan.jp/", "7203"))
	require.Equal(t, "http://localhost:8080/stock/kabuka?code=a%26b", TableURL("http://localhost:8080", "a&b"))
}

func TestPreview(t *testing.T) {
	require.Equal(t, "abc", preview("abc", 5))
	require.Equal(t, "日経...", preview("日経平均", 2))
}
