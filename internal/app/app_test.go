package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kabuka/internal/browser"
	"kabuka/internal/kabutan"
	"kabuka/internal/price"
	"kabuka/internal/scraper"

	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	err     error
	started int
	resets  int
	closed  int
}

func (f *fakeSessions) Session() (*browser.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.started++
	return &browser.Session{}, nil
}

func (f *fakeSessions) Reset() {
	f.resets++
}

func (f *fakeSessions) Close() {
	f.closed++
}

// newTestApp fakes one fetch per result; a nil error is a success
func newTestApp(sessions sessionSource, results ...error) *App {
	a := New(scraper.Options{}, "0000")
	a.sessions = sessions

	call := 0
	a.fetch = func(ctx context.Context, s *browser.Session, symbol string) (price.Series, error) {
		err := results[call]
		call++
		if err != nil {
			return price.Series{}, err
		}
		d := time.Date(2023, 1, call, 0, 0, 0, 0, time.UTC)
		return price.Series{Symbol: symbol, Records: []price.Record{{Date: &d}}}, nil
	}
	return a
}

var errLayout = fmt.Errorf("%w: want at least 8 columns, got 7", kabutan.ErrStructuralMismatch)

func TestRefreshCachesSuccess(t *testing.T) {
	sessions := &fakeSessions{}
	a := newTestApp(sessions, nil, errLayout, nil)

	_, ok := a.Last()
	require.False(t, ok)

	first, err := a.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0000", first.Symbol)

	_, err = a.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoData)
	require.ErrorIs(t, err, kabutan.ErrStructuralMismatch)
	require.Zero(t, sessions.resets)

	last, ok := a.Last()
	require.True(t, ok)
	require.Equal(t, first, last)

	third, err := a.Refresh(context.Background())
	require.NoError(t, err)
	last, _ = a.Last()
	require.Equal(t, third, last)
	require.Equal(t, 3, last.Records[0].Date.Day())
}

func TestRefreshInitFailure(t *testing.T) {
	sessions := &fakeSessions{err: fmt.Errorf("%w: no browser binary", browser.ErrInit)}
	a := newTestApp(sessions, nil)

	_, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, browser.ErrInit)
	require.NotErrorIs(t, err, ErrNoData)

	a.Close()
	a.Close()
	require.Equal(t, 2, sessions.closed)
}

func TestRefreshDriverFailureResetsSession(t *testing.T) {
	sessions := &fakeSessions{}
	driverErr := fmt.Errorf("%w: websocket closed", kabutan.ErrDriver)
	a := newTestApp(sessions, driverErr, nil)

	_, err := a.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoData)
	require.Equal(t, 1, sessions.resets)

	series, err := a.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0000", series.Symbol)
	require.Equal(t, 2, sessions.started)
	require.Equal(t, 1, sessions.resets)
}

func TestSourceURL(t *testing.T) {
	a := New(scraper.Options{}, "0000")
	require.Equal(t, "https://kabutan.jp/stock/kabuka?code=0000", a.SourceURL())
	a.Close()
}
