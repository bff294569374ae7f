package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillmind-app/stillmind/internal/models"
)

type fakeFetcher struct {
	remote models.RemoteStats
	err    error
	calls  int
}

func (f *fakeFetcher) FetchStats(_ context.Context, _ string) (models.RemoteStats, error) {
	f.calls++
	if f.err != nil {
		return models.RemoteStats{}, f.err
	}
	return f.remote, nil
}

type fakeTokens struct {
	token string
	err   error
}

func (f *fakeTokens) AuthToken(_ context.Context) (string, error) {
	return f.token, f.err
}

var testNow = time.Date(2026, 3, 18, 15, 0, 0, 0, time.UTC)

func newTestAggregator(f Fetcher, token string) *Aggregator {
	a := NewAggregator(f, &fakeTokens{token: token}, nil)
	a.now = func() time.Time { return testNow }
	return a
}

func TestAggregator_EmptyHistory(t *testing.T) {
	a := newTestAggregator(&fakeFetcher{}, "tok")

	view, err := a.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, view.TotalMinutes)
	assert.Equal(t, 0, view.TotalSessions)
	assert.Equal(t, 0, view.CurrentStreak)
	assert.Equal(t, 0, view.LongestStreak)
	require.Len(t, view.WeeklyChart, 7)
	for _, b := range view.WeeklyChart {
		assert.Equal(t, 0, b.Value)
	}
	assert.Nil(t, view.LastSession)
}

func TestAggregator_NoTokenKeepsPreviousView(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newTestAggregator(fetcher, "")

	seeded := models.StatsView{TotalMinutes: 99, WeeklyChart: EmptyWeeklyChart()}
	a.Seed(seeded)

	view, err := a.Refresh(context.Background())
	require.NoError(t, err, "not logged in is not an error")
	assert.Equal(t, 99, view.TotalMinutes)
	assert.Equal(t, 0, fetcher.calls, "no fetch without a token")
}

func TestAggregator_FetchFailureKeepsPreviousView(t *testing.T) {
	a := newTestAggregator(&fakeFetcher{err: errors.New("timeout")}, "tok")
	a.Seed(models.StatsView{TotalMinutes: 42, WeeklyChart: EmptyWeeklyChart()})

	view, err := a.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 42, view.TotalMinutes, "previous view survives a failed fetch")
	assert.Equal(t, 42, a.View().TotalMinutes)
}

func TestAggregator_TrailingWindowBucketing(t *testing.T) {
	// Ten days of history, one record per day, newest first to prove
	// fetch order is not trusted.
	var history []models.SessionRecord
	included := 0
	for i := 0; i < 10; i++ {
		rec := models.SessionRecord{
			Minutes:      10 + i,
			MeditationID: "1",
			Date:         testNow.AddDate(0, 0, -i),
		}
		history = append(history, rec)
		if i < 7 {
			included += rec.Minutes
		}
	}

	remote := models.RemoteStats{TotalMinutes: 500, TotalSessions: 10, History: history}
	a := newTestAggregator(&fakeFetcher{remote: remote}, "tok")

	view, err := a.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, included, TotalMinutes(view.WeeklyChart),
		"chart sums only records within the trailing 7-day window")

	// Each included record landed in its weekday's bucket.
	for i := 0; i < 7; i++ {
		rec := history[i]
		bucket := view.WeeklyChart[int(rec.Date.Weekday())]
		assert.GreaterOrEqual(t, bucket.Value, rec.Minutes, "offset %d", i)
	}

	// Authoritative counters pass through untouched.
	assert.Equal(t, 500, view.TotalMinutes)
	assert.Equal(t, 10, view.TotalSessions)

	require.NotNil(t, view.LastSession)
	assert.Equal(t, testNow, view.LastSession.Date, "last session is the chronologically newest")
}

func TestAggregator_FutureRecordsExcluded(t *testing.T) {
	remote := models.RemoteStats{History: []models.SessionRecord{
		{Minutes: 30, Date: testNow.AddDate(0, 0, 2)},
	}}
	a := newTestAggregator(&fakeFetcher{remote: remote}, "tok")

	view, err := a.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, TotalMinutes(view.WeeklyChart))
	// A future-dated record is still the chronologically last one.
	require.NotNil(t, view.LastSession)
}

func TestBuildView_SortsBeforePickingLast(t *testing.T) {
	remote := models.RemoteStats{History: []models.SessionRecord{
		{MeditationID: "b", Minutes: 5, Date: testNow.AddDate(0, 0, -1)},
		{MeditationID: "c", Minutes: 5, Date: testNow},
		{MeditationID: "a", Minutes: 5, Date: testNow.AddDate(0, 0, -3)},
	}}
	view := BuildView(remote, testNow)
	require.NotNil(t, view.LastSession)
	assert.Equal(t, "c", view.LastSession.MeditationID)
}

func TestBuildView_SameDayAccumulates(t *testing.T) {
	remote := models.RemoteStats{History: []models.SessionRecord{
		{Minutes: 10, Date: testNow},
		{Minutes: 15, Date: testNow.Add(-2 * time.Hour)},
	}}
	view := BuildView(remote, testNow)
	bucket := view.WeeklyChart[int(testNow.Weekday())]
	assert.Equal(t, 25, bucket.Value, "overlapping records accumulate into one day")
}
