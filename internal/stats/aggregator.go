package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/stillmind-app/stillmind/internal/models"
)

// weekdayLabels are the chart labels, Sunday first.
var weekdayLabels = [7]string{"S", "M", "T", "W", "T", "F", "S"}

// Fetcher reads the authoritative aggregates and raw history from the
// remote store.
type Fetcher interface {
	FetchStats(ctx context.Context, token string) (models.RemoteStats, error)
}

// TokenSource reads the stored credential. An empty token means not logged
// in, which is a normal state rather than an error.
type TokenSource interface {
	AuthToken(ctx context.Context) (string, error)
}

// Aggregator turns the remote session history into the dashboard view.
// The view is replaced wholesale on each successful refresh; a refresh
// that cannot fetch leaves the previous view in place.
type Aggregator struct {
	mu      sync.Mutex
	fetcher Fetcher
	tokens  TokenSource
	logger  *slog.Logger
	now     func() time.Time
	view    models.StatsView
}

// NewAggregator creates an aggregator with an empty initial view.
func NewAggregator(f Fetcher, t TokenSource, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher: f,
		tokens:  t,
		logger:  logger,
		now:     time.Now,
		view:    models.StatsView{WeeklyChart: EmptyWeeklyChart()},
	}
}

// Seed installs a previously cached view, so a refresh failure before the
// first successful fetch still has something to fall back to.
func (a *Aggregator) Seed(view models.StatsView) {
	if len(view.WeeklyChart) != 7 {
		view.WeeklyChart = EmptyWeeklyChart()
	}
	a.mu.Lock()
	a.view = view
	a.mu.Unlock()
}

// View returns the current dashboard view.
func (a *Aggregator) View() models.StatsView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// Refresh fetches the remote history and recomputes the view. Without a
// stored token the previous view is returned unchanged and no error is
// reported: not being logged in yet is a valid state. A failed fetch also
// leaves the previous view in place; the error is returned so the caller
// can mention the staleness, but nothing is torn down.
func (a *Aggregator) Refresh(ctx context.Context) (models.StatsView, error) {
	token, err := a.tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return a.View(), nil
	}

	remote, err := a.fetcher.FetchStats(ctx, token)
	if err != nil {
		a.logger.Warn("stats fetch failed, keeping previous view", "error", err)
		return a.View(), fmt.Errorf("fetch stats: %w", err)
	}

	view := BuildView(remote, a.now())
	a.mu.Lock()
	a.view = view
	a.mu.Unlock()
	return view, nil
}

// BuildView derives the dashboard model from a fetched payload. The
// history is sorted by date rather than trusting fetch order; the weekly
// chart buckets records from the trailing 7-day window (today plus the six
// days before it) by weekday-of-date, Sunday-indexed.
func BuildView(remote models.RemoteStats, now time.Time) models.StatsView {
	history := make([]models.SessionRecord, len(remote.History))
	copy(history, remote.History)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})

	view := models.StatsView{
		TotalMinutes:  remote.TotalMinutes,
		TotalSessions: remote.TotalSessions,
		CurrentStreak: remote.CurrentStreak,
		LongestStreak: remote.LongestStreak,
		WeeklyChart:   EmptyWeeklyChart(),
	}

	loc := now.Location()
	today := startOfDay(now, loc)
	for _, rec := range history {
		diff := daysBetween(startOfDay(rec.Date, loc), today)
		if diff < 0 || diff >= 7 {
			continue
		}
		weekday := int(rec.Date.In(loc).Weekday())
		view.WeeklyChart[weekday].Value += rec.Minutes
	}

	if n := len(history); n > 0 {
		last := history[n-1]
		view.LastSession = &last
	}
	return view
}

// EmptyWeeklyChart returns seven zero-value buckets labeled Sunday first.
func EmptyWeeklyChart() []models.DailyBucket {
	chart := make([]models.DailyBucket, 7)
	for i := range chart {
		chart[i] = models.DailyBucket{Day: weekdayLabels[i]}
	}
	return chart
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b. Rounding absorbs DST
// shifts, which make midnight-to-midnight spans 23 or 25 hours.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
