package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stillmind-app/stillmind/internal/models"
	"github.com/stillmind-app/stillmind/internal/output"
	"github.com/stillmind-app/stillmind/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the practice dashboard",
	Long: `Show meditation statistics: totals, streaks, and the trailing
seven-day chart. The last fetched view is cached locally, so the dashboard
still renders (marked stale) when the backend is unreachable.`,
	RunE: statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func statsRun(cmd *cobra.Command, args []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	agg := stats.NewAggregator(backendClient(), s, slog.Default())
	if cached, err := s.LastStatsView(ctx); err != nil {
		slog.Warn("read stats cache", "error", err)
	} else if cached != nil {
		agg.Seed(*cached)
	}

	view, refreshErr := agg.Refresh(ctx)
	if refreshErr != nil {
		ui.Warning("Could not reach the backend; showing the last known stats")
	} else {
		if err := s.SaveStatsView(ctx, view); err != nil {
			slog.Warn("save stats cache", "error", err)
		}
	}

	token, _ := s.AuthToken(ctx)
	if token == "" && view.TotalSessions == 0 {
		ui.Info("Not logged in. Run 'stillmind login', then 'stillmind meditate' to start your practice.")
		return nil
	}

	if view.TotalSessions == 0 {
		ui.Info("No sessions yet. Start your first with 'stillmind meditate'.")
		return nil
	}

	best := stats.BestDay(view.WeeklyChart)
	table := ui.Table([]string{"", ""})
	table.Append([]string{"Total time", output.Cyan(stats.FormatMinutes(view.TotalMinutes))})
	table.Append([]string{"Sessions", strconv.Itoa(view.TotalSessions)})
	table.Append([]string{"Current streak", fmt.Sprintf("%d days", view.CurrentStreak)})
	table.Append([]string{"Longest streak", fmt.Sprintf("%d days", view.LongestStreak)})
	table.Append([]string{"Best day this week", fmt.Sprintf("%s (%d min)", best.Day, best.Value)})
	table.Append([]string{"Weekly streak", fmt.Sprintf("%d days", stats.WeeklyStreak(view.WeeklyChart))})
	table.Render()

	fmt.Println()
	renderWeeklyChart(view)

	if view.LastSession != nil {
		last := view.LastSession
		fmt.Println()
		ui.Info("Last session: %s, %d min on %s",
			last.Title, last.Minutes, last.Date.Local().Format("Mon Jan 2 15:04"))
	}
	return nil
}

// renderWeeklyChart prints the trailing-week bars, one weekday per line.
func renderWeeklyChart(view models.StatsView) {
	max := 0
	for _, b := range view.WeeklyChart {
		if b.Value > max {
			max = b.Value
		}
	}
	for _, b := range view.WeeklyChart {
		line := fmt.Sprintf("  %s  %s", b.Day, output.Bar(b.Value, max, 20))
		if b.Value > 0 {
			line += fmt.Sprintf("  %d min", b.Value)
		}
		fmt.Println(line)
	}
}
