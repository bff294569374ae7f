package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stillmind-app/stillmind/internal/output"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent sessions from the local journal",
	RunE:  sessionsRun,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func sessionsRun(cmd *cobra.Command, args []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	sessions, err := s.ListSessions(cmd.Context(), sessionsLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.Info("No sessions recorded yet. Run 'stillmind meditate' to start.")
		return nil
	}

	table := ui.Table([]string{"DATE", "MEDITATION", "MINUTES"})
	for _, rec := range sessions {
		table.Append([]string{
			rec.Date.Local().Format("2006-01-02 15:04"),
			output.Cyan(rec.Title),
			strconv.Itoa(rec.Minutes),
		})
	}
	table.Render()
	return nil
}
