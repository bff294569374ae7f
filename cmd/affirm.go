package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stillmind-app/stillmind/internal/affirm"
	"github.com/stillmind-app/stillmind/internal/stats"
)

var affirmCmd = &cobra.Command{
	Use:   "affirm [theme]",
	Short: "Generate a meditation affirmation",
	Long: `Generate a short affirmation grounded in your practice so far,
optionally steered by a theme, e.g. 'stillmind affirm patience'.

Uses the Anthropic API; set anthropic.api_key in the config or the
ANTHROPIC_API_KEY environment variable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: affirmRun,
}

func init() {
	rootCmd.AddCommand(affirmCmd)
}

func affirmRun(cmd *cobra.Command, args []string) error {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	theme := ""
	if len(args) > 0 {
		theme = args[0]
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// The affirmation reads the practice stats for context; a stale or
	// empty view is fine.
	agg := stats.NewAggregator(backendClient(), s, slog.Default())
	if cached, err := s.LastStatsView(ctx); err == nil && cached != nil {
		agg.Seed(*cached)
	}
	view, _ := agg.Refresh(ctx)

	client := affirm.NewClient(apiKey, viper.GetString("anthropic.model"))
	text, err := client.Generate(ctx, theme, view)
	if err != nil {
		return err
	}

	fmt.Println(text)
	return nil
}
