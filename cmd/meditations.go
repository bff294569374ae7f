package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stillmind-app/stillmind/internal/output"
)

var meditationsCmd = &cobra.Command{
	Use:   "meditations",
	Short: "List the guided meditation catalog",
	RunE:  meditationsRun,
}

func init() {
	rootCmd.AddCommand(meditationsCmd)
}

func meditationsRun(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	table := ui.Table([]string{"ID", "TITLE", "DESCRIPTION"})
	for _, e := range cat.List() {
		table.Append([]string{e.ID, output.Cyan(e.Title), e.Description})
	}
	table.Render()
	return nil
}
