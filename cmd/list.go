package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlacroix/lolfeatures/internal/report"
	"github.com/mlacroix/lolfeatures/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored players and their cache state",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	players, err := db.ListProfiles()
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintln(os.Stdout, "No players stored yet. Run 'lolfeatures targets <survey.csv>' to import some.")
		return nil
	}

	entries := make([]report.PlayerListEntry, 0, len(players))
	for _, p := range players {
		matches := 0
		if p.PUUID != "" {
			matches, err = db.CountFlatRecords(p.PUUID)
			if err != nil {
				return err
			}
		}
		entries = append(entries, report.PlayerListEntry{Profile: p, Matches: matches})
	}

	report.PrintPlayerList(os.Stdout, entries)
	return nil
}
