package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlacroix/lolfeatures/internal/compose"
	"github.com/mlacroix/lolfeatures/internal/config"
	"github.com/mlacroix/lolfeatures/internal/report"
	"github.com/mlacroix/lolfeatures/internal/storage"
)

var showTagline string

var showCmd = &cobra.Command{
	Use:   "show <pseudo>",
	Short: "Show a player's aggregated features",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showTagline, "tagline", "", "player tag line")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	p, err := db.Profile(args[0], showTagline)
	if err != nil {
		return err
	}
	if p == nil {
		fmt.Fprintf(os.Stderr, "No player %q stored\n", args[0])
		return nil
	}
	if p.PUUID == "" {
		fmt.Fprintf(os.Stderr, "Player %q not fetched yet; run 'lolfeatures fetch --pseudo %s'\n", p.Pseudo, p.Pseudo)
		return nil
	}

	recs, err := db.FlatRecords(p.PUUID)
	if err != nil {
		return err
	}
	rows, err := compose.PlayerRows(recs, p.BirthDate, loc)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No eligible matches cached for %q\n", p.Pseudo)
		return nil
	}

	report.PrintFeatureRows(os.Stdout, *p, rows)
	for _, row := range rows {
		cohort := row.AgeCategory
		if cohort == "" {
			cohort = "all matches"
		}
		fmt.Fprintf(os.Stdout, "\nPlay-time distribution (%s):\n\n", cohort)
		report.PrintDayTimeGrid(os.Stdout, row)
	}
	return nil
}
