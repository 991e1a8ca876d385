package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlacroix/lolfeatures/internal/config"
	"github.com/mlacroix/lolfeatures/internal/storage"
	"github.com/mlacroix/lolfeatures/internal/survey"
)

var targetsCmd = &cobra.Command{
	Use:   "targets <survey.csv>",
	Short: "Import survey answers as player profiles",
	Long: `Cleans a questionnaire CSV export and stores one profile per
respondent. Profiles already resolved against the Riot API keep their
puuid across re-imports.`,
	Args: cobra.ExactArgs(1),
	RunE: runTargets,
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()

	profiles, err := survey.Clean(f, time.Now().In(loc), loc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	for _, p := range profiles {
		if err := db.UpsertProfile(p); err != nil {
			return err
		}
	}

	fmt.Printf("Imported %d player profiles\n", len(profiles))
	return nil
}
