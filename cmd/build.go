package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mlacroix/lolfeatures/internal/compose"
	"github.com/mlacroix/lolfeatures/internal/config"
	"github.com/mlacroix/lolfeatures/internal/flatten"
	"github.com/mlacroix/lolfeatures/internal/model"
	"github.com/mlacroix/lolfeatures/internal/storage"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the feature dataset",
	Long: `Aggregates every cached player's flattened records into per-cohort
feature rows, joins them with the survey profiles and writes the final
dataset as CSV.

Players whose cache was flattened under an older schema are re-flattened
from the archived raw payloads first.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "dataset.csv", "output CSV path")
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	players, err := db.ListProfiles()
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return fmt.Errorf("no players stored; run 'lolfeatures targets' and 'lolfeatures fetch' first")
	}

	for _, p := range players {
		if p.PUUID == "" {
			continue
		}
		if err := reflattenIfStale(db, p.PUUID); err != nil {
			return fmt.Errorf("refresh cache for %s: %w", p.Pseudo, err)
		}
	}

	ds, err := compose.Build(players, db, loc)
	if err != nil {
		return err
	}

	f, err := os.Create(buildOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", buildOut, err)
	}
	defer f.Close()
	if err := ds.WriteCSV(f); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	rows := 0
	for _, r := range ds.Rows {
		rows += len(r)
	}
	fmt.Printf("Wrote %s: %d players, %d feature rows, %d columns\n",
		buildOut, len(players), rows, len(ds.Columns()))
	return nil
}

// reflattenIfStale rebuilds a player's flattened cache from the archived
// raw payloads when any cached record predates the current schema version.
func reflattenIfStale(db *storage.DB, puuid string) error {
	versions, err := db.FlatSchemaVersions(puuid)
	if err != nil {
		return err
	}
	stale := false
	for _, v := range versions {
		if v != model.FlatSchemaVersion {
			stale = true
			break
		}
	}
	if !stale {
		return nil
	}

	ids, err := db.RawMatchIDs(puuid)
	if err != nil {
		return err
	}
	var (
		keptIDs []string
		records []model.FlatRecord
	)
	for _, matchID := range ids {
		payload, err := db.RawMatch(puuid, matchID)
		if err != nil {
			return err
		}
		rec, err := flatten.Flatten(payload, puuid)
		if errors.Is(err, flatten.ErrPlayerNotFound) {
			// Archived before the participant check ran; skip it here the
			// same way the fetch loop does.
			log.Warn().Str("puuid", puuid).Str("match", matchID).Msg("player absent from participants, match skipped")
			continue
		}
		if err != nil {
			return fmt.Errorf("re-flatten %s: %w", matchID, err)
		}
		keptIDs = append(keptIDs, matchID)
		records = append(records, *rec)
	}
	if err := db.ReplaceFlatRecords(puuid, keptIDs, records); err != nil {
		return err
	}
	log.Info().Str("puuid", puuid).Int("matches", len(records)).Msg("cache re-flattened for new schema")
	return nil
}
