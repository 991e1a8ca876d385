package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mlacroix/lolfeatures/internal/config"
	"github.com/mlacroix/lolfeatures/internal/flatten"
	"github.com/mlacroix/lolfeatures/internal/model"
	"github.com/mlacroix/lolfeatures/internal/riot"
	"github.com/mlacroix/lolfeatures/internal/storage"
)

// fetch command flags.
var (
	// fetchPseudo / fetchTagline select a single player; empty means every
	// imported profile.
	fetchPseudo  string
	fetchTagline string
	// fetchRefresh re-fetches the match list and re-flattens even when a
	// player's records are already cached.
	fetchRefresh bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and flatten match histories",
	Long: `Resolves each player's account, pages through their full match-id
history, downloads every eligible match and caches the flattened records.

Individual match failures are logged and skipped; they do not abort the
player's run.

Examples:
  # Everyone imported via 'targets'
  lolfeatures fetch

  # One player
  lolfeatures fetch --pseudo Faker --tagline KR1`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchPseudo, "pseudo", "", "player game name (default: all imported players)")
	fetchCmd.Flags().StringVar(&fetchTagline, "tagline", "", "player tag line")
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "re-fetch match lists and re-flatten cached players")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	apiKey, err := loadRiotAPIKey()
	if err != nil {
		return err
	}
	client, err := riot.NewClient(apiKey, cfg.Riot.Routing, cfg.Riot.RPS, cfg.Riot.Burst)
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

	players, err := selectPlayers(db)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for _, p := range players {
		if err := fetchPlayer(ctx, db, client, p); err != nil {
			return fmt.Errorf("fetch %s#%s: %w", p.Pseudo, p.Tagline, err)
		}
	}
	return nil
}

// selectPlayers resolves the --pseudo/--tagline flags against the stored
// profiles, creating a bare profile for a player fetched ahead of the
// survey import.
func selectPlayers(db *storage.DB) ([]model.PlayerProfile, error) {
	if fetchPseudo == "" {
		players, err := db.ListProfiles()
		if err != nil {
			return nil, err
		}
		if len(players) == 0 {
			return nil, fmt.Errorf("no players stored; run 'lolfeatures targets <survey.csv>' first")
		}
		return players, nil
	}

	p, err := db.Profile(fetchPseudo, fetchTagline)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &model.PlayerProfile{Pseudo: fetchPseudo, Tagline: fetchTagline}
		if err := db.UpsertProfile(*p); err != nil {
			return nil, err
		}
	}
	return []model.PlayerProfile{*p}, nil
}

// fetchPlayer runs the fetch-and-flatten loop for one player: account
// resolution, match-id pagination, per-match download, eligibility filter,
// flattening, cache write.
func fetchPlayer(ctx context.Context, db *storage.DB, client *riot.Client, p model.PlayerProfile) error {
	logger := log.With().Str("pseudo", p.Pseudo).Str("tagline", p.Tagline).Logger()

	if p.PUUID == "" {
		account, err := client.AccountByRiotID(ctx, p.Pseudo, p.Tagline)
		if err != nil {
			return fmt.Errorf("resolve account: %w", err)
		}
		p.PUUID = account.PUUID
		if err := db.SetPUUID(p.Pseudo, p.Tagline, p.PUUID); err != nil {
			return err
		}
		logger.Info().Str("puuid", p.PUUID).Msg("account resolved")
	}

	if !fetchRefresh {
		cached, err := db.CountFlatRecords(p.PUUID)
		if err != nil {
			return err
		}
		if cached > 0 {
			logger.Info().Int("matches", cached).Msg("already cached, skipping (use --refresh)")
			return nil
		}
	}

	ids, err := db.MatchIDs(p.PUUID)
	if err != nil {
		return err
	}
	if len(ids) == 0 || fetchRefresh {
		ids, err = client.AllMatchIDs(ctx, p.PUUID)
		if err != nil {
			return fmt.Errorf("match history: %w", err)
		}
		if err := db.SaveMatchIDs(p.PUUID, ids); err != nil {
			return err
		}
		logger.Info().Int("matches", len(ids)).Msg("match list saved")
	} else {
		logger.Info().Int("matches", len(ids)).Msg("match list from cache")
	}

	var (
		keptIDs []string
		records []model.FlatRecord
		skipped int
		failed  int
	)
	for _, matchID := range ids {
		payload, err := db.RawMatch(p.PUUID, matchID)
		if err != nil {
			return err
		}
		if payload == nil {
			payload, err = client.Match(ctx, matchID)
			if err != nil {
				logger.Warn().Err(err).Str("match", matchID).Msg("fetch failed, match skipped")
				failed++
				continue
			}
		}

		gameMode, startedAt, err := flatten.MatchInfo(payload)
		if err != nil {
			logger.Warn().Err(err).Str("match", matchID).Msg("unreadable payload, match skipped")
			failed++
			continue
		}
		if !flatten.Eligible(gameMode, startedAt) {
			skipped++
			continue
		}

		// Archived before flattening so a schema bump can rebuild the
		// cache without re-fetching; the rebuild skips payloads the
		// player turns out to be absent from.
		if err := db.SaveRawMatch(p.PUUID, matchID, payload); err != nil {
			return err
		}

		rec, err := flatten.Flatten(payload, p.PUUID)
		if errors.Is(err, flatten.ErrPlayerNotFound) {
			logger.Warn().Str("match", matchID).Msg("player absent from participants, match skipped")
			failed++
			continue
		}
		if err != nil {
			// Shape violations indicate an upstream schema change and are
			// surfaced rather than silently defaulted.
			return fmt.Errorf("flatten %s: %w", matchID, err)
		}

		keptIDs = append(keptIDs, matchID)
		records = append(records, *rec)
	}

	if err := db.ReplaceFlatRecords(p.PUUID, keptIDs, records); err != nil {
		return err
	}
	logger.Info().
		Int("kept", len(records)).
		Int("filtered", skipped).
		Int("failed", failed).
		Msg("player cached")
	return nil
}
