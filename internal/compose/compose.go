// Package compose runs the per-player feature pipeline (enrich, cohort
// split, aggregate) and assembles the final dataset: per-cohort feature
// rows outer-joined with the players' profile attributes.
package compose

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mlacroix/lolfeatures/internal/aggregate"
	"github.com/mlacroix/lolfeatures/internal/enrich"
	"github.com/mlacroix/lolfeatures/internal/model"
)

// RecordSource supplies a player's cached flattened match records in
// original match order.
type RecordSource interface {
	FlatRecords(puuid string) ([]model.FlatRecord, error)
}

// PlayerRows runs enrichment, cohort splitting and aggregation over one
// player's record set. It yields 0-2 rows: one per non-empty age cohort, or
// a single unlabeled row when no birth date is known. An empty record set
// yields no rows.
func PlayerRows(recs []model.FlatRecord, birthDate string, loc *time.Location) ([]model.AggregateRow, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	e := enrich.Enricher{Loc: loc}
	if birthDate != "" {
		birth, err := enrich.ParseBirthDate(birthDate, loc)
		if err != nil {
			return nil, err
		}
		e.Birth = &birth
	}

	var rows []model.AggregateRow
	for _, cohort := range enrich.Split(e.Apply(recs)) {
		row, err := aggregate.Aggregate(cohort)
		if err != nil {
			return nil, fmt.Errorf("cohort %q: %w", cohort.Label, err)
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

// Dataset is the final feature table: one row per player x cohort, profile
// attributes joined on puuid. Players whose pipeline produced no rows still
// contribute one profile-only row (outer join).
type Dataset struct {
	Players  []model.PlayerProfile
	Rows     map[string][]model.AggregateRow // keyed by puuid
	MeanCols []string
}

// Build runs the pipeline for every resolved player. Per-player failures
// are logged and the player contributes a profile-only row; they do not
// abort the remaining players.
func Build(players []model.PlayerProfile, source RecordSource, loc *time.Location) (*Dataset, error) {
	ds := &Dataset{
		Players: players,
		Rows:    make(map[string][]model.AggregateRow, len(players)),
	}

	var all []model.AggregateRow
	for _, p := range players {
		if p.PUUID == "" {
			log.Warn().Str("pseudo", p.Pseudo).Msg("player account not resolved yet, profile-only row")
			continue
		}
		recs, err := source.FlatRecords(p.PUUID)
		if err != nil {
			return nil, fmt.Errorf("load records for %s: %w", p.PUUID, err)
		}
		rows, err := PlayerRows(recs, p.BirthDate, loc)
		if err != nil {
			log.Error().Err(err).Str("puuid", p.PUUID).Msg("feature pipeline failed, profile-only row")
			continue
		}
		ds.Rows[p.PUUID] = rows
		all = append(all, rows...)
		log.Info().Str("pseudo", p.Pseudo).Int("matches", len(recs)).Int("rows", len(rows)).Msg("player aggregated")
	}
	ds.MeanCols = aggregate.MeanColumns(all)
	return ds, nil
}

var profileColumns = []string{
	"puuid", "pseudo", "tagline", "region", "birthDate",
	"age", "sex", "department", "job", "relationship", "live_with_others",
	"buy_content", "economic", "love_team_work", "play_instrument", "sport",
}

// Columns returns the full dataset header in its fixed order: profile
// attributes, identity and temporal features, mode/max reductions, the
// sorted mean columns, then the one-hot indicator blocks.
func (ds *Dataset) Columns() []string {
	cols := append([]string{}, profileColumns...)
	cols = append(cols,
		"ageCategory", "championPref", "championCount", "hourMostFreq", "dayMostFreq")
	for _, d := range aggregate.DayNames {
		cols = append(cols, d)
	}
	for _, t := range aggregate.TimeNames {
		cols = append(cols, t)
	}
	for d := range aggregate.DayNames {
		for t := range aggregate.TimeNames {
			cols = append(cols, aggregate.DayTimeName(d, t))
		}
	}
	cols = append(cols, "badLane", "nbPos",
		"offense", "defense", "flex", "primaryStyle", "secondaryStyle",
		"primaryPerk0", "primaryPerk1", "primaryPerk2", "primaryPerk3",
		"secondaryPerk0", "secondaryPerk1",
		"item0", "item1", "item2", "item3", "item4", "item5", "item6",
		"summoner1Id", "summoner2Id", "summonerLevel")
	cols = append(cols, ds.MeanCols...)
	for _, c := range model.FavPosCategories {
		cols = append(cols, aggregate.OneHotColumnName("favPos", c))
	}
	for _, c := range model.RoleCategories {
		cols = append(cols, aggregate.OneHotColumnName("role", c))
	}
	for _, c := range model.GameModeCategories {
		cols = append(cols, aggregate.OneHotColumnName("gameMode", c))
	}
	return cols
}

// WriteCSV writes the dataset as a comma-delimited table, header first.
// NaN and absent cells render empty.
func (ds *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range ds.Records() {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Records renders every dataset row as formatted cells in column order.
func (ds *Dataset) Records() [][]string {
	var out [][]string
	for _, p := range ds.Players {
		rows := ds.Rows[p.PUUID]
		if len(rows) == 0 {
			out = append(out, ds.record(p, nil))
			continue
		}
		for i := range rows {
			out = append(out, ds.record(p, &rows[i]))
		}
	}
	return out
}

func (ds *Dataset) record(p model.PlayerProfile, row *model.AggregateRow) []string {
	cells := []string{
		p.PUUID, p.Pseudo, p.Tagline, p.Region, p.BirthDate,
		itoa(p.Age), itoa(p.Sex), p.Department, itoa(p.Job), itoa(p.Relationship),
		itoa(p.LiveWithOthers), itoa(p.BuyContent), itoa(p.Economic),
		itoa(p.LoveTeamWork), itoa(p.PlayInstrument), itoa(p.Sport),
	}
	featureCells := 5 + 7 + 4 + 28 + 2 + 21 + len(ds.MeanCols) +
		len(model.FavPosCategories) + len(model.RoleCategories) + len(model.GameModeCategories)
	if row == nil {
		// Outer-join row for a player with no aggregated cohorts.
		for i := 0; i < featureCells; i++ {
			cells = append(cells, "")
		}
		return cells
	}

	cells = append(cells, row.AgeCategory,
		i64(row.ChampionPref), itoa(row.ChampionCount),
		itoa(row.HourMostFreq), itoa(row.DayMostFreq))
	for _, v := range row.DayFreq {
		cells = append(cells, ftoa(v))
	}
	for _, v := range row.TimeFreq {
		cells = append(cells, ftoa(v))
	}
	for d := range row.DayTimeFreq {
		for t := range row.DayTimeFreq[d] {
			cells = append(cells, ftoa(row.DayTimeFreq[d][t]))
		}
	}
	cells = append(cells, ftoa(row.BadLane), itoa(row.NbPos),
		i64(row.Offense), i64(row.Defense), i64(row.Flex),
		i64(row.PrimaryStyle), i64(row.SecondaryStyle))
	for _, v := range row.PrimaryPerks {
		cells = append(cells, i64(v))
	}
	for _, v := range row.SecondaryPerks {
		cells = append(cells, i64(v))
	}
	for _, v := range row.Items {
		cells = append(cells, i64(v))
	}
	cells = append(cells, i64(row.Summoner1ID), i64(row.Summoner2ID), i64(row.SummonerLevel))
	for _, col := range ds.MeanCols {
		v, ok := row.Means[col]
		if !ok || math.IsNaN(v) {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, ftoa(v))
	}
	for _, v := range aggregate.OneHot(row.FavPos, model.FavPosCategories) {
		cells = append(cells, ftoa(v))
	}
	for _, v := range aggregate.OneHot(row.Role, model.RoleCategories) {
		cells = append(cells, ftoa(v))
	}
	for _, v := range aggregate.OneHot(row.GameMode, model.GameModeCategories) {
		cells = append(cells, ftoa(v))
	}
	return cells
}

func itoa(v int) string { return strconv.Itoa(v) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
