// Package aggregate reduces one cohort of flattened match records into a
// single fixed-width feature row: temporal frequency tables, mode/max/mean
// reductions and one-hot expansion of the nominal fields.
package aggregate

import (
	"cmp"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mlacroix/lolfeatures/internal/enrich"
	"github.com/mlacroix/lolfeatures/internal/model"
)

// DayNames index the weekday frequency features, Monday first.
var DayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// TimeNames index the time-bucket frequency features, in bucket order.
var TimeNames = [4]string{"morning", "afternoon", "evening", "night"}

// DayTimeName is the column name for one weekday x time-bucket cell,
// e.g. "mondayMorning".
func DayTimeName(day, bucket int) string {
	t := TimeNames[bucket]
	return DayNames[day] + strings.ToUpper(t[:1]) + t[1:]
}

// Mode returns the most frequent value. Ties on frequency break to the
// smallest value (numeric order for ids, lexicographic for strings) so the
// reduction is deterministic regardless of input order.
func Mode[T cmp.Ordered](values []T) T {
	counts := make(map[T]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	var best T
	bestCount := 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

func distinct[T comparable](values []T) int {
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func pick[T any](recs []model.FlatRecord, f func(model.FlatRecord) T) []T {
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = f(r)
	}
	return out
}

// Aggregate reduces a non-empty cohort into one AggregateRow. All records
// must already be enriched and share one schema version. Invoking it on an
// empty cohort is a caller bug and fails fast.
func Aggregate(cohort enrich.Cohort) (*model.AggregateRow, error) {
	recs := cohort.Records
	if len(recs) == 0 {
		return nil, fmt.Errorf("aggregate: empty cohort")
	}
	n := float64(len(recs))

	row := &model.AggregateRow{
		PUUID:       recs[0].PUUID,
		AgeCategory: cohort.Label,
	}

	// Champion stats.
	champions := pick(recs, func(r model.FlatRecord) int64 { return r.ChampionID })
	row.ChampionPref = Mode(champions)
	row.ChampionCount = distinct(champions)

	// Temporal frequency features; zero cells stay explicit zeros.
	for _, r := range recs {
		row.DayFreq[r.WeekDay]++
		row.TimeFreq[r.StartHourCat]++
		row.DayTimeFreq[r.WeekDay][r.StartHourCat]++
	}
	for d := range row.DayFreq {
		row.DayFreq[d] /= n
		for t := range row.DayTimeFreq[d] {
			row.DayTimeFreq[d][t] /= n
		}
	}
	for t := range row.TimeFreq {
		row.TimeFreq[t] /= n
	}

	row.DayMostFreq = Mode(pick(recs, func(r model.FlatRecord) int { return r.WeekDay }))
	row.HourMostFreq = Mode(pick(recs, func(r model.FlatRecord) int { return r.StartHourCat }))

	// Positional consistency.
	badLane := 0
	for _, r := range recs {
		if assigned(r.Lane) && assigned(r.TeamPosition) && r.Lane != r.TeamPosition {
			badLane++
		}
	}
	row.BadLane = float64(badLane) / n

	positions := pick(recs, func(r model.FlatRecord) string { return r.TeamPosition })
	row.FavPos = Mode(positions)
	row.NbPos = distinct(positions)

	// Categorical mode fields; on ties only the smallest value is kept.
	row.GameMode = Mode(pick(recs, func(r model.FlatRecord) string { return r.GameMode }))
	row.Role = Mode(pick(recs, func(r model.FlatRecord) string { return r.Role }))
	row.Offense = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Offense }))
	row.Defense = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Defense }))
	row.Flex = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Flex }))
	row.PrimaryStyle = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.PrimaryStyle }))
	row.SecondaryStyle = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.SecondaryStyle }))
	for i := range row.PrimaryPerks {
		row.PrimaryPerks[i] = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.PrimaryPerks[i] }))
	}
	for i := range row.SecondaryPerks {
		row.SecondaryPerks[i] = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.SecondaryPerks[i] }))
	}
	for i := range row.Items {
		row.Items[i] = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Items[i] }))
	}
	row.Summoner1ID = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Summoner1ID }))
	row.Summoner2ID = Mode(pick(recs, func(r model.FlatRecord) int64 { return r.Summoner2ID }))

	// Summoner level is monotonically non-decreasing, so max = latest known.
	for _, r := range recs {
		if r.SummonerLevel > row.SummonerLevel {
			row.SummonerLevel = r.SummonerLevel
		}
	}

	row.Means = meanMetrics(recs)
	return row, nil
}

// meanMetrics averages every numeric metric column over the cohort. A
// column absent on any record yields NaN rather than a silently imputed
// value, so ragged upstream payloads stay visible downstream.
func meanMetrics(recs []model.FlatRecord) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range recs {
		for key, v := range r.Metrics {
			sums[key] += v
			counts[key]++
		}
	}
	means := make(map[string]float64, len(sums))
	for key, sum := range sums {
		if counts[key] < len(recs) {
			means[key] = math.NaN()
			continue
		}
		means[key] = sum / float64(len(recs))
	}
	return means
}

// MeanColumns returns the sorted union of metric column names across rows.
// It fixes the column order of the ragged mean section of the dataset.
func MeanColumns(rows []model.AggregateRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row.Means {
			seen[key] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for key := range seen {
		cols = append(cols, key)
	}
	sort.Strings(cols)
	return cols
}

// OneHot expands value over a closed category list into indicator values.
// A value outside the list contributes 0 to every indicator.
func OneHot(value string, categories []string) []float64 {
	out := make([]float64, len(categories))
	for i, c := range categories {
		if value == c {
			out[i] = 1
			break
		}
	}
	return out
}

// OneHotColumnName names one indicator column, e.g. "favPos_UTILITY". The
// empty category renders as "None".
func OneHotColumnName(field, category string) string {
	if category == "" {
		category = "None"
	}
	return field + "_" + category
}

// assigned reports whether a lane/position value carries information.
func assigned(v string) bool {
	return v != "" && v != "NONE"
}
