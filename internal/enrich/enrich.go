// Package enrich derives the temporal and age features from a flattened
// match record: weekday, hour-of-day bucket and, when a birth date is
// known, the player's age bracket at match time. It also splits a player's
// record set into age cohorts prior to aggregation.
//
// All calendar math happens in an explicitly injected time zone so results
// are reproducible across machines; "local time" is configuration, not
// ambient host state.
package enrich

import (
	"fmt"
	"time"

	"github.com/mlacroix/lolfeatures/internal/model"
)

// DaysPerYear is the year length used for age-at-match-time bucketing. The
// plain 365 (not 365.25) is kept for parity with the original study data.
const DaysPerYear = 365

// AdultAge is the boundary between the under_18 and over_18 cohorts.
const AdultAge = 18

// BirthDateLayout is the questionnaire birth date format.
const BirthDateLayout = "02/01/2006"

// Time-of-day buckets for the start hour.
const (
	Morning   = 0 // [6,12)
	Afternoon = 1 // [12,17)
	Evening   = 2 // [17,21)
	Night     = 3 // [21,6), wrapping across midnight
)

// HourBucket maps an hour of day (0-23) to its time bucket.
func HourBucket(hour int) int {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// ParseBirthDate parses a DD/MM/YYYY birth date in the given zone.
func ParseBirthDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(BirthDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse birth date %q: %w", s, err)
	}
	return t, nil
}

// Enricher derives weekday, start-hour bucket and age category on flattened
// records. Birth is nil when the player supplied no birth date, in which
// case records stay unlabeled and form a single cohort.
type Enricher struct {
	Loc   *time.Location
	Birth *time.Time
}

// Apply returns enriched copies of recs; the inputs are not mutated. After
// enrichment only the derived categorical fields matter downstream: the raw
// timestamp, the exact hour and the exact age do not flow into aggregation.
func (e Enricher) Apply(recs []model.FlatRecord) []model.FlatRecord {
	out := make([]model.FlatRecord, len(recs))
	for i, r := range recs {
		start := time.UnixMilli(r.GameStartTimestamp).In(e.Loc)

		// ISO weekday with Monday = 0.
		r.WeekDay = (int(start.Weekday()) + 6) % 7
		r.StartHourCat = HourBucket(start.Hour())

		if e.Birth != nil {
			age := calendarDays(*e.Birth, start) / DaysPerYear
			if age < AdultAge {
				r.AgeCategory = model.AgeUnder18
			} else {
				r.AgeCategory = model.AgeOver18
			}
		}
		out[i] = r
	}
	return out
}

// calendarDays counts whole days between the two instants' calendar dates.
// Diffing the dates at UTC midnight keeps the count exact across DST
// transitions inside the interval.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Cohort is a non-empty run of a player's records sharing one age category
// label. Label is empty when no birth date was supplied.
type Cohort struct {
	Label   string
	Records []model.FlatRecord
}

// Split partitions enriched records by age category, preserving the
// original match order within each cohort. At most two cohorts come back
// (under_18 first), and empty cohorts are omitted entirely.
func Split(recs []model.FlatRecord) []Cohort {
	byLabel := make(map[string][]model.FlatRecord)
	for _, r := range recs {
		byLabel[r.AgeCategory] = append(byLabel[r.AgeCategory], r)
	}

	var cohorts []Cohort
	for _, label := range []string{model.AgeUnder18, model.AgeOver18, ""} {
		if group := byLabel[label]; len(group) > 0 {
			cohorts = append(cohorts, Cohort{Label: label, Records: group})
		}
	}
	return cohorts
}
