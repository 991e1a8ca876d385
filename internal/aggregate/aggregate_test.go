package aggregate

import (
	"math"
	"reflect"
	"testing"

	"github.com/mlacroix/lolfeatures/internal/enrich"
	"github.com/mlacroix/lolfeatures/internal/model"
)

const floatTol = 1e-9

// makeRecord builds an enriched record with sane defaults for the fields a
// test doesn't care about.
func makeRecord(weekDay, hourCat int) model.FlatRecord {
	return model.FlatRecord{
		Schema:       model.FlatSchemaVersion,
		PUUID:        "puuid-1",
		GameMode:     "CLASSIC",
		ChampionID:   103,
		Lane:         "MIDDLE",
		TeamPosition: "MIDDLE",
		Role:         "SOLO",
		WeekDay:      weekDay,
		StartHourCat: hourCat,
		Metrics:      map[string]float64{"kills": 4, "deaths": 2},
	}
}

func cohortOf(recs ...model.FlatRecord) enrich.Cohort {
	return enrich.Cohort{Records: recs}
}

func TestAggregateEmptyCohortFails(t *testing.T) {
	if _, err := Aggregate(enrich.Cohort{}); err == nil {
		t.Fatal("expected error for empty cohort")
	}
}

func TestModeTieBreaksToSmallest(t *testing.T) {
	if got := Mode([]int64{7, 3, 7, 3}); got != 3 {
		t.Errorf("Mode int tie: got %d, want 3", got)
	}
	if got := Mode([]string{"TOP", "JUNGLE", "TOP", "JUNGLE"}); got != "JUNGLE" {
		t.Errorf("Mode string tie: got %q, want JUNGLE", got)
	}
	if got := Mode([]int64{5, 5, 9}); got != 5 {
		t.Errorf("Mode majority: got %d, want 5", got)
	}
}

func TestProportionsSumToOne(t *testing.T) {
	recs := []model.FlatRecord{
		makeRecord(0, 0), makeRecord(0, 1), makeRecord(1, 0),
		makeRecord(4, 3), makeRecord(6, 2), makeRecord(6, 2),
	}
	row, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	var daySum, timeSum, cellSum float64
	for _, v := range row.DayFreq {
		daySum += v
	}
	for _, v := range row.TimeFreq {
		timeSum += v
	}
	for d := range row.DayTimeFreq {
		for tc := range row.DayTimeFreq[d] {
			cellSum += row.DayTimeFreq[d][tc]
		}
	}
	if math.Abs(daySum-1) > floatTol {
		t.Errorf("weekday proportions sum to %v, want 1", daySum)
	}
	if math.Abs(timeSum-1) > floatTol {
		t.Errorf("time proportions sum to %v, want 1", timeSum)
	}
	if math.Abs(cellSum-1) > floatTol {
		t.Errorf("day x time proportions sum to %v, want 1", cellSum)
	}

	// Marginal consistency: each weekday's cells sum to its proportion.
	for d := range row.DayFreq {
		var marginal float64
		for tc := range row.DayTimeFreq[d] {
			marginal += row.DayTimeFreq[d][tc]
		}
		if math.Abs(marginal-row.DayFreq[d]) > floatTol {
			t.Errorf("day %d: marginal %v != proportion %v", d, marginal, row.DayFreq[d])
		}
	}
}

func TestThreeMatchScenario(t *testing.T) {
	// Monday-morning, Monday-afternoon, Tuesday-morning; same champion,
	// lane always matches assigned position.
	recs := []model.FlatRecord{
		makeRecord(0, 0), makeRecord(0, 1), makeRecord(1, 0),
	}
	row, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	third := 1.0 / 3.0
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"monday", row.DayFreq[0], 2 * third},
		{"tuesday", row.DayFreq[1], third},
		{"morning", row.TimeFreq[0], 2 * third},
		{"afternoon", row.TimeFreq[1], third},
		{"mondayMorning", row.DayTimeFreq[0][0], third},
		{"mondayAfternoon", row.DayTimeFreq[0][1], third},
		{"tuesdayMorning", row.DayTimeFreq[1][0], third},
		{"badLane", row.BadLane, 0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > floatTol {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// Every other day/time cell stays an explicit zero.
	for d := range row.DayTimeFreq {
		for tc := range row.DayTimeFreq[d] {
			if (d == 0 && tc <= 1) || (d == 1 && tc == 0) {
				continue
			}
			if row.DayTimeFreq[d][tc] != 0 {
				t.Errorf("cell %s = %v, want 0", DayTimeName(d, tc), row.DayTimeFreq[d][tc])
			}
		}
	}

	if row.ChampionCount != 1 {
		t.Errorf("championCount = %d, want 1", row.ChampionCount)
	}
	if row.ChampionPref != 103 {
		t.Errorf("championPref = %d, want 103", row.ChampionPref)
	}
	if row.DayMostFreq != 0 || row.HourMostFreq != 0 {
		t.Errorf("most frequent day/time = %d/%d, want 0/0", row.DayMostFreq, row.HourMostFreq)
	}
}

func TestBadLane(t *testing.T) {
	mismatch := makeRecord(0, 0)
	mismatch.Lane = "BOTTOM"
	mismatch.TeamPosition = "JUNGLE"
	noLane := makeRecord(0, 0)
	noLane.Lane = "NONE"
	noLane.TeamPosition = "JUNGLE"
	empty := makeRecord(0, 0)
	empty.Lane = ""
	empty.TeamPosition = "TOP"

	row, err := Aggregate(cohortOf(makeRecord(0, 0), mismatch, noLane, empty))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if math.Abs(row.BadLane-0.25) > floatTol {
		t.Errorf("badLane = %v, want 0.25", row.BadLane)
	}
	if row.NbPos != 3 {
		t.Errorf("nbPos = %d, want 3", row.NbPos)
	}
}

func TestDistinctCountsBounded(t *testing.T) {
	recs := []model.FlatRecord{makeRecord(0, 0), makeRecord(1, 1), makeRecord(2, 2)}
	recs[1].ChampionID = 64
	recs[1].TeamPosition = "JUNGLE"

	row, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if row.ChampionCount < 1 || row.ChampionCount > len(recs) {
		t.Errorf("championCount = %d out of [1,%d]", row.ChampionCount, len(recs))
	}
	if row.NbPos < 1 || row.NbPos > len(recs) {
		t.Errorf("nbPos = %d out of [1,%d]", row.NbPos, len(recs))
	}
}

func TestSummonerLevelMax(t *testing.T) {
	recs := []model.FlatRecord{makeRecord(0, 0), makeRecord(1, 1), makeRecord(2, 2)}
	recs[0].SummonerLevel = 118
	recs[1].SummonerLevel = 121
	recs[2].SummonerLevel = 120

	row, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if row.SummonerLevel != 121 {
		t.Errorf("summonerLevel = %d, want 121", row.SummonerLevel)
	}
}

func TestMeansAndNaNPropagation(t *testing.T) {
	a := makeRecord(0, 0)
	a.Metrics = map[string]float64{"kills": 2, "goldPerMinute": 400}
	b := makeRecord(1, 1)
	b.Metrics = map[string]float64{"kills": 4}

	row, err := Aggregate(cohortOf(a, b))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := row.Means["kills"]; math.Abs(got-3) > floatTol {
		t.Errorf("mean kills = %v, want 3", got)
	}
	// goldPerMinute is missing on one record: no silent imputation.
	if got := row.Means["goldPerMinute"]; !math.IsNaN(got) {
		t.Errorf("mean goldPerMinute = %v, want NaN", got)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	recs := []model.FlatRecord{
		makeRecord(0, 0), makeRecord(3, 2), makeRecord(5, 3), makeRecord(0, 0),
	}
	first, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	second, err := Aggregate(cohortOf(recs...))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-running the aggregation changed the output")
	}
}

func TestOneHot(t *testing.T) {
	got := OneHot("JUNGLE", model.FavPosCategories)
	for i, c := range model.FavPosCategories {
		want := 0.0
		if c == "JUNGLE" {
			want = 1
		}
		if got[i] != want {
			t.Errorf("indicator %q = %v, want %v", c, got[i], want)
		}
	}

	// Unknown categories contribute 0 everywhere instead of erroring.
	for _, v := range OneHot("CHERRY", model.GameModeCategories) {
		if v != 0 {
			t.Fatal("unknown category produced a non-zero indicator")
		}
	}
}

func TestDayTimeName(t *testing.T) {
	if got := DayTimeName(0, 0); got != "mondayMorning" {
		t.Errorf("DayTimeName(0,0) = %q", got)
	}
	if got := DayTimeName(6, 3); got != "sundayNight" {
		t.Errorf("DayTimeName(6,3) = %q", got)
	}
}
