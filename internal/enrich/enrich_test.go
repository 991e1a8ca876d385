package enrich

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mlacroix/lolfeatures/internal/model"
)

func TestHourBucket(t *testing.T) {
	cases := []struct {
		hour int
		want int
	}{
		{0, Night},
		{5, Night},
		{6, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{20, Evening},
		{21, Night},
		{23, Night},
	}
	for _, c := range cases {
		if got := HourBucket(c.hour); got != c.want {
			t.Errorf("HourBucket(%d) = %d, want %d", c.hour, got, c.want)
		}
	}
}

func TestApplyWeekdayAndBucket(t *testing.T) {
	// 2022-03-07 is a Monday; 10:00 UTC falls in the morning bucket.
	start := time.Date(2022, time.March, 7, 10, 0, 0, 0, time.UTC)
	e := &Enricher{Loc: time.UTC}

	out := e.Apply([]model.FlatRecord{{GameStartTimestamp: start.UnixMilli()}})
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].WeekDay != 0 {
		t.Errorf("weekDay = %d, want 0 (Monday)", out[0].WeekDay)
	}
	if out[0].StartHourCat != Morning {
		t.Errorf("startHourCat = %d, want %d", out[0].StartHourCat, Morning)
	}

	// Sunday maps to 6.
	sunday := time.Date(2022, time.March, 6, 22, 30, 0, 0, time.UTC)
	out = e.Apply([]model.FlatRecord{{GameStartTimestamp: sunday.UnixMilli()}})
	if out[0].WeekDay != 6 {
		t.Errorf("weekDay = %d, want 6 (Sunday)", out[0].WeekDay)
	}
	if out[0].StartHourCat != Night {
		t.Errorf("startHourCat = %d, want %d", out[0].StartHourCat, Night)
	}
}

func TestApplyLocationShiftsBucket(t *testing.T) {
	// 23:30 UTC is night in London but 01:30 next day in UTC+2, still
	// night, while 05:30 UTC crosses into morning at UTC+2.
	plus2 := time.FixedZone("UTC+2", 2*3600)
	start := time.Date(2022, time.March, 7, 5, 30, 0, 0, time.UTC)

	utc := (&Enricher{Loc: time.UTC}).Apply([]model.FlatRecord{{GameStartTimestamp: start.UnixMilli()}})
	shifted := (&Enricher{Loc: plus2}).Apply([]model.FlatRecord{{GameStartTimestamp: start.UnixMilli()}})

	if utc[0].StartHourCat != Night {
		t.Errorf("UTC bucket = %d, want %d", utc[0].StartHourCat, Night)
	}
	if shifted[0].StartHourCat != Morning {
		t.Errorf("UTC+2 bucket = %d, want %d", shifted[0].StartHourCat, Morning)
	}
}

func TestApplyAgeCategory(t *testing.T) {
	birth, err := ParseBirthDate("01/01/2005", time.UTC)
	if err != nil {
		t.Fatalf("ParseBirthDate: %v", err)
	}
	e := &Enricher{Loc: time.UTC, Birth: &birth}

	young := time.Date(2022, time.June, 6, 12, 0, 0, 0, time.UTC)
	adult := time.Date(2023, time.June, 5, 12, 0, 0, 0, time.UTC)
	out := e.Apply([]model.FlatRecord{
		{GameStartTimestamp: young.UnixMilli()},
		{GameStartTimestamp: adult.UnixMilli()},
	})

	if out[0].AgeCategory != model.AgeUnder18 {
		t.Errorf("2022 match ageCategory = %q, want %q", out[0].AgeCategory, model.AgeUnder18)
	}
	if out[1].AgeCategory != model.AgeOver18 {
		t.Errorf("2023 match ageCategory = %q, want %q", out[1].AgeCategory, model.AgeOver18)
	}
}

func TestApplyAgeAcrossDSTTransition(t *testing.T) {
	// Born 02/11/2004 under CET; Paris was still on CEST on 2022-10-29,
	// so the interval is one hour short of 6570 full days while spanning
	// exactly 6570 calendar dates. The age must come from the dates: the
	// player turns 18 on that day, just after local midnight.
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	birth, err := ParseBirthDate("02/11/2004", paris)
	if err != nil {
		t.Fatalf("ParseBirthDate: %v", err)
	}
	e := Enricher{Loc: paris, Birth: &birth}

	match := time.Date(2022, time.October, 29, 0, 30, 0, 0, paris)
	out := e.Apply([]model.FlatRecord{{GameStartTimestamp: match.UnixMilli()}})
	if out[0].AgeCategory != model.AgeOver18 {
		t.Errorf("ageCategory = %q, want %q", out[0].AgeCategory, model.AgeOver18)
	}

	dayBefore := time.Date(2022, time.October, 28, 23, 30, 0, 0, paris)
	out = e.Apply([]model.FlatRecord{{GameStartTimestamp: dayBefore.UnixMilli()}})
	if out[0].AgeCategory != model.AgeUnder18 {
		t.Errorf("ageCategory = %q, want %q", out[0].AgeCategory, model.AgeUnder18)
	}
}

func TestApplyWithoutBirthDate(t *testing.T) {
	e := &Enricher{Loc: time.UTC}
	out := e.Apply([]model.FlatRecord{{GameStartTimestamp: time.Now().UnixMilli()}})
	if out[0].AgeCategory != "" {
		t.Errorf("ageCategory = %q, want empty without a birth date", out[0].AgeCategory)
	}
}

func TestParseBirthDateRejectsGarbage(t *testing.T) {
	if _, err := ParseBirthDate("2005-01-01", time.UTC); err == nil {
		t.Error("expected error for ISO-formatted date")
	}
	if _, err := ParseBirthDate("", time.UTC); err == nil {
		t.Error("expected error for empty date")
	}
}

func TestSplitOrderingAndOmission(t *testing.T) {
	recs := []model.FlatRecord{
		{AgeCategory: model.AgeOver18, ChampionID: 1},
		{AgeCategory: model.AgeUnder18, ChampionID: 2},
		{AgeCategory: model.AgeOver18, ChampionID: 3},
	}
	cohorts := Split(recs)
	if len(cohorts) != 2 {
		t.Fatalf("got %d cohorts, want 2", len(cohorts))
	}
	if cohorts[0].Label != model.AgeUnder18 || len(cohorts[0].Records) != 1 {
		t.Errorf("first cohort = %q with %d records", cohorts[0].Label, len(cohorts[0].Records))
	}
	if cohorts[1].Label != model.AgeOver18 || len(cohorts[1].Records) != 2 {
		t.Errorf("second cohort = %q with %d records", cohorts[1].Label, len(cohorts[1].Records))
	}
}

func TestSplitUncategorized(t *testing.T) {
	cohorts := Split([]model.FlatRecord{{}, {AgeCategory: model.AgeUnder18}})
	if len(cohorts) != 2 {
		t.Fatalf("got %d cohorts, want 2", len(cohorts))
	}
	if cohorts[1].Label != "" {
		t.Errorf("last cohort label = %q, want empty", cohorts[1].Label)
	}
}
