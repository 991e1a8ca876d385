package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mlacroix/lolfeatures/internal/aggregate"
	"github.com/mlacroix/lolfeatures/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PlayerListEntry pairs a stored profile with its cache state.
type PlayerListEntry struct {
	Profile model.PlayerProfile
	Matches int
}

// PrintPlayerList renders the stored players and their cache state.
func PrintPlayerList(w io.Writer, entries []PlayerListEntry) {
	table := newTable(w)
	table.Header("PSEUDO", "TAG", "REGION", "PUUID", "BIRTH", "MATCHES")

	for _, e := range entries {
		puuid := "—"
		if e.Profile.PUUID != "" {
			puuid = shorten(e.Profile.PUUID, 12)
		}
		birth := "—"
		if e.Profile.BirthDate != "" {
			birth = e.Profile.BirthDate
		}
		table.Append(
			e.Profile.Pseudo,
			e.Profile.Tagline,
			e.Profile.Region,
			puuid,
			birth,
			strconv.Itoa(e.Matches),
		)
	}
	table.Render()
}

// PrintFeatureRows renders a player's aggregate rows, one line per cohort,
// with the headline features.
func PrintFeatureRows(w io.Writer, p model.PlayerProfile, rows []model.AggregateRow) {
	fmt.Fprintf(w, "\nPlayer: %s#%s  |  Region: %s  |  PUUID: %s\n\n",
		p.Pseudo, p.Tagline, p.Region, shorten(p.PUUID, 16))

	table := newTable(w)
	table.Header("COHORT", "CHAMP", "CHAMPS", "FAV_POS", "POS", "BAD_LANE",
		"TOP_DAY", "TOP_TIME", "MODE", "LEVEL")

	for _, r := range rows {
		cohort := r.AgeCategory
		if cohort == "" {
			cohort = "all"
		}
		favPos := r.FavPos
		if favPos == "" {
			favPos = "—"
		}
		table.Append(
			cohort,
			strconv.FormatInt(r.ChampionPref, 10),
			strconv.Itoa(r.ChampionCount),
			favPos,
			strconv.Itoa(r.NbPos),
			fmt.Sprintf("%.0f%%", r.BadLane*100),
			aggregate.DayNames[r.DayMostFreq],
			aggregate.TimeNames[r.HourMostFreq],
			r.GameMode,
			strconv.FormatInt(r.SummonerLevel, 10),
		)
	}
	table.Render()
}

// PrintDayTimeGrid renders one cohort's weekday x time-bucket proportions.
func PrintDayTimeGrid(w io.Writer, r model.AggregateRow) {
	table := newTable(w)
	table.Header("DAY", "MORNING", "AFTERNOON", "EVENING", "NIGHT", "TOTAL")

	for d, day := range aggregate.DayNames {
		table.Append(
			day,
			pct(r.DayTimeFreq[d][0]),
			pct(r.DayTimeFreq[d][1]),
			pct(r.DayTimeFreq[d][2]),
			pct(r.DayTimeFreq[d][3]),
			pct(r.DayFreq[d]),
		)
	}
	table.Render()
}

func pct(v float64) string {
	if v == 0 {
		return "·"
	}
	return fmt.Sprintf("%.0f%%", v*100)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
