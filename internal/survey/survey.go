// Package survey cleans the raw questionnaire export into player profiles:
// identity columns for account resolution plus numerically encoded
// demographic answers. The questionnaire is French; the header labels below
// are the exact form field names.
package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mlacroix/lolfeatures/internal/enrich"
	"github.com/mlacroix/lolfeatures/internal/model"
)

// Form field names as exported by the questionnaire.
const (
	colPseudo       = "Pseudo"
	colTagline      = "Tagline"
	colRegion       = "Région"
	colBirthDate    = "Date de naissance"
	colSex          = "Sexe"
	colDepartment   = "Département de résidence (numéro) actuel"
	colJob          = "Avez vous un job / Etes vous étudiant ?"
	colRelationship = "Statut familial"
	colHousehold    = "Situation domicile"
	colBuyContent   = "Achetez vous du contenu de jeu ?"
	colEconomic     = "Niveau économique (1 = plus bas, 3 = plus haut)"
	colTeamWork     = "Aimez vous le travail d'équipe ?"
	colInstrument   = "Savez vous jouer d'un instrument ?"
	colSport        = "Pratiquez vous du sport ?"
)

// surveyDaysPerYear is the year length for "age today" on the profile; the
// questionnaire path keeps the source's 365.25 (unlike the match-time age
// bucketing, which uses 365).
const surveyDaysPerYear = 365.25

// Clean parses the questionnaire CSV and encodes each answer row as a
// PlayerProfile. The profile age is the respondent's age at "now" in the
// given zone; PUUID stays empty until the account is resolved.
func Clean(r io.Reader, now time.Time, loc *time.Location) ([]model.PlayerProfile, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read survey header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colPseudo, colTagline, colRegion, colBirthDate} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("survey column %q missing", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var profiles []model.PlayerProfile
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read survey line %d: %w", line, err)
		}

		p := model.PlayerProfile{
			Pseudo:     field(row, colPseudo),
			Tagline:    field(row, colTagline),
			Region:     field(row, colRegion),
			BirthDate:  field(row, colBirthDate),
			Department: field(row, colDepartment),
		}
		if p.Pseudo == "" {
			continue
		}

		if p.BirthDate != "" {
			birth, err := enrich.ParseBirthDate(p.BirthDate, loc)
			if err != nil {
				return nil, fmt.Errorf("survey line %d: %w", line, err)
			}
			days := now.Sub(birth).Hours() / 24
			p.Age = int(math.Floor(days / surveyDaysPerYear))
		}

		switch field(row, colSex) {
		case "Femme":
			p.Sex = 0
		case "Homme":
			p.Sex = 1
		default:
			p.Sex = 2
		}
		p.Job = yesNo(field(row, colJob))
		p.Relationship = boolAnswer(field(row, colRelationship), "En couple")
		p.LiveWithOthers = boolAnswer(field(row, colHousehold), "Je vis avec d'autres personnes")
		p.BuyContent = scale3(field(row, colBuyContent), "Non", "Rarement")
		p.Economic = level(field(row, colEconomic))
		p.LoveTeamWork = yesNo(field(row, colTeamWork))
		p.PlayInstrument = yesNo(field(row, colInstrument))
		p.Sport = scale3(field(row, colSport), "Non", "Parfois")

		profiles = append(profiles, p)
	}
	return profiles, nil
}

func yesNo(answer string) int {
	if answer == "Oui" {
		return 1
	}
	return 0
}

func boolAnswer(answer, positive string) int {
	if answer == positive {
		return 1
	}
	return 0
}

// scale3 encodes a three-level answer as 0 (low), 1 (mid) or 2.
func scale3(answer, low, mid string) int {
	switch answer {
	case low:
		return 0
	case mid:
		return 1
	default:
		return 2
	}
}

// level maps the 1-3 economic scale onto 0-2.
func level(answer string) int {
	switch answer {
	case "1":
		return 0
	case "2":
		return 1
	default:
		return 2
	}
}
