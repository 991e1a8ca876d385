// Package flatten turns one raw match payload into a single flat record for
// a target player: the matched participant's fields, their challenge stats
// and rune selections are merged into one mapping and a fixed denylist of
// volatile or identifying fields is dropped.
package flatten

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mlacroix/lolfeatures/internal/model"
)

// EligibilityCutoffMillis is the hardcoded study enrollment cutoff
// (2022-02-10): matches started at or before this epoch-millisecond
// timestamp are discarded before flattening.
const EligibilityCutoffMillis int64 = 1644533999000

var (
	// ErrPlayerNotFound reports that the target puuid appears in none of
	// the match's participant entries. Callers skip the match.
	ErrPlayerNotFound = errors.New("player not found in match participants")

	// ErrMissingField reports a data-shape violation in the payload, e.g.
	// fewer rune selections than the schema requires. It indicates an
	// upstream schema change and is surfaced, never defaulted.
	ErrMissingField = errors.New("missing field in match payload")
)

// Info-level fields never carried into the flattened record.
var infoDenylist = map[string]bool{
	"gameCreation":     true,
	"gameEndTimestamp": true,
	"gameId":           true,
	"gameName":         true,
	"gameType":         true,
	"gameVersion":      true,
	"mapId":            true,
	"platformId":       true,
	"queueId":          true,
	"tournamentCode":   true,
	"participants":     true,
	"teams":            true,
}

// Participant-level fields never carried into the flattened record.
var participantDenylist = map[string]bool{
	"champExperience":        true,
	"champLevel":             true,
	"championName":           true,
	"eligibleForProgression": true,
	"individualPosition":     true,
	"participantId":          true,
	"profileIcon":            true,
	"riotIdGameName":         true,
	"riotIdName":             true,
	"riotIdTagline":          true,
	"summonerId":             true,
	"summonerName":           true,
	"teamId":                 true,
	"timePlayed":             true,
}

// Key prefixes dropped wherever they occur: mission counters and per-title
// event counters are volatile and carry no behavioral signal.
var denyPrefixes = []string{"missions", "playerScore"}

// Eligible reports whether a match passes the fixed business filter:
// CLASSIC or ARAM only, started strictly after the enrollment cutoff.
func Eligible(gameMode string, gameStartTimestamp int64) bool {
	if gameMode != "CLASSIC" && gameMode != "ARAM" {
		return false
	}
	return gameStartTimestamp > EligibilityCutoffMillis
}

// MatchInfo decodes just the fields the eligibility filter needs, without
// flattening anything.
func MatchInfo(payload []byte) (gameMode string, gameStartTimestamp int64, err error) {
	var env struct {
		Info struct {
			GameMode           string `json:"gameMode"`
			GameStartTimestamp int64  `json:"gameStartTimestamp"`
		} `json:"info"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", 0, fmt.Errorf("decode match info: %w", err)
	}
	return env.Info.GameMode, env.Info.GameStartTimestamp, nil
}

// perksDTO mirrors the participant's rune block.
type perksDTO struct {
	StatPerks struct {
		Defense int64 `json:"defense"`
		Flex    int64 `json:"flex"`
		Offense int64 `json:"offense"`
	} `json:"statPerks"`
	Styles []struct {
		Style      int64 `json:"style"`
		Selections []struct {
			Perk int64   `json:"perk"`
			Var1 float64 `json:"var1"`
			Var2 float64 `json:"var2"`
			Var3 float64 `json:"var3"`
		} `json:"selections"`
	} `json:"styles"`
}

// participantEnvelope carries the nested blocks that get special handling;
// the participant's remaining fields are decoded generically.
type participantEnvelope struct {
	PUUID      string          `json:"puuid"`
	Challenges map[string]any  `json:"challenges"`
	Perks      json.RawMessage `json:"perks"`
}

// Flatten locates puuid's participant entry in the raw match payload (first
// match wins) and merges match info, participant fields, challenge stats and
// rune selections into one FlatRecord. The payload is never mutated.
//
// Returns ErrPlayerNotFound when no participant matches, and ErrMissingField
// when an expected nested block is absent or shorter than the schema
// requires.
func Flatten(payload []byte, puuid string) (*model.FlatRecord, error) {
	var env struct {
		Info json.RawMessage `json:"info"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode match payload: %w", err)
	}
	if len(env.Info) == 0 {
		return nil, fmt.Errorf("match info: %w", ErrMissingField)
	}

	var info struct {
		GameMode           string            `json:"gameMode"`
		GameStartTimestamp int64             `json:"gameStartTimestamp"`
		Participants       []json.RawMessage `json:"participants"`
	}
	if err := json.Unmarshal(env.Info, &info); err != nil {
		return nil, fmt.Errorf("decode match info: %w", err)
	}

	part, err := findParticipant(info.Participants, puuid)
	if err != nil {
		return nil, err
	}

	var pe participantEnvelope
	if err := json.Unmarshal(part, &pe); err != nil {
		return nil, fmt.Errorf("decode participant: %w", err)
	}
	if pe.Challenges == nil {
		return nil, fmt.Errorf("participant challenges: %w", ErrMissingField)
	}
	if len(pe.Perks) == 0 {
		return nil, fmt.Errorf("participant perks: %w", ErrMissingField)
	}

	var fields map[string]any
	if err := json.Unmarshal(part, &fields); err != nil {
		return nil, fmt.Errorf("decode participant fields: %w", err)
	}

	rec := &model.FlatRecord{
		Schema:             model.FlatSchemaVersion,
		PUUID:              puuid,
		GameMode:           info.GameMode,
		GameStartTimestamp: info.GameStartTimestamp,
		ChampionID:         intField(fields, "championId"),
		Lane:               strField(fields, "lane"),
		TeamPosition:       strField(fields, "teamPosition"),
		Role:               strField(fields, "role"),
		SummonerLevel:      intField(fields, "summonerLevel"),
		Summoner1ID:        intField(fields, "summoner1Id"),
		Summoner2ID:        intField(fields, "summoner2Id"),
		Metrics:            make(map[string]float64),
	}
	for i := range rec.Items {
		rec.Items[i] = intField(fields, fmt.Sprintf("item%d", i))
	}

	if err := flattenPerks(pe.Perks, rec); err != nil {
		return nil, err
	}
	flattenChallenges(pe.Challenges, rec.Metrics)
	flattenInfo(env.Info, rec.Metrics)
	flattenParticipantFields(fields, rec.Metrics)

	return rec, nil
}

// findParticipant returns the first participant entry whose puuid matches.
func findParticipant(participants []json.RawMessage, puuid string) (json.RawMessage, error) {
	for _, p := range participants {
		var probe struct {
			PUUID string `json:"puuid"`
		}
		if err := json.Unmarshal(p, &probe); err != nil {
			return nil, fmt.Errorf("decode participant probe: %w", err)
		}
		if probe.PUUID == puuid {
			return p, nil
		}
	}
	return nil, fmt.Errorf("puuid %s: %w", puuid, ErrPlayerNotFound)
}

// flattenPerks expands the two rune styles into explicit fields: the style
// ids, 4 primary and 2 secondary perk ids, and three numeric variables per
// selection (named primaryVar{v}{n} / secondaryVar{v}{n}).
func flattenPerks(raw json.RawMessage, rec *model.FlatRecord) error {
	var perks perksDTO
	if err := json.Unmarshal(raw, &perks); err != nil {
		return fmt.Errorf("decode perks: %w", err)
	}
	if len(perks.Styles) < 2 {
		return fmt.Errorf("perks styles (%d of 2): %w", len(perks.Styles), ErrMissingField)
	}
	primary, secondary := perks.Styles[0], perks.Styles[1]
	if len(primary.Selections) < 4 {
		return fmt.Errorf("primary selections (%d of 4): %w", len(primary.Selections), ErrMissingField)
	}
	if len(secondary.Selections) < 2 {
		return fmt.Errorf("secondary selections (%d of 2): %w", len(secondary.Selections), ErrMissingField)
	}

	rec.Offense = perks.StatPerks.Offense
	rec.Defense = perks.StatPerks.Defense
	rec.Flex = perks.StatPerks.Flex
	rec.PrimaryStyle = primary.Style
	rec.SecondaryStyle = secondary.Style

	for n := 0; n < 4; n++ {
		sel := primary.Selections[n]
		rec.PrimaryPerks[n] = sel.Perk
		rec.Metrics[fmt.Sprintf("primaryVar1%d", n)] = sel.Var1
		rec.Metrics[fmt.Sprintf("primaryVar2%d", n)] = sel.Var2
		rec.Metrics[fmt.Sprintf("primaryVar3%d", n)] = sel.Var3
	}
	for n := 0; n < 2; n++ {
		sel := secondary.Selections[n]
		rec.SecondaryPerks[n] = sel.Perk
		rec.Metrics[fmt.Sprintf("secondaryVar1%d", n)] = sel.Var1
		rec.Metrics[fmt.Sprintf("secondaryVar2%d", n)] = sel.Var2
		rec.Metrics[fmt.Sprintf("secondaryVar3%d", n)] = sel.Var3
	}
	return nil
}

func flattenChallenges(challenges map[string]any, metrics map[string]float64) {
	for key, val := range challenges {
		if denied(key) {
			continue
		}
		if f, ok := numeric(val); ok {
			metrics[key] = f
		}
	}
}

// flattenInfo copies the surviving top-level numeric info fields (e.g.
// gameDuration) into the metric set.
func flattenInfo(raw json.RawMessage, metrics map[string]float64) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return
	}
	for key, val := range fields {
		if infoDenylist[key] || denied(key) {
			continue
		}
		if key == "gameMode" || key == "gameStartTimestamp" {
			continue
		}
		if f, ok := numeric(val); ok {
			metrics[key] = f
		}
	}
}

// Participant keys already lifted into named FlatRecord fields.
var liftedParticipantKeys = map[string]bool{
	"puuid":         true,
	"challenges":    true,
	"perks":         true,
	"championId":    true,
	"lane":          true,
	"teamPosition":  true,
	"role":          true,
	"summonerLevel": true,
	"summoner1Id":   true,
	"summoner2Id":   true,
	"item0":         true, "item1": true, "item2": true, "item3": true,
	"item4": true, "item5": true, "item6": true,
}

func flattenParticipantFields(fields map[string]any, metrics map[string]float64) {
	for key, val := range fields {
		if liftedParticipantKeys[key] || participantDenylist[key] || denied(key) {
			continue
		}
		if f, ok := numeric(val); ok {
			metrics[key] = f
		}
	}
}

func denied(key string) bool {
	for _, p := range denyPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// numeric converts a decoded JSON value to a metric: numbers pass through,
// booleans become 0/1, everything else is dropped.
func numeric(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func strField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func intField(fields map[string]any, key string) int64 {
	f, _ := fields[key].(float64)
	return int64(f)
}
