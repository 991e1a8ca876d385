package model

// FlatSchemaVersion identifies the flattening schema. Bump it whenever the
// denylist or the set of extracted fields changes; cached records carry the
// version they were flattened with so stale caches can be rebuilt from the
// retained raw payloads instead of silently mixing shapes.
const FlatSchemaVersion = 2

// Age cohort labels derived from the player's age at match time.
const (
	AgeUnder18 = "under_18"
	AgeOver18  = "over_18"
)

// FlatRecord is one player's participation in one match, flattened from the
// nested match payload. Named fields are the ones the aggregation reduces
// with mode or max; Metrics holds every remaining numeric column (challenge
// stats, rune variables, participant counters), which are mean-reduced.
//
// All FlatRecords sharing a Schema have the same named-field shape; Metrics
// keys may be ragged across records when the upstream payload omits a stat.
type FlatRecord struct {
	Schema int    `json:"schema"`
	PUUID  string `json:"puuid"`

	GameMode           string `json:"gameMode"`
	GameStartTimestamp int64  `json:"gameStartTimestamp"` // epoch ms; consumed by enrichment only

	ChampionID   int64  `json:"championId"`
	Lane         string `json:"lane"`
	TeamPosition string `json:"teamPosition"`
	Role         string `json:"role"`

	SummonerLevel int64    `json:"summonerLevel"`
	Summoner1ID   int64    `json:"summoner1Id"`
	Summoner2ID   int64    `json:"summoner2Id"`
	Items         [7]int64 `json:"items"`

	PrimaryStyle   int64    `json:"primaryStyle"`
	SecondaryStyle int64    `json:"secondaryStyle"`
	PrimaryPerks   [4]int64 `json:"primaryPerks"`
	SecondaryPerks [2]int64 `json:"secondaryPerks"`

	// Stat perk slots.
	Offense int64 `json:"offense"`
	Defense int64 `json:"defense"`
	Flex    int64 `json:"flex"`

	Metrics map[string]float64 `json:"metrics"`

	// Set by the enricher, zero-valued on freshly flattened records.
	WeekDay      int    `json:"weekDay"`      // ISO weekday, Monday = 0
	StartHourCat int    `json:"startHourCat"` // 0 morning, 1 afternoon, 2 evening, 3 night
	AgeCategory  string `json:"ageCategory"`  // "", "under_18" or "over_18"
}

// AggregateRow is the fixed-width summary of one cohort of a player's
// matches. Computed once per cohort, never mutated.
type AggregateRow struct {
	PUUID       string
	AgeCategory string // "" when the player supplied no birth date

	ChampionPref  int64 // mode of championId
	ChampionCount int   // distinct championId values

	HourMostFreq int // mode of startHourCat
	DayMostFreq  int // mode of weekDay

	// Temporal frequency features: proportions in [0,1], zero cells kept.
	DayFreq     [7]float64
	TimeFreq    [4]float64
	DayTimeFreq [7][4]float64 // [weekday][time bucket]

	BadLane float64 // share of matches played on a lane other than the assigned position
	FavPos  string  // mode of teamPosition
	NbPos   int     // distinct teamPosition values

	GameMode string
	Role     string

	Offense        int64
	Defense        int64
	Flex           int64
	PrimaryStyle   int64
	SecondaryStyle int64
	PrimaryPerks   [4]int64
	SecondaryPerks [2]int64
	Items          [7]int64
	Summoner1ID    int64
	Summoner2ID    int64

	SummonerLevel int64 // max across the cohort; the level never decreases

	// Means of every remaining numeric column. NaN where a column was
	// missing on at least one record of the cohort.
	Means map[string]float64
}

// PlayerProfile holds the static per-player attributes collected via the
// study questionnaire. PUUID is empty until the player's account has been
// resolved against the game-data provider.
type PlayerProfile struct {
	PUUID     string
	Pseudo    string
	Tagline   string
	Region    string
	BirthDate string // DD/MM/YYYY, empty when not supplied

	Age            int
	Sex            int // 0 female, 1 male, 2 other
	Department     string
	Job            int
	Relationship   int
	LiveWithOthers int
	BuyContent     int // 0 no, 1 rarely, 2 yes
	Economic       int // 0..2
	LoveTeamWork   int
	PlayInstrument int
	Sport          int // 0 no, 1 sometimes, 2 yes
}

// Closed categorical vocabularies used for one-hot expansion. Order is
// fixed; it determines the indicator column order in the output dataset.
// The empty string in FavPosCategories is the "no assigned position" case.
var (
	FavPosCategories = []string{"UTILITY", "MIDDLE", "JUNGLE", "BOTTOM", "TOP", "APEX", ""}

	RoleCategories = []string{"SUPPORT", "SOLO", "CARRY", "NONE", "DUO"}

	GameModeCategories = []string{
		"CLASSIC", "ODIN", "ARAM", "TUTORIAL", "URF", "DOOMBOTSTEEMO", "ONEFORALL",
		"ASCENSION", "FIRSTBLOOD", "KINGPORO", "SIEGE", "ASSASSINATE", "ARSR",
		"DARKSTAR", "STARGUARDIAN", "PROJECT", "GAMEMODEX", "ODYSSEY", "NEXUSBLITZ",
		"ULTBOOK",
	}
)
