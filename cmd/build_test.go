package cmd

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mlacroix/lolfeatures/internal/model"
	"github.com/mlacroix/lolfeatures/internal/storage"
)

func rebuildTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// rawMatch builds a minimal valid match payload with one participant.
func rawMatch(puuid string) []byte {
	return []byte(fmt.Sprintf(`{"info": {
	  "gameMode": "CLASSIC",
	  "gameStartTimestamp": 1654500000000,
	  "gameDuration": 1800,
	  "participants": [{
	    "puuid": %q,
	    "championId": 103,
	    "lane": "MIDDLE",
	    "teamPosition": "MIDDLE",
	    "role": "SOLO",
	    "challenges": {"kda": 3.5},
	    "perks": {
	      "statPerks": {"defense": 5002, "flex": 5008, "offense": 5005},
	      "styles": [
	        {"style": 8200, "selections": [
	          {"perk": 8214, "var1": 0, "var2": 0, "var3": 0},
	          {"perk": 8226, "var1": 0, "var2": 0, "var3": 0},
	          {"perk": 8210, "var1": 0, "var2": 0, "var3": 0},
	          {"perk": 8237, "var1": 0, "var2": 0, "var3": 0}
	        ]},
	        {"style": 8300, "selections": [
	          {"perk": 8345, "var1": 0, "var2": 0, "var3": 0},
	          {"perk": 8347, "var1": 0, "var2": 0, "var3": 0}
	        ]}
	      ]
	    }
	  }]
	}}`, puuid))
}

func TestReflattenIfStale(t *testing.T) {
	db := rebuildTestDB(t)

	// Two archived payloads: one with the player, one where they are
	// absent (archived by a fetch run before the participant check fired).
	if err := db.SaveMatchIDs("p1", []string{"EUW1_1", "EUW1_2"}); err != nil {
		t.Fatalf("SaveMatchIDs: %v", err)
	}
	if err := db.SaveRawMatch("p1", "EUW1_1", rawMatch("p1")); err != nil {
		t.Fatalf("SaveRawMatch: %v", err)
	}
	if err := db.SaveRawMatch("p1", "EUW1_2", rawMatch("someone-else")); err != nil {
		t.Fatalf("SaveRawMatch: %v", err)
	}

	// The cached record predates the current schema.
	stale := model.FlatRecord{
		Schema: model.FlatSchemaVersion - 1, PUUID: "p1", GameMode: "CLASSIC",
		GameStartTimestamp: 1654500000000, ChampionID: 103,
		Metrics: map[string]float64{"kda": 3.5},
	}
	if err := db.ReplaceFlatRecords("p1", []string{"EUW1_1"}, []model.FlatRecord{stale}); err != nil {
		t.Fatalf("ReplaceFlatRecords: %v", err)
	}

	// The absent-player payload must be skipped, not abort the rebuild.
	if err := reflattenIfStale(db, "p1"); err != nil {
		t.Fatalf("reflattenIfStale: %v", err)
	}

	recs, err := db.FlatRecords("p1")
	if err != nil {
		t.Fatalf("FlatRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Schema != model.FlatSchemaVersion {
		t.Errorf("schema = %d, want %d", recs[0].Schema, model.FlatSchemaVersion)
	}
	if recs[0].ChampionID != 103 || recs[0].Metrics["kda"] != 3.5 {
		t.Errorf("rebuilt record = %+v", recs[0])
	}
}

func TestReflattenIfStaleNoOpWhenCurrent(t *testing.T) {
	db := rebuildTestDB(t)

	current := model.FlatRecord{
		Schema: model.FlatSchemaVersion, PUUID: "p1", GameMode: "ARAM",
		Metrics: map[string]float64{"kills": 2},
	}
	if err := db.ReplaceFlatRecords("p1", []string{"EUW1_1"}, []model.FlatRecord{current}); err != nil {
		t.Fatalf("ReplaceFlatRecords: %v", err)
	}

	// No raw payloads archived: a rebuild attempt would fail, so the
	// up-to-date cache must be left alone.
	if err := reflattenIfStale(db, "p1"); err != nil {
		t.Fatalf("reflattenIfStale: %v", err)
	}
	recs, err := db.FlatRecords("p1")
	if err != nil {
		t.Fatalf("FlatRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].GameMode != "ARAM" {
		t.Errorf("cache changed: %+v", recs)
	}
}
