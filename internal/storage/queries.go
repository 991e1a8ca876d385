package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mlacroix/lolfeatures/internal/model"
)

// UpsertProfile inserts or replaces a player profile, keyed by pseudo and
// tagline. The puuid column is preserved when the incoming profile carries
// none, so re-importing the survey does not lose resolved accounts.
func (db *DB) UpsertProfile(p model.PlayerProfile) error {
	puuid := p.PUUID
	if puuid == "" {
		existing, err := db.Profile(p.Pseudo, p.Tagline)
		if err != nil {
			return err
		}
		if existing != nil {
			puuid = existing.PUUID
		}
	}
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO players(
			pseudo, tagline, puuid, region, birth_date,
			age, sex, department, job, relationship, live_with_others,
			buy_content, economic, love_team_work, play_instrument, sport
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Pseudo, p.Tagline, puuid, p.Region, p.BirthDate,
		p.Age, p.Sex, p.Department, p.Job, p.Relationship, p.LiveWithOthers,
		p.BuyContent, p.Economic, p.LoveTeamWork, p.PlayInstrument, p.Sport,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s#%s: %w", p.Pseudo, p.Tagline, err)
	}
	return nil
}

// SetPUUID records a resolved account id on a player profile.
func (db *DB) SetPUUID(pseudo, tagline, puuid string) error {
	_, err := db.conn.Exec(
		`UPDATE players SET puuid = ? WHERE pseudo = ? AND tagline = ?`,
		puuid, pseudo, tagline)
	return err
}

const profileColumns = `pseudo, tagline, puuid, region, birth_date,
	age, sex, department, job, relationship, live_with_others,
	buy_content, economic, love_team_work, play_instrument, sport`

func scanProfile(row interface{ Scan(...any) error }) (model.PlayerProfile, error) {
	var p model.PlayerProfile
	err := row.Scan(
		&p.Pseudo, &p.Tagline, &p.PUUID, &p.Region, &p.BirthDate,
		&p.Age, &p.Sex, &p.Department, &p.Job, &p.Relationship, &p.LiveWithOthers,
		&p.BuyContent, &p.Economic, &p.LoveTeamWork, &p.PlayInstrument, &p.Sport,
	)
	return p, err
}

// Profile returns one profile, or nil when unknown.
func (db *DB) Profile(pseudo, tagline string) (*model.PlayerProfile, error) {
	row := db.conn.QueryRow(
		`SELECT `+profileColumns+` FROM players WHERE pseudo = ? AND tagline = ?`,
		pseudo, tagline)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns every stored profile in import order.
func (db *DB) ListProfiles() ([]model.PlayerProfile, error) {
	rows, err := db.conn.Query(`SELECT ` + profileColumns + ` FROM players ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.PlayerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// SaveMatchIDs replaces the cached match-id list for a player.
func (db *DB) SaveMatchIDs(puuid string, ids []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM match_lists WHERE puuid = ?`, puuid); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO match_lists(puuid, seq, match_id) VALUES (?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, id := range ids {
		if _, err := stmt.Exec(puuid, i, id); err != nil {
			return fmt.Errorf("insert match id %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// MatchIDs returns the cached match-id list for a player, in API order.
// An empty slice means no list has been cached yet.
func (db *DB) MatchIDs(puuid string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT match_id FROM match_lists WHERE puuid = ? ORDER BY seq`, puuid)
	if err != nil {
		return nil, fmt.Errorf("query match ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveRawMatch archives one raw match payload, zstd-compressed.
func (db *DB) SaveRawMatch(puuid, matchID string, payload []byte) error {
	compressed := db.enc.EncodeAll(payload, nil)
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO raw_matches(puuid, match_id, payload) VALUES (?,?,?)`,
		puuid, matchID, compressed)
	if err != nil {
		return fmt.Errorf("save raw match %s: %w", matchID, err)
	}
	return nil
}

// RawMatch returns one archived payload, or nil when absent.
func (db *DB) RawMatch(puuid, matchID string) ([]byte, error) {
	var compressed []byte
	err := db.conn.QueryRow(
		`SELECT payload FROM raw_matches WHERE puuid = ? AND match_id = ?`,
		puuid, matchID).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query raw match: %w", err)
	}
	payload, err := db.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress raw match %s: %w", matchID, err)
	}
	return payload, nil
}

// RawMatchIDs lists the match ids with an archived payload, in match-list
// order.
func (db *DB) RawMatchIDs(puuid string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT r.match_id FROM raw_matches r
		JOIN match_lists m ON m.puuid = r.puuid AND m.match_id = r.match_id
		WHERE r.puuid = ? ORDER BY m.seq`, puuid)
	if err != nil {
		return nil, fmt.Errorf("query raw match ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceFlatRecords replaces a player's cached flattened records. Records
// are stored JSON-encoded with their schema version, in match order.
func (db *DB) ReplaceFlatRecords(puuid string, matchIDs []string, recs []model.FlatRecord) error {
	if len(matchIDs) != len(recs) {
		return fmt.Errorf("flat records: %d ids for %d records", len(matchIDs), len(recs))
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM flat_records WHERE puuid = ?`, puuid); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO flat_records(puuid, seq, match_id, schema_version, record)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range recs {
		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", matchIDs[i], err)
		}
		if _, err := stmt.Exec(puuid, i, matchIDs[i], rec.Schema, encoded); err != nil {
			return fmt.Errorf("insert record %s: %w", matchIDs[i], err)
		}
	}
	return tx.Commit()
}

// FlatRecords returns a player's cached records in original match order.
// Implements compose.RecordSource.
func (db *DB) FlatRecords(puuid string) ([]model.FlatRecord, error) {
	rows, err := db.conn.Query(
		`SELECT record FROM flat_records WHERE puuid = ? ORDER BY seq`, puuid)
	if err != nil {
		return nil, fmt.Errorf("query flat records: %w", err)
	}
	defer rows.Close()

	var recs []model.FlatRecord
	for rows.Next() {
		var encoded []byte
		if err := rows.Scan(&encoded); err != nil {
			return nil, err
		}
		var rec model.FlatRecord
		if err := json.Unmarshal(encoded, &rec); err != nil {
			return nil, fmt.Errorf("decode flat record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FlatSchemaVersions returns the distinct schema versions present in a
// player's cached records. Used to detect stale caches after a schema bump.
func (db *DB) FlatSchemaVersions(puuid string) ([]int, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT schema_version FROM flat_records WHERE puuid = ?`, puuid)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CountFlatRecords returns how many flattened records are cached per player.
func (db *DB) CountFlatRecords(puuid string) (int, error) {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(1) FROM flat_records WHERE puuid = ?`, puuid).Scan(&count)
	return count, err
}
