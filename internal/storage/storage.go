// Package storage is the on-disk cache behind the pipeline: player
// profiles, per-player match-id lists, flattened records and compressed raw
// payloads, all in one SQLite file.
package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a sql.DB for the feature cache.
type DB struct {
	conn *sql.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; a second pooled connection would also see a
	// separate database entirely when path is ":memory:".
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &DB{conn: conn, enc: enc, dec: dec}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	db.enc.Close()
	db.dec.Close()
	return db.conn.Close()
}
