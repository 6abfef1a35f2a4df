// Package persistence provides SQLite-based storage for the state that
// survives across ticks: per-zone records, the event log and metadata.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/zone-brain/internal/engine"
)

// DB wraps a SQLite connection for zone state persistence.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pragmas: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.enc.Close()
	db.dec.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS zone_records (
		zone TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_tick INTEGER NOT NULL,
		updated_tick INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		zone TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_zone ON events(zone);
	`
	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) encode(r *engine.ZoneRecord) ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return db.enc.EncodeAll(raw, nil), nil
}

func (db *DB) decode(blob []byte) (*engine.ZoneRecord, error) {
	raw, err := db.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress record: %w", err)
	}
	var r engine.ZoneRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	r.Init()
	return &r, nil
}

// LoadRecord returns a zone's stored record. ok is false if none is stored.
func (db *DB) LoadRecord(zone string) (*engine.ZoneRecord, bool, error) {
	var blob []byte
	err := db.conn.Get(&blob, "SELECT data FROM zone_records WHERE zone = ?", zone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r, err := db.decode(blob)
	if err != nil {
		return nil, false, fmt.Errorf("zone %s: %w", zone, err)
	}
	return r, true, nil
}

// Record implements engine.RecordStore: it loads the zone's record, or
// creates and stores an initialized one. Calling it again returns the
// stored record unchanged.
func (db *DB) Record(zone string, tick uint64) (*engine.ZoneRecord, error) {
	r, ok, err := db.LoadRecord(zone)
	if err != nil {
		return nil, err
	}
	if ok {
		return r, nil
	}

	r = engine.NewZoneRecord(zone, tick)
	blob, err := db.encode(r)
	if err != nil {
		return nil, err
	}
	if _, err := db.conn.Exec(
		"INSERT OR IGNORE INTO zone_records (zone, data, created_tick, updated_tick) VALUES (?, ?, ?, ?)",
		zone, blob, r.CreatedTick, r.UpdatedTick,
	); err != nil {
		return nil, fmt.Errorf("create record %s: %w", zone, err)
	}
	slog.Info("zone record created", "zone", zone, "tick", tick)
	return r, nil
}

// SaveRecords writes zone records (upsert).
func (db *DB) SaveRecords(records []*engine.ZoneRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO zone_records (zone, data, created_tick, updated_tick)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(zone) DO UPDATE SET data = excluded.data, updated_tick = excluded.updated_tick`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		blob, err := db.encode(r)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", r.Zone, err)
		}
		if _, err := stmt.Exec(r.Zone, blob, r.CreatedTick, r.UpdatedTick); err != nil {
			return fmt.Errorf("save record %s: %w", r.Zone, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(
			"INSERT INTO events (tick, zone, description, category) VALUES (:tick, :zone, :description, :category)",
			e,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveWorldState saves every zone record, drains pending events and
// stores the last tick.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	records := sim.Records()
	events := sim.DrainEvents()
	slog.Info("saving zone state", "zones", len(records), "events", len(events))

	if err := db.SaveRecords(records); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	if err := db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.CurrentTick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("zone state saved")
	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, zone, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
