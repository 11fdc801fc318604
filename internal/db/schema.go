package db

import (
	"fmt"
)

// sqliteSchema is the full SQLite database schema.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    item_id INTEGER PRIMARY KEY,
    title   TEXT NOT NULL,
    image   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS points (
    point_id  INTEGER PRIMARY KEY,
    image     TEXT NOT NULL,
    name      TEXT NOT NULL,
    email     TEXT NOT NULL,
    whatsapp  TEXT NOT NULL,
    latitude  REAL,
    longitude REAL,
    city      TEXT,
    state     TEXT
);

CREATE TABLE IF NOT EXISTS point_items (
    point_id INTEGER NOT NULL REFERENCES points(point_id) ON DELETE CASCADE,
    item_id  INTEGER NOT NULL REFERENCES items(item_id),
    PRIMARY KEY (point_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_point_items_item_id ON point_items(item_id);
CREATE INDEX IF NOT EXISTS idx_points_state_city ON points(state, city);
`

// postgresSchema is the same schema in PostgreSQL syntax.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS items (
    item_id BIGSERIAL PRIMARY KEY,
    title   TEXT NOT NULL,
    image   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS points (
    point_id  BIGSERIAL PRIMARY KEY,
    image     TEXT NOT NULL,
    name      TEXT NOT NULL,
    email     TEXT NOT NULL,
    whatsapp  TEXT NOT NULL,
    latitude  DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    city      TEXT,
    state     TEXT
);

CREATE TABLE IF NOT EXISTS point_items (
    point_id BIGINT NOT NULL REFERENCES points(point_id) ON DELETE CASCADE,
    item_id  BIGINT NOT NULL REFERENCES items(item_id),
    PRIMARY KEY (point_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_point_items_item_id ON point_items(item_id);
CREATE INDEX IF NOT EXISTS idx_points_state_city ON points(state, city);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *DB) error {
	schema := sqliteSchema
	if db.Dialect == Postgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
