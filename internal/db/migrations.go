package db

import (
	"context"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid in every dialect. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: drop join rows left behind by point deletions that predate
	// the cascading foreign key.
	`DELETE FROM point_items WHERE point_id NOT IN (SELECT point_id FROM points)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

// DefaultItems is the catalog of recyclable categories every installation starts with.
var DefaultItems = []struct {
	Title string
	Image string
}{
	{"Lâmpadas", "lampadas.svg"},
	{"Pilhas e Baterias", "baterias.svg"},
	{"Papéis e Papelão", "papeis-papelao.svg"},
	{"Resíduos Eletrônicos", "eletronicos.svg"},
	{"Resíduos Orgânicos", "organicos.svg"},
	{"Óleo de Cozinha", "oleo.svg"},
}

// SeedItems inserts DefaultItems when the items table is empty. It returns the
// number of rows inserted.
func SeedItems(ctx context.Context, db *DB) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	insert := db.Rebind(`INSERT INTO items (title, image) VALUES (?, ?)`)
	for _, it := range DefaultItems {
		if _, err := tx.ExecContext(ctx, insert, it.Title, it.Image); err != nil {
			return 0, fmt.Errorf("seeding item %q: %w", it.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}
	return len(DefaultItems), nil
}
