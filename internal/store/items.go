package store

import (
	"context"
	"fmt"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/model"
)

// ListItems returns every item ordered by id.
func ListItems(ctx context.Context, conn *db.DB) ([]model.Item, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT item_id, title, image FROM items ORDER BY item_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Image); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CreateItem adds an item to the catalog.
func CreateItem(ctx context.Context, conn *db.DB, title, image string) (*model.Item, error) {
	item := &model.Item{Title: title, Image: image}
	err := conn.QueryRowContext(ctx,
		conn.Rebind(`INSERT INTO items (title, image) VALUES (?, ?) RETURNING item_id`),
		title, image,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	return item, nil
}
