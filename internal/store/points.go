package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecoleta/ecoleta/internal/db"
	"github.com/ecoleta/ecoleta/internal/model"
)

const pointColumns = `points.point_id, points.image, points.name, points.email, points.whatsapp,
        points.latitude, points.longitude, points.city, points.state`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoint(row rowScanner) (model.Point, error) {
	var p model.Point
	var lat, lon sql.NullFloat64
	var city, state sql.NullString
	err := row.Scan(&p.ID, &p.Image, &p.Name, &p.Email, &p.WhatsApp, &lat, &lon, &city, &state)
	p.Latitude = lat.Float64
	p.Longitude = lon.Float64
	p.City = city.String
	p.State = state.String
	return p, err
}

// PointWhere builds the predicate for a point listing. It starts from "match
// all" and narrows once per supplied filter.
func PointWhere(f model.PointFilter) Where {
	w := Where{}
	if f.ItemIDs != nil {
		w = w.In("point_items.item_id", f.ItemIDs)
	}
	if f.City != "" {
		w = w.Eq("points.city", f.City)
	}
	if f.State != "" {
		w = w.Eq("points.state", f.State)
	}
	return w
}

// ListPoints returns the distinct points linked to at least one item that
// match every filter in f, ordered by id.
func ListPoints(ctx context.Context, conn *db.DB, f model.PointFilter) ([]model.Point, error) {
	where, args := PointWhere(f).SQL()
	query := `SELECT DISTINCT ` + pointColumns + `
		 FROM points
		 JOIN point_items ON point_items.point_id = points.point_id
		 WHERE ` + where + `
		 ORDER BY points.point_id`

	rows, err := conn.QueryContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing points: %w", err)
	}
	defer rows.Close()

	var points []model.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// ListAllPoints returns every point, including those without items.
func ListAllPoints(ctx context.Context, conn *db.DB) ([]model.Point, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT `+pointColumns+` FROM points ORDER BY points.point_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing all points: %w", err)
	}
	defer rows.Close()

	var points []model.Point
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetPoint returns a point and the titles of its items, or nil if no point
// has the given id.
func GetPoint(ctx context.Context, conn *db.DB, id int64) (*model.PointDetail, error) {
	p, err := scanPoint(conn.QueryRowContext(ctx,
		conn.Rebind(`SELECT `+pointColumns+` FROM points WHERE points.point_id = ?`), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting point: %w", err)
	}

	rows, err := conn.QueryContext(ctx,
		conn.Rebind(`SELECT items.title
		 FROM items
		 JOIN point_items ON point_items.item_id = items.item_id
		 WHERE point_items.point_id = ?
		 ORDER BY items.item_id`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting point items: %w", err)
	}
	defer rows.Close()

	detail := &model.PointDetail{Point: p, Items: []model.ItemTitle{}}
	for rows.Next() {
		var it model.ItemTitle
		if err := rows.Scan(&it.Title); err != nil {
			return nil, fmt.Errorf("scanning point item: %w", err)
		}
		detail.Items = append(detail.Items, it)
	}
	return detail, rows.Err()
}

// CreatePoint inserts a point and one point_items row per item id in a single
// transaction. Either every row persists or none do.
func CreatePoint(ctx context.Context, conn *db.DB, np model.NewPoint) (*model.Point, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p := model.Point{
		Image:     np.Image,
		Name:      np.Name,
		Email:     np.Email,
		WhatsApp:  np.WhatsApp,
		Latitude:  np.Latitude,
		Longitude: np.Longitude,
		City:      np.City,
		State:     np.State,
	}

	err = tx.QueryRowContext(ctx,
		conn.Rebind(`INSERT INTO points (image, name, email, whatsapp, latitude, longitude, city, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING point_id`),
		p.Image, p.Name, p.Email, p.WhatsApp, p.Latitude, p.Longitude, p.City, p.State,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("creating point: %w", err)
	}

	link := conn.Rebind(`INSERT INTO point_items (point_id, item_id) VALUES (?, ?)`)
	for _, itemID := range np.ItemIDs {
		if _, err := tx.ExecContext(ctx, link, p.ID, itemID); err != nil {
			return nil, fmt.Errorf("linking item %d to point: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing point creation: %w", err)
	}
	return &p, nil
}

// DeletePoint removes a point and its item links. It returns the deleted point,
// or nil when no point had the given id.
func DeletePoint(ctx context.Context, conn *db.DB, id int64) (*model.Point, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := scanPoint(tx.QueryRowContext(ctx,
		conn.Rebind(`SELECT `+pointColumns+` FROM points WHERE points.point_id = ?`), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting point: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		conn.Rebind(`DELETE FROM point_items WHERE point_id = ?`), id,
	); err != nil {
		return nil, fmt.Errorf("deleting point items: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		conn.Rebind(`DELETE FROM points WHERE point_id = ?`), id,
	)
	if err != nil {
		return nil, fmt.Errorf("deleting point: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("counting deleted points: %w", err)
	}
	if n != 1 {
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing point deletion: %w", err)
	}
	return &p, nil
}
