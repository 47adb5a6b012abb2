package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"messmate/internal/meal"
	"messmate/internal/store"
)

// Repository persists the catalogue and weekly menu in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Rows returns every slot and item of day, or of the whole week when day is empty.
func (r *Repository) Rows(ctx context.Context, day string) ([]Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT wm.day_of_week, wm.meal_id, wm.menu_id, f.food_id, f.name, f.price, COALESCE(f.image_url, '')
		FROM weekly_menu wm
		LEFT JOIN menu_items mi ON mi.menu_id = wm.menu_id
		LEFT JOIN food_items f ON f.food_id = mi.food_id
		WHERE $1::text = '' OR wm.day_of_week = $1::text
		ORDER BY wm.day_of_week, wm.meal_id, f.name
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Row
	for rows.Next() {
		var (
			row      Row
			mid      int
			foodID   sql.NullInt64
			name     sql.NullString
			price    sql.NullInt64
			imageURL string
		)
		if err := rows.Scan(&row.Day, &mid, &row.MenuID, &foodID, &name, &price, &imageURL); err != nil {
			return nil, err
		}
		row.Meal = meal.Kind(mid - 1)
		if !row.Meal.Valid() {
			return nil, fmt.Errorf("unknown meal_id %d", mid)
		}
		if foodID.Valid {
			row.Item = &Item{FoodID: foodID.Int64, Name: name.String, Price: price.Int64, ImageURL: imageURL}
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// Foods returns the whole catalogue ordered by name.
func (r *Repository) Foods(ctx context.Context) ([]Food, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT food_id, name, price, COALESCE(image_url, '') FROM food_items ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Food
	for rows.Next() {
		var f Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.ImageURL); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

// AddFood inserts a catalogue entry.
func (r *Repository) AddFood(ctx context.Context, f Food) (Food, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO food_items (name, price, image_url)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING food_id
	`, f.Name, f.Price, f.ImageURL).Scan(&f.ID)
	if err != nil {
		return Food{}, err
	}
	return f, nil
}

// ReplaceItems sets the foods of one slot. Unknown food ids are skipped; the
// number of stored items is returned.
func (r *Repository) ReplaceItems(ctx context.Context, menuID int64, foodIDs []int64) (int, error) {
	var stored int
	err := store.RunInTx(ctx, r.db, func(ctx context.Context, tx store.DBTX) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM weekly_menu WHERE menu_id = $1)
		`, menuID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE menu_id = $1`, menuID); err != nil {
			return fmt.Errorf("clear menu items: %w", err)
		}
		if len(foodIDs) == 0 {
			return nil
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items (menu_id, food_id)
			SELECT $1, food_id FROM food_items WHERE food_id = ANY($2)
			ON CONFLICT DO NOTHING
		`, menuID, foodIDs)
		if err != nil {
			return fmt.Errorf("insert menu items: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		stored = int(n)
		return nil
	})
	return stored, err
}

// MealTotal sums the prices of the foods served for k on day.
func (r *Repository) MealTotal(ctx context.Context, day string, k meal.Kind) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(f.price), 0)::bigint
		FROM weekly_menu wm
		JOIN menu_items mi ON mi.menu_id = wm.menu_id
		JOIN food_items f ON f.food_id = mi.food_id
		WHERE wm.day_of_week = $1 AND wm.meal_id = $2
	`, day, mealID(k)).Scan(&total)
	return total, err
}

// SetFoodImage stores the uploaded image url of a food.
func (r *Repository) SetFoodImage(ctx context.Context, foodID int64, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE food_items SET image_url = $2 WHERE food_id = $1`, foodID, url)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Food returns one catalogue entry.
func (r *Repository) Food(ctx context.Context, foodID int64) (Food, error) {
	var f Food
	err := r.db.QueryRowContext(ctx, `
		SELECT food_id, name, price, COALESCE(image_url, '') FROM food_items WHERE food_id = $1
	`, foodID).Scan(&f.ID, &f.Name, &f.Price, &f.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return Food{}, ErrNotFound
	}
	return f, err
}
