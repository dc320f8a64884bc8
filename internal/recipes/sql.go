package recipes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipebox/internal/common"
	"recipebox/internal/dbx"
	"recipebox/internal/form"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// The SQL sticks to the dialect both PostgreSQL and SQLite accept, so the
// same repository runs against pgx in production and an in-memory database
// in tests.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository returns a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func marshalLists(r *Recipe) (ingredients, instructions []byte, err error) {
	ingredients, err = json.Marshal(r.Ingredients)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal ingredients: %w", err)
	}
	instructions, err = json.Marshal(r.Instructions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal instructions: %w", err)
	}
	return ingredients, instructions, nil
}

// Insert adds a new recipe row.
func (r *SQLRepository) Insert(ctx context.Context, rec *Recipe) error {
	ingredients, instructions, err := marshalLists(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO recipes (id, user_id, title, description, main_image, category_id, ingredients, instructions, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Title, rec.Description, rec.MainImage, rec.CategoryID,
		ingredients, instructions, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}
	return nil
}

// Update rewrites the editable columns of an existing row. The owning
// user_id is never changed. Returns common.ErrNotFound for an unknown id.
func (r *SQLRepository) Update(ctx context.Context, rec *Recipe) error {
	ingredients, instructions, err := marshalLists(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE recipes
		SET title = $2, description = $3, main_image = $4, category_id = $5,
			ingredients = $6, instructions = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Description, rec.MainImage, rec.CategoryID,
		ingredients, instructions, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetByID loads one recipe. Returns common.ErrNotFound for an unknown id.
func (r *SQLRepository) GetByID(ctx context.Context, id string) (*Recipe, error) {
	query := `
		SELECT id, user_id, title, description, main_image, category_id, ingredients, instructions, views, created_at, updated_at
		FROM recipes WHERE id = $1
	`
	rec := &Recipe{}
	var ingredients, instructions []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.MainImage, &rec.CategoryID,
		&ingredients, &instructions, &rec.Views, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select recipe: %w", err)
	}

	if err := json.Unmarshal(ingredients, &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("unmarshal ingredients: %w", err)
	}
	if err := json.Unmarshal(instructions, &rec.Instructions); err != nil {
		return nil, fmt.Errorf("unmarshal instructions: %w", err)
	}
	if rec.Ingredients == nil {
		rec.Ingredients = []form.Ingredient{}
	}
	if rec.Instructions == nil {
		rec.Instructions = []form.Instruction{}
	}

	return rec, nil
}

// DeleteByID removes the row together with its ratings and favorites.
// Returns common.ErrNotFound for an unknown id.
func (r *SQLRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete ratings: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// List returns summaries for the requested feed, newest first.
func (r *SQLRepository) List(ctx context.Context, f ListFilter) ([]*Summary, error) {
	base := `
		SELECT r.id, r.user_id, r.title, r.main_image, r.category_id,
			(SELECT AVG(CAST(rating AS REAL)) FROM ratings WHERE recipe_id = r.id) AS average_rating
		FROM recipes r
	`

	var conds []string
	var args []any
	switch f.Mode {
	case ListSearch:
		conds = append(conds, `LOWER(r.title) LIKE LOWER($1)`)
		args = append(args, "%"+f.Search+"%")
	case ListCreated:
		conds = append(conds, `r.user_id = $1`)
		args = append(args, f.UserID)
	case ListFavorited:
		conds = append(conds, `r.id IN (SELECT recipe_id FROM favorites WHERE user_id = $1)`)
		args = append(args, f.UserID)
	}
	if f.CategoryID != nil {
		conds = append(conds, fmt.Sprintf(`r.category_id = $%d`, len(args)+1))
		args = append(args, *f.CategoryID)
	}

	query := base
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	rows, err := r.db.QueryContext(ctx, query+` ORDER BY r.created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipes: %w", err)
	}
	defer rows.Close()

	var result []*Summary
	for rows.Next() {
		s := &Summary{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.MainImage, &s.CategoryID, &s.AverageRating); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// SetRating upserts the user's 1..5 rating for a recipe.
func (r *SQLRepository) SetRating(ctx context.Context, userID, recipeID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", common.ErrValidation)
	}

	query := `
		INSERT INTO ratings (recipe_id, user_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (recipe_id, user_id) DO UPDATE SET rating = excluded.rating
	`
	if _, err := r.db.ExecContext(ctx, query, recipeID, userID, rating); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// ToggleFavorite flips the user's favorite mark and reports the new state.
func (r *SQLRepository) ToggleFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE recipe_id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (recipe_id, user_id) VALUES ($1, $2)`, recipeID, userID); err != nil {
		return false, fmt.Errorf("failed to insert favorite: %w", err)
	}
	return true, nil
}

// IncrementViews bumps the view counter.
func (r *SQLRepository) IncrementViews(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET views = views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}
