package spaces

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
)

// PostgresRepository implements space storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, space *models.Space) (*models.Space, error) {
	query := `
		INSERT INTO spaces (id, user_id, name, slug, visibility)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		space.ID, space.UserID, space.Name, space.Slug, space.Visibility).Scan(&space.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return space, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Space, error) {
	space := &models.Space{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&space.ID, &space.UserID, &space.Name, &space.Slug, &space.Visibility, &space.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return space, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Space, error) {
	query := `
		SELECT id, user_id, name, slug, visibility, created_at FROM spaces
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Space, error) {
	query := `
		SELECT id, user_id, name, slug, visibility, created_at FROM spaces
		WHERE slug = $1
	`
	return r.getOne(ctx, query, slug)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Space, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select spaces: %w", err)
	}
	defer rows.Close()

	var result []*models.Space
	for rows.Next() {
		var item models.Space
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Slug, &item.Visibility, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	query := `
		SELECT id, user_id, name, slug, visibility, created_at FROM spaces
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListPublicByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	query := `
		SELECT id, user_id, name, slug, visibility, created_at FROM spaces
		WHERE user_id = $1 AND visibility = 'PUBLIC'
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) Update(ctx context.Context, space *models.Space) (*models.Space, error) {
	query := `
		UPDATE spaces SET name = $2, slug = $3, visibility = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, space.ID, space.Name, space.Slug, space.Visibility)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrNotFound
	}

	return space, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
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

func (r *PostgresRepository) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM spaces WHERE slug = $1 AND id <> $2)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}
