package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, slug, private_token, is_complete)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Slug, user.PrivateToken, user.IsComplete).Scan(&user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Slug, &user.PrivateToken, &user.IsComplete, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, slug, private_token, is_complete, created_at FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT id, name, slug, private_token, is_complete, created_at FROM users
		WHERE private_token = $1
	`
	return r.getOne(ctx, query, token)
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	query := `
		SELECT id, name, slug, private_token, is_complete, created_at FROM users
		WHERE slug = $1
	`
	return r.getOne(ctx, query, slug)
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users SET name = $2, slug = $3, is_complete = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Slug, user.IsComplete)
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

	return user, nil
}

func (r *PostgresRepository) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE slug = $1 AND id <> $2)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}
