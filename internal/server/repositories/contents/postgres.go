package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
)

// PostgresRepository implements content storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, content *models.Content) (*models.Content, error) {
	query := `
		INSERT INTO contents (id, space_id, upload_id, type, url, body, size, visibility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		content.ID, content.SpaceID, content.UploadID, content.Type,
		content.URL, content.Text, content.Size, content.Visibility).Scan(&content.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return content, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Content, error) {
	content := &models.Content{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&content.ID, &content.SpaceID, &content.UploadID, &content.Type,
		&content.URL, &content.Text, &content.Size, &content.Visibility, &content.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return content, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `
		SELECT id, space_id, upload_id, type, url, body, size, visibility, created_at FROM contents
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByUploadID(ctx context.Context, uploadID string) (*models.Content, error) {
	query := `
		SELECT id, space_id, upload_id, type, url, body, size, visibility, created_at FROM contents
		WHERE upload_id = $1
	`
	return r.getOne(ctx, query, uploadID)
}

func (r *PostgresRepository) ListBySpace(ctx context.Context, spaceID string) ([]*models.Content, error) {
	query := `
		SELECT id, space_id, upload_id, type, url, body, size, visibility, created_at FROM contents
		WHERE space_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contents: %w", err)
	}
	defer rows.Close()

	var result []*models.Content
	for rows.Next() {
		var item models.Content
		if err := rows.Scan(&item.ID, &item.SpaceID, &item.UploadID, &item.Type,
			&item.URL, &item.Text, &item.Size, &item.Visibility, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE id = $1`, id)
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

func (r *PostgresRepository) DeleteBySpace(ctx context.Context, spaceID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contents WHERE space_id = $1`, spaceID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
