package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
)

// PostgresRepository implements upload storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, upload *models.Upload) (*models.Upload, error) {
	query := `
		INSERT INTO uploads (id, user_id, space_id, type, status, file_url, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		upload.ID, upload.UserID, upload.SpaceID, upload.Type, upload.Status,
		upload.FileURL, upload.Size).Scan(&upload.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return upload, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.Upload, error) {
	upload := &models.Upload{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&upload.ID, &upload.UserID, &upload.SpaceID, &upload.Type, &upload.Status,
		&upload.FileURL, &upload.Size, &upload.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return upload, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	query := `
		SELECT id, user_id, space_id, type, status, file_url, size, created_at FROM uploads
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Upload, error) {
	query := `
		SELECT id, user_id, space_id, type, status, file_url, size, created_at FROM uploads
		WHERE id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) setStatus(ctx context.Context, query string, args ...any) (*models.Upload, error) {
	upload := &models.Upload{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&upload.ID, &upload.UserID, &upload.SpaceID, &upload.Type, &upload.Status,
		&upload.FileURL, &upload.Size, &upload.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return upload, nil
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string, url string, size int64) (*models.Upload, error) {
	query := `
		UPDATE uploads SET status = 'COMPLETED', file_url = $2, size = $3
		WHERE id = $1
		RETURNING id, user_id, space_id, type, status, file_url, size, created_at
	`
	return r.setStatus(ctx, query, id, url, size)
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id string) (*models.Upload, error) {
	query := `
		UPDATE uploads SET status = 'FAILED'
		WHERE id = $1
		RETURNING id, user_id, space_id, type, status, file_url, size, created_at
	`
	return r.setStatus(ctx, query, id)
}

func (r *PostgresRepository) ListPendingSince(ctx context.Context, userID string, since time.Time) ([]*models.Upload, error) {
	query := `
		SELECT id, user_id, space_id, type, status, file_url, size, created_at FROM uploads
		WHERE user_id = $1 AND status = 'PENDING' AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to select uploads: %w", err)
	}
	defer rows.Close()

	var result []*models.Upload
	for rows.Next() {
		var item models.Upload
		if err := rows.Scan(&item.ID, &item.UserID, &item.SpaceID, &item.Type, &item.Status,
			&item.FileURL, &item.Size, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
