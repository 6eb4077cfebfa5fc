package uploads

import (
	"context"
	"time"

	"github.com/spacebox-app/spacebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, upload *models.Upload) (*models.Upload, error)
	GetByID(ctx context.Context, id string) (*models.Upload, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction. Used by finalize to serialize concurrent completions.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Upload, error)
	// MarkCompleted transitions PENDING -> COMPLETED, recording url and size.
	MarkCompleted(ctx context.Context, id string, url string, size int64) (*models.Upload, error)
	// MarkFailed transitions PENDING -> FAILED.
	MarkFailed(ctx context.Context, id string) (*models.Upload, error)
	// ListPendingSince returns PENDING uploads of the user created after the
	// given instant, newest first.
	ListPendingSince(ctx context.Context, userID string, since time.Time) ([]*models.Upload, error)
}
