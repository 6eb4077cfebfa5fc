package contents

import (
	"context"

	"github.com/spacebox-app/spacebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, content *models.Content) (*models.Content, error)
	GetByID(ctx context.Context, id string) (*models.Content, error)
	GetByUploadID(ctx context.Context, uploadID string) (*models.Content, error)
	ListBySpace(ctx context.Context, spaceID string) ([]*models.Content, error)
	Delete(ctx context.Context, id string) error
	// DeleteBySpace removes all content of a space; used by space deletion
	// inside its transaction.
	DeleteBySpace(ctx context.Context, spaceID string) error
}
