package spaces

import (
	"context"

	"github.com/spacebox-app/spacebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, space *models.Space) (*models.Space, error)
	GetByID(ctx context.Context, id string) (*models.Space, error)
	GetBySlug(ctx context.Context, slug string) (*models.Space, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Space, error)
	// ListPublicByUser returns only spaces flagged PUBLIC, for the public
	// profile read path.
	ListPublicByUser(ctx context.Context, userID string) ([]*models.Space, error)
	Update(ctx context.Context, space *models.Space) (*models.Space, error)
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
}
