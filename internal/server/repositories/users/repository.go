package users

import (
	"context"

	"github.com/spacebox-app/spacebox/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByToken(ctx context.Context, token string) (*models.User, error)
	GetBySlug(ctx context.Context, slug string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
}
