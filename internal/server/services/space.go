package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/repomanager"
	"github.com/spacebox-app/spacebox/internal/slugx"
)

type SpaceService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewSpaceService(db *sql.DB, rm repomanager.RepositoryManager) *SpaceService {
	return &SpaceService{db: db, rm: rm}
}

// Create makes a new space owned by userID. The slug is derived from the
// name and must be globally unique.
func (s *SpaceService) Create(ctx context.Context, userID string, name string, visibility models.Visibility) (*models.Space, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: space name cannot be empty", common.ErrValidation)
	}
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, visibility)
	}

	repo := s.rm.Spaces(s.db)

	slug := slugx.Make(name)
	taken, err := repo.SlugExists(ctx, slug, "")
	if err != nil {
		return nil, fmt.Errorf("error checking slug: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: space with this name already exists", common.ErrValidation)
	}

	space := &models.Space{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Slug:       slug,
		Visibility: visibility,
	}

	space, err = repo.Create(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("error creating space: %w", err)
	}

	return space, nil
}

// RequireOwned is the ownership guard: it loads the space and verifies the
// acting user owns it. Every mutation targeting a space must pass through
// here before any storage or database side effect.
func (s *SpaceService) RequireOwned(ctx context.Context, spaceID string, userID string) (*models.Space, error) {
	space, err := s.rm.Spaces(s.db).GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if space.UserID != userID {
		return nil, common.ErrUnauthorized
	}
	return space, nil
}

// Get returns the space with its contents, ownership-checked.
func (s *SpaceService) Get(ctx context.Context, spaceID string, userID string) (*models.Space, error) {
	space, err := s.RequireOwned(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.rm.Contents(s.db).ListBySpace(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing contents: %w", err)
	}
	space.Contents = items

	return space, nil
}

// ListByUser returns the user's own spaces, newest first.
func (s *SpaceService) ListByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	return s.rm.Spaces(s.db).ListByUser(ctx, userID)
}

// GetBySlug resolves a share link. PRIVATE spaces resolve only for their
// owner; everyone else gets not-found, so private slugs do not leak.
func (s *SpaceService) GetBySlug(ctx context.Context, slug string, viewerID string) (*models.Space, error) {
	space, err := s.rm.Spaces(s.db).GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if space.Visibility != models.VisibilityPublic && space.UserID != viewerID {
		return nil, common.ErrNotFound
	}

	items, err := s.rm.Contents(s.db).ListBySpace(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing contents: %w", err)
	}
	space.Contents = items

	return space, nil
}

// Update renames a space and/or changes its visibility. Renaming
// regenerates the slug and re-checks uniqueness against all other spaces.
func (s *SpaceService) Update(ctx context.Context, spaceID string, userID string, name string, visibility models.Visibility) (*models.Space, error) {
	space, err := s.RequireOwned(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}

	repo := s.rm.Spaces(s.db)

	if name = strings.TrimSpace(name); name != "" {
		slug := slugx.Make(name)
		taken, err := repo.SlugExists(ctx, slug, space.ID)
		if err != nil {
			return nil, fmt.Errorf("error checking slug: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: the name is already taken", common.ErrValidation)
		}
		space.Name = name
		space.Slug = slug
	}

	if visibility != "" {
		if !visibility.Valid() {
			return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, visibility)
		}
		space.Visibility = visibility
	}

	space, err = repo.Update(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("error updating space: %w", err)
	}

	return space, nil
}

// Delete removes the space and all its content in one transaction.
// Upload records survive (the FK nulls their space) as an audit trail.
func (s *SpaceService) Delete(ctx context.Context, spaceID string, userID string) error {
	if _, err := s.RequireOwned(ctx, spaceID, userID); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Contents(tx).DeleteBySpace(ctx, spaceID); err != nil {
			return err
		}
		return s.rm.Spaces(tx).Delete(ctx, spaceID)
	})
	if err != nil {
		return fmt.Errorf("error deleting space: %w", err)
	}

	return nil
}
