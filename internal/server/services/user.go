// Package services implements the application core: pseudo-user identity,
// spaces, the upload intent lifecycle, and content materialization.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/repomanager"
	"github.com/spacebox-app/spacebox/internal/slugx"
)

// privateTokenBytes is the entropy of the capability credential; the token
// itself is twice as many hex characters.
const privateTokenBytes = 16

type UserService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, rm: rm}
}

// CreatePseudoUser performs the first-visit pseudo-signup: a user row with a
// throwaway slug, a fresh private token, and is_complete=false. The caller
// gets the token back exactly once; it authenticates every later call.
func (s *UserService) CreatePseudoUser(ctx context.Context) (*models.User, error) {
	slug, err := slugx.MakeTemp("guest")
	if err != nil {
		return nil, fmt.Errorf("error generating slug: %w", err)
	}

	token, err := common.MakeRandHexString(privateTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         "",
		Slug:         slug,
		PrivateToken: token,
		IsComplete:   false,
	}

	user, err = s.rm.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// UpdateUser confirms or changes the display name. The slug is regenerated
// from the new name and must stay globally unique.
func (s *UserService) UpdateUser(ctx context.Context, userID string, name string) (*models.User, error) {
	if err := slugx.ValidateName(name); err != nil {
		return nil, err
	}
	clean := strings.TrimSpace(name)

	repo := s.rm.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	slug := slugx.Make(clean)

	taken, err := repo.SlugExists(ctx, slug, userID)
	if err != nil {
		return nil, fmt.Errorf("error checking slug: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: this name is already taken", common.ErrValidation)
	}

	user.Name = clean
	user.Slug = slug
	user.IsComplete = true

	user, err = repo.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	return user, nil
}

// GetUser returns the user record; the caller decides whether to expose the
// private token (only to the user themselves).
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, userID)
}

// Authenticate resolves an opaque bearer token to its user.
// An unknown token is an authorization failure, not a missing resource.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.rm.Users(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("error authenticating: %w", err)
	}

	return user, nil
}

// PublicProfile is the unauthenticated view of a user: only spaces flagged
// PUBLIC, with their contents.
type PublicProfile struct {
	Name   string
	Slug   string
	Spaces []*models.Space
}

// GetPublicProfile returns the public view of the user behind slug.
// PRIVATE spaces and their contents are never included.
func (s *UserService) GetPublicProfile(ctx context.Context, slug string) (*PublicProfile, error) {
	user, err := s.rm.Users(s.db).GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	spaces, err := s.rm.Spaces(s.db).ListPublicByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing spaces: %w", err)
	}

	contentRepo := s.rm.Contents(s.db)
	for _, sp := range spaces {
		items, err := contentRepo.ListBySpace(ctx, sp.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing contents: %w", err)
		}
		sp.Contents = items
	}

	return &PublicProfile{Name: user.Name, Slug: user.Slug, Spaces: spaces}, nil
}

// GetUserSpaces lists all spaces of the user, newest first.
func (s *UserService) GetUserSpaces(ctx context.Context, userID string) ([]*models.Space, error) {
	return s.rm.Spaces(s.db).ListByUser(ctx, userID)
}
