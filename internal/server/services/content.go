package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/repomanager"
)

// ContentService materializes durable content records. It is the only
// place where a Content row comes into existence, always backed by a
// COMPLETED upload.
type ContentService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	spaces *SpaceService
}

func NewContentService(db *sql.DB, rm repomanager.RepositoryManager, spaces *SpaceService) *ContentService {
	return &ContentService{db: db, rm: rm, spaces: spaces}
}

// CreateFromUpload converts a completed upload into visible content.
// An upload that is still PENDING or already FAILED is refused.
func (s *ContentService) CreateFromUpload(ctx context.Context, uploadID string, spaceID string, visibility models.Visibility, text string) (*models.Content, error) {
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, visibility)
	}

	upload, err := s.rm.Uploads(s.db).GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	if upload.Status != models.UploadStatusCompleted {
		return nil, fmt.Errorf("%w: upload not completed yet", common.ErrInvalidState)
	}

	content, err := s.rm.Contents(s.db).Create(ctx, newContentFromUpload(upload, spaceID, visibility, text))
	if err != nil {
		return nil, fmt.Errorf("error creating content: %w", err)
	}

	return content, nil
}

// DirectContentArgs carries the synchronous-bypass request: the caller
// already holds a final URL/size (or plain note text) and wants content
// without the two-phase open/finalize dance.
type DirectContentArgs struct {
	UserID     string
	SpaceID    string
	Type       models.ContentType
	URL        string
	Text       string
	Size       int64
	Visibility models.Visibility
}

// CreateDirect creates an Upload already marked COMPLETED together with its
// Content in one transaction, honoring the invariant that every content row
// has a backing upload.
func (s *ContentService) CreateDirect(ctx context.Context, args DirectContentArgs) (*models.Content, error) {
	if !args.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrValidation, args.Type)
	}
	if !args.Visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, args.Visibility)
	}

	if _, err := s.spaces.RequireOwned(ctx, args.SpaceID, args.UserID); err != nil {
		return nil, err
	}

	size := args.Size
	if args.Type == models.ContentTypeNote {
		args.URL = ""
		if size == 0 {
			size = int64(len(args.Text))
		}
	}

	var content *models.Content

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		upload := &models.Upload{
			ID:      uuid.NewString(),
			UserID:  args.UserID,
			SpaceID: sql.NullString{String: args.SpaceID, Valid: true},
			Type:    args.Type,
			Status:  models.UploadStatusCompleted,
			FileURL: args.URL,
			Size:    size,
		}

		upload, err := s.rm.Uploads(tx).Create(ctx, upload)
		if err != nil {
			return err
		}

		content, err = s.rm.Contents(tx).Create(ctx, newContentFromUpload(upload, args.SpaceID, args.Visibility, args.Text))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error creating content: %w", err)
	}

	return content, nil
}

// ListBySpace returns the contents of a space, newest first.
func (s *ContentService) ListBySpace(ctx context.Context, spaceID string) ([]*models.Content, error) {
	return s.rm.Contents(s.db).ListBySpace(ctx, spaceID)
}

// Delete removes a content row. The backing upload record stays as an
// audit trail, and the storage object is not touched.
func (s *ContentService) Delete(ctx context.Context, contentID string) error {
	return s.rm.Contents(s.db).Delete(ctx, contentID)
}
