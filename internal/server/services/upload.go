package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/logging"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/repomanager"
	"github.com/spacebox-app/spacebox/internal/server/storage"
)

// pendingWindow bounds how long an abandoned PENDING intent stays visible
// to its owner via ListPending.
const pendingWindow = 24 * time.Hour

// UploadService owns the upload intent state machine and the
// storage-first, database-second write pipeline with compensation.
type UploadService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	blobs  storage.BlobStore
	spaces *SpaceService
	logger logging.Logger
}

func NewUploadService(db *sql.DB, rm repomanager.RepositoryManager, blobs storage.BlobStore, spaces *SpaceService, logger logging.Logger) *UploadService {
	return &UploadService{
		db:     db,
		rm:     rm,
		blobs:  blobs,
		spaces: spaces,
		logger: logger.With("module", "upload_service"),
	}
}

// OpenIntent records that a write is in flight before any bytes move.
// When a space is named, the caller must own it; the check happens before
// any side effect.
func (s *UploadService) OpenIntent(ctx context.Context, userID string, spaceID string, ctype models.ContentType) (*models.Upload, error) {
	if !ctype.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrValidation, ctype)
	}

	if spaceID != "" {
		if _, err := s.spaces.RequireOwned(ctx, spaceID, userID); err != nil {
			return nil, err
		}
	}

	upload := &models.Upload{
		ID:      uuid.NewString(),
		UserID:  userID,
		SpaceID: sql.NullString{String: spaceID, Valid: spaceID != ""},
		Type:    ctype,
		Status:  models.UploadStatusPending,
	}

	upload, err := s.rm.Uploads(s.db).Create(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("error creating upload: %w", err)
	}

	return upload, nil
}

// Finalize atomically marks the upload COMPLETED and materializes its
// Content row in a single transaction: a concurrent reader can never see a
// COMPLETED upload without its content.
//
// Calling Finalize on an already COMPLETED upload returns the existing
// content instead of creating a second one; the row lock plus the unique
// constraint on contents.upload_id make the double-call race safe.
func (s *UploadService) Finalize(ctx context.Context, uploadID string, url string, size int64, visibility models.Visibility, text string) (*models.Content, error) {
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, visibility)
	}

	var content *models.Content

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		uploadRepo := s.rm.Uploads(tx)
		contentRepo := s.rm.Contents(tx)

		upload, err := uploadRepo.GetByIDForUpdate(ctx, uploadID)
		if err != nil {
			return err
		}

		switch upload.Status {
		case models.UploadStatusCompleted:
			content, err = contentRepo.GetByUploadID(ctx, uploadID)
			return err
		case models.UploadStatusFailed:
			return fmt.Errorf("%w: upload already failed", common.ErrInvalidState)
		}

		if upload.Type == models.ContentTypeNote {
			url = ""
			size = int64(len(text))
		} else if url == "" {
			return fmt.Errorf("%w: binary upload requires a storage url", common.ErrValidation)
		}

		if !upload.SpaceID.Valid {
			return fmt.Errorf("%w: upload has no space to attach content to", common.ErrInvalidState)
		}

		upload, err = uploadRepo.MarkCompleted(ctx, uploadID, url, size)
		if err != nil {
			return err
		}

		content, err = contentRepo.Create(ctx, newContentFromUpload(upload, upload.SpaceID.String, visibility, text))
		return err
	})
	if err != nil {
		return nil, err
	}

	return content, nil
}

// MarkFailed moves a PENDING upload to its FAILED dead end. No content is
// ever created for it; the client retries with a brand-new intent. Failing
// an already FAILED upload is a no-op, failing a COMPLETED one is refused.
func (s *UploadService) MarkFailed(ctx context.Context, uploadID string) (*models.Upload, error) {
	repo := s.rm.Uploads(s.db)

	upload, err := repo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	switch upload.Status {
	case models.UploadStatusFailed:
		return upload, nil
	case models.UploadStatusCompleted:
		return nil, fmt.Errorf("%w: upload already completed", common.ErrInvalidState)
	}

	upload, err = repo.MarkFailed(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("error marking upload failed: %w", err)
	}

	return upload, nil
}

// ListPending returns the user's PENDING uploads from the last 24 hours,
// letting a client that crashed mid-upload see what it left behind.
func (s *UploadService) ListPending(ctx context.Context, userID string) ([]*models.Upload, error) {
	return s.rm.Uploads(s.db).ListPendingSince(ctx, userID, time.Now().Add(-pendingWindow))
}

// PresignPut opens the direct-client pathway: the caller gets a short-lived
// URL to PUT bytes against, then reports back via Finalize.
func (s *UploadService) PresignPut(ctx context.Context, userID string, uploadID string) (string, string, error) {
	upload, err := s.rm.Uploads(s.db).GetByID(ctx, uploadID)
	if err != nil {
		return "", "", err
	}
	if upload.UserID != userID {
		return "", "", common.ErrUnauthorized
	}
	if upload.Status != models.UploadStatusPending {
		return "", "", fmt.Errorf("%w: upload is not pending", common.ErrInvalidState)
	}

	return s.blobs.PresignPut(ctx, upload.UserID, upload.SpaceID.String, upload.ID)
}

// Relay is the server-side upload pathway: open an intent, push the bytes
// to the object store, then finalize. Storage goes first and the database
// second, so a content row can never point at an
// object that does not exist. If the database step fails after a successful
// put, the just-written object is deleted best-effort and the original
// database error propagates.
func (s *UploadService) Relay(ctx context.Context, userID string, spaceID string, ctype models.ContentType, filename string, contentType string, body io.Reader, visibility models.Visibility, text string) (*models.Content, error) {
	if !visibility.Valid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, visibility)
	}

	upload, err := s.OpenIntent(ctx, userID, spaceID, ctype)
	if err != nil {
		return nil, err
	}

	if ctype == models.ContentTypeNote {
		return s.Finalize(ctx, upload.ID, "", int64(len(text)), visibility, text)
	}

	if body == nil {
		return nil, fmt.Errorf("%w: file body is required", common.ErrValidation)
	}

	put, err := s.blobs.Put(ctx, userID, spaceID, upload.ID, filename, contentType, body)
	if err != nil {
		// nothing reached storage; the intent is a dead end
		if _, ferr := s.MarkFailed(ctx, upload.ID); ferr != nil {
			s.logger.Error(ctx, "failed to mark upload failed", "upload_id", upload.ID, "error", ferr.Error())
		}
		return nil, err
	}

	content, err := s.Finalize(ctx, upload.ID, put.URL, put.Size, visibility, "")
	if err != nil {
		s.compensate(ctx, put.Key, string(ctype))
		return nil, err
	}

	return content, nil
}

// compensate reverses a storage write after the database step failed.
// A failed delete is logged and swallowed: it must never mask the original
// error, and a stray blob is cheaper than a dangling reference.
func (s *UploadService) compensate(ctx context.Context, key string, kind string) {
	if err := s.blobs.Delete(ctx, key, kind); err != nil {
		s.logger.Error(ctx, "compensating delete failed, object orphaned", "key", key, "error", err.Error())
		return
	}
	s.logger.Info(ctx, "compensating delete done", "key", key)
}

func newContentFromUpload(upload *models.Upload, spaceID string, visibility models.Visibility, text string) *models.Content {
	if upload.Type != models.ContentTypeNote {
		text = ""
	}
	return &models.Content{
		ID:         uuid.NewString(),
		SpaceID:    spaceID,
		UploadID:   upload.ID,
		Type:       upload.Type,
		URL:        upload.FileURL,
		Text:       text,
		Size:       upload.Size,
		Visibility: visibility,
	}
}
