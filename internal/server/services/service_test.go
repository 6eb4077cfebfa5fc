package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/logging"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/contents"
	"github.com/spacebox-app/spacebox/internal/server/repositories/spaces"
	"github.com/spacebox-app/spacebox/internal/server/repositories/uploads"
	"github.com/spacebox-app/spacebox/internal/server/repositories/users"
	"github.com/spacebox-app/spacebox/internal/server/storage"

	"github.com/spacebox-app/spacebox/internal/common"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- in-memory fake repositories ---

type fakeUsersRepo struct {
	mu         sync.Mutex
	byID       map[string]*models.User
	createErr  error
	updateErr  error
	slugTaken  bool
	slugChecks []string
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.CreatedAt = time.Now()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsersRepo) GetByToken(ctx context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.PrivateToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Slug == slug {
			clone := *u
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return nil, common.ErrNotFound
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugChecks = append(f.slugChecks, slug)
	return f.slugTaken, nil
}

type fakeSpacesRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Space
	createErr error
	slugTaken bool
	deleted   []string
}

func newFakeSpacesRepo() *fakeSpacesRepo {
	return &fakeSpacesRepo{byID: make(map[string]*models.Space)}
}

func (f *fakeSpacesRepo) add(s *models.Space) *models.Space {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	f.byID[s.ID] = s
	return s
}

func (f *fakeSpacesRepo) Create(ctx context.Context, s *models.Space) (*models.Space, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	s.CreatedAt = time.Now()
	return f.add(s), nil
}

func (f *fakeSpacesRepo) GetByID(ctx context.Context, id string) (*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeSpacesRepo) GetBySlug(ctx context.Context, slug string) (*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.Slug == slug {
			clone := *s
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeSpacesRepo) ListByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Space
	for _, s := range f.byID {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSpacesRepo) ListPublicByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Space
	for _, s := range f.byID {
		if s.UserID == userID && s.Visibility == models.VisibilityPublic {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSpacesRepo) Update(ctx context.Context, s *models.Space) (*models.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[s.ID]; !ok {
		return nil, common.ErrNotFound
	}
	f.byID[s.ID] = s
	return s, nil
}

func (f *fakeSpacesRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSpacesRepo) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	return f.slugTaken, nil
}

type fakeUploadsRepo struct {
	mu           sync.Mutex
	byID         map[string]*models.Upload
	createErr    error
	completeErr  error
	pendingOut   []*models.Upload
	pendingSince time.Time
}

func newFakeUploadsRepo() *fakeUploadsRepo {
	return &fakeUploadsRepo{byID: make(map[string]*models.Upload)}
}

func (f *fakeUploadsRepo) add(u *models.Upload) *models.Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	return u
}

func (f *fakeUploadsRepo) Create(ctx context.Context, u *models.Upload) (*models.Upload, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUploadsRepo) get(id string) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUploadsRepo) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	return f.get(id)
}

func (f *fakeUploadsRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Upload, error) {
	return f.get(id)
}

func (f *fakeUploadsRepo) MarkCompleted(ctx context.Context, id string, url string, size int64) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = models.UploadStatusCompleted
	u.FileURL = url
	u.Size = size
	clone := *u
	return &clone, nil
}

func (f *fakeUploadsRepo) MarkFailed(ctx context.Context, id string) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = models.UploadStatusFailed
	clone := *u
	return &clone, nil
}

func (f *fakeUploadsRepo) ListPendingSince(ctx context.Context, userID string, since time.Time) ([]*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingSince = since
	return f.pendingOut, nil
}

type fakeContentsRepo struct {
	mu           sync.Mutex
	byUpload     map[string]*models.Content
	createErr    error
	created      []*models.Content
	deleted      []string
	deletedSpace []string
	listOut      []*models.Content
}

func newFakeContentsRepo() *fakeContentsRepo {
	return &fakeContentsRepo{byUpload: make(map[string]*models.Content)}
}

func (f *fakeContentsRepo) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c.CreatedAt = time.Now()
	f.byUpload[c.UploadID] = c
	f.created = append(f.created, c)
	return c, nil
}

func (f *fakeContentsRepo) GetByID(ctx context.Context, id string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byUpload {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeContentsRepo) GetByUploadID(ctx context.Context, uploadID string) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUpload[uploadID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}

func (f *fakeContentsRepo) ListBySpace(ctx context.Context, spaceID string) ([]*models.Content, error) {
	return f.listOut, nil
}

func (f *fakeContentsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeContentsRepo) DeleteBySpace(ctx context.Context, spaceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSpace = append(f.deletedSpace, spaceID)
	return nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	sp *fakeSpacesRepo
	up *fakeUploadsRepo
	c  *fakeContentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsersRepo(),
		sp: newFakeSpacesRepo(),
		up: newFakeUploadsRepo(),
		c:  newFakeContentsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.u }
func (m *fakeRepoManager) Spaces(db dbx.DBTX) spaces.Repository        { return m.sp }
func (m *fakeRepoManager) Uploads(db dbx.DBTX) uploads.Repository      { return m.up }
func (m *fakeRepoManager) Contents(db dbx.DBTX) contents.Repository    { return m.c }

// --- fake blob store ---

type putCall struct {
	ownerID, spaceID, uploadID, filename, contentType string
}

type deleteCall struct {
	key, kind string
}

type fakeBlobStore struct {
	mu         sync.Mutex
	putResult  *storage.PutResult
	putErr     error
	deleteErr  error
	presignErr error
	puts       []putCall
	deletes    []deleteCall
}

func (f *fakeBlobStore) Put(ctx context.Context, ownerID, spaceID, uploadID, filename, contentType string, body io.Reader) (*storage.PutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{ownerID, spaceID, uploadID, filename, contentType})
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.putResult != nil {
		return f.putResult, nil
	}
	data, _ := io.ReadAll(body)
	key := storage.ObjectKey(ownerID, spaceID, uploadID)
	return &storage.PutResult{
		Key:  key,
		URL:  "https://cdn/" + key,
		Size: int64(len(data)),
	}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{key, kind})
	return f.deleteErr
}

func (f *fakeBlobStore) PresignPut(ctx context.Context, ownerID, spaceID, uploadID string) (string, string, error) {
	if f.presignErr != nil {
		return "", "", f.presignErr
	}
	key := storage.ObjectKey(ownerID, spaceID, uploadID)
	return key, fmt.Sprintf("https://minio/presigned/%s", key), nil
}

// --- fixture ---

type fixture struct {
	db    *sql.DB
	mock  sqlmock.Sqlmock
	rm    *fakeRepoManager
	blobs *fakeBlobStore

	users    *UserService
	spaces   *SpaceService
	uploads  *UploadService
	contents *ContentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	blobs := &fakeBlobStore{}

	us := NewUserService(db, rm)
	ss := NewSpaceService(db, rm)
	ups := NewUploadService(db, rm, blobs, ss, nopLogger{})
	cs := NewContentService(db, rm, ss)

	return &fixture{
		db: db, mock: mock, rm: rm, blobs: blobs,
		users: us, spaces: ss, uploads: ups, contents: cs,
	}
}

func (f *fixture) addUser(id string) *models.User {
	u := &models.User{ID: id, Slug: "slug-" + id, PrivateToken: "token-" + id}
	f.rm.u.byID[id] = u
	return u
}

func (f *fixture) addSpace(id, userID string, visibility models.Visibility) *models.Space {
	return f.rm.sp.add(&models.Space{
		ID: id, UserID: userID, Name: "Space " + id, Slug: "space-" + id, Visibility: visibility,
	})
}

func (f *fixture) addUpload(id, userID, spaceID string, ctype models.ContentType, status models.UploadStatus) *models.Upload {
	return f.rm.up.add(&models.Upload{
		ID:        id,
		UserID:    userID,
		SpaceID:   sql.NullString{String: spaceID, Valid: spaceID != ""},
		Type:      ctype,
		Status:    status,
		CreatedAt: time.Now(),
	})
}
