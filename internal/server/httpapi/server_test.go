package httpapi

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spacebox-app/spacebox/internal/common"
	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/logging"
	"github.com/spacebox-app/spacebox/internal/server/models"
	"github.com/spacebox-app/spacebox/internal/server/repositories/contents"
	"github.com/spacebox-app/spacebox/internal/server/repositories/spaces"
	"github.com/spacebox-app/spacebox/internal/server/repositories/uploads"
	"github.com/spacebox-app/spacebox/internal/server/repositories/users"
	"github.com/spacebox-app/spacebox/internal/server/services"
	"github.com/spacebox-app/spacebox/internal/server/storage"
)

// memStore is a single in-memory backing store shared by the per-entity
// repository adapters below. It ignores the transaction handle; the sqlmock
// database underneath only supplies begin/commit plumbing.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	spaces   map[string]*models.Space
	uploads  map[string]*models.Upload
	contents map[string]*models.Content
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*models.User),
		spaces:   make(map[string]*models.Space),
		uploads:  make(map[string]*models.Upload),
		contents: make(map[string]*models.Content),
	}
}

type memUsers struct{ st *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u.CreatedAt = time.Now()
	r.st.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u, ok := r.st.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r memUsers) GetByToken(ctx context.Context, token string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.PrivateToken == token {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.Slug == slug {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) Update(ctx context.Context, u *models.User) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.users[u.ID] = u
	return u, nil
}

func (r memUsers) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.Slug == slug && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type memSpaces struct{ st *memStore }

func (r memSpaces) Create(ctx context.Context, s *models.Space) (*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s.CreatedAt = time.Now()
	r.st.spaces[s.ID] = s
	return s, nil
}

func (r memSpaces) GetByID(ctx context.Context, id string) (*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if s, ok := r.st.spaces[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

func (r memSpaces) GetBySlug(ctx context.Context, slug string) (*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.spaces {
		if s.Slug == slug {
			clone := *s
			return &clone, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memSpaces) ListByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var result []*models.Space
	for _, s := range r.st.spaces {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r memSpaces) ListPublicByUser(ctx context.Context, userID string) ([]*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var result []*models.Space
	for _, s := range r.st.spaces {
		if s.UserID == userID && s.Visibility == models.VisibilityPublic {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r memSpaces) Update(ctx context.Context, s *models.Space) (*models.Space, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.spaces[s.ID] = s
	return s, nil
}

func (r memSpaces) Delete(ctx context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	delete(r.st.spaces, id)
	return nil
}

func (r memSpaces) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, s := range r.st.spaces {
		if s.Slug == slug && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type memUploads struct{ st *memStore }

func (r memUploads) Create(ctx context.Context, u *models.Upload) (*models.Upload, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u.CreatedAt = time.Now()
	r.st.uploads[u.ID] = u
	return u, nil
}

func (r memUploads) get(id string) (*models.Upload, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u, ok := r.st.uploads[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, common.ErrNotFound
}

func (r memUploads) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	return r.get(id)
}

func (r memUploads) GetByIDForUpdate(ctx context.Context, id string) (*models.Upload, error) {
	return r.get(id)
}

func (r memUploads) MarkCompleted(ctx context.Context, id string, url string, size int64) (*models.Upload, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.uploads[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = models.UploadStatusCompleted
	u.FileURL = url
	u.Size = size
	clone := *u
	return &clone, nil
}

func (r memUploads) MarkFailed(ctx context.Context, id string) (*models.Upload, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.uploads[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Status = models.UploadStatusFailed
	clone := *u
	return &clone, nil
}

func (r memUploads) ListPendingSince(ctx context.Context, userID string, since time.Time) ([]*models.Upload, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var result []*models.Upload
	for _, u := range r.st.uploads {
		if u.UserID == userID && u.Status == models.UploadStatusPending && !u.CreatedAt.Before(since) {
			result = append(result, u)
		}
	}
	return result, nil
}

type memContents struct{ st *memStore }

func (r memContents) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c.CreatedAt = time.Now()
	r.st.contents[c.ID] = c
	return c, nil
}

func (r memContents) GetByID(ctx context.Context, id string) (*models.Content, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if c, ok := r.st.contents[id]; ok {
		return c, nil
	}
	return nil, common.ErrNotFound
}

func (r memContents) GetByUploadID(ctx context.Context, uploadID string) (*models.Content, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, c := range r.st.contents {
		if c.UploadID == uploadID {
			return c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memContents) ListBySpace(ctx context.Context, spaceID string) ([]*models.Content, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var result []*models.Content
	for _, c := range r.st.contents {
		if c.SpaceID == spaceID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (r memContents) Delete(ctx context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.contents[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.st.contents, id)
	return nil
}

func (r memContents) DeleteBySpace(ctx context.Context, spaceID string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for id, c := range r.st.contents {
		if c.SpaceID == spaceID {
			delete(r.st.contents, id)
		}
	}
	return nil
}

type memRepoManager struct{ st *memStore }

func (m memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m memRepoManager) Users(dbx.DBTX) users.Repository             { return memUsers{m.st} }
func (m memRepoManager) Spaces(dbx.DBTX) spaces.Repository           { return memSpaces{m.st} }
func (m memRepoManager) Uploads(dbx.DBTX) uploads.Repository         { return memUploads{m.st} }
func (m memRepoManager) Contents(dbx.DBTX) contents.Repository       { return memContents{m.st} }

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (b *memBlobStore) Put(ctx context.Context, ownerID, spaceID, uploadID, filename, contentType string, body io.Reader) (*storage.PutResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	key := storage.ObjectKey(ownerID, spaceID, uploadID)
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return &storage.PutResult{Key: key, URL: "https://cdn/" + key, Size: int64(len(data))}, nil
}

func (b *memBlobStore) Delete(ctx context.Context, key string, kind string) error {
	b.mu.Lock()
	delete(b.objects, key)
	b.mu.Unlock()
	return nil
}

func (b *memBlobStore) PresignPut(ctx context.Context, ownerID, spaceID, uploadID string) (string, string, error) {
	key := storage.ObjectKey(ownerID, spaceID, uploadID)
	return key, fmt.Sprintf("https://minio/presigned/%s", key), nil
}

type testLogger struct{}

func (testLogger) Info(context.Context, string, ...any)  {}
func (testLogger) Warn(context.Context, string, ...any)  {}
func (testLogger) Error(context.Context, string, ...any) {}
func (l testLogger) With(...any) logging.Logger          { return l }

type env struct {
	server *httptest.Server
	mock   sqlmock.Sqlmock
	store  *memStore
	blobs  *memBlobStore
}

// newEnv spins up a full router over in-memory repositories. Transaction
// begin/commit calls land on a sqlmock database.
func newEnv(t *testing.T) *env {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// services open transactions as they please; leftovers are not checked
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	st := newMemStore()
	rm := memRepoManager{st}
	blobs := newMemBlobStore()

	us := services.NewUserService(db, rm)
	ss := services.NewSpaceService(db, rm)
	ups := services.NewUploadService(db, rm, blobs, ss, testLogger{})
	cs := services.NewContentService(db, rm, ss)

	srv := NewServer(":0", testLogger{}, us, ss, ups, cs)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &env{server: ts, mock: mock, store: st, blobs: blobs}
}

func (e *env) addUser(id, token string) *models.User {
	u := &models.User{ID: id, Slug: "slug-" + id, PrivateToken: token, CreatedAt: time.Now()}
	e.store.users[id] = u
	return u
}

func (e *env) addSpace(userID string, visibility models.Visibility, name string) *models.Space {
	s := &models.Space{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Slug:       name,
		Visibility: visibility,
		CreatedAt:  time.Now(),
	}
	e.store.spaces[s.ID] = s
	return s
}
