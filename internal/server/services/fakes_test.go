package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/dbx"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/lessonvault/internal/server/repositories/refreshtokens"
	uploadsrepo "github.com/dmitrijs2005/lessonvault/internal/server/repositories/uploads"
	usersrepo "github.com/dmitrijs2005/lessonvault/internal/server/repositories/users"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- repositories ---

type fakeUsersRepo struct {
	created   *models.User
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr error

	createErr error
	created   []string

	expiredOut int64
	expiredErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr == nil {
		f.created = append(f.created, token)
	}
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.expiredOut, f.expiredErr
}

// fakeUploadsRepo keeps rows in memory, keyed by id.
type fakeUploadsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Upload

	createErr error
	listErr   error
	keysErr   error
	getCalls  int
}

func newFakeUploadsRepo() *fakeUploadsRepo {
	return &fakeUploadsRepo{rows: map[string]*models.Upload{}}
}

func (f *fakeUploadsRepo) Create(ctx context.Context, u *models.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.rows {
		if r.S3Key == u.S3Key {
			return common.ErrorAlreadyExists
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUploadsRepo) GetByID(ctx context.Context, userID, id string) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeUploadsRepo) ListByUser(ctx context.Context, userID string, lessonID *string) ([]*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Upload
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if lessonID != nil && (r.LessonID == nil || *r.LessonID != *lessonID) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUploadsRepo) Update(ctx context.Context, userID, id string, p models.UploadPatch) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if p.OriginalName != nil {
		r.OriginalName = *p.OriginalName
	}
	if p.LessonID != nil {
		v := *p.LessonID
		r.LessonID = &v
	}
	if p.ClearLesson {
		r.LessonID = nil
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	cp := *r
	return &cp, nil
}

func (f *fakeUploadsRepo) Delete(ctx context.Context, userID, id string) (*models.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(f.rows, id)
	return r, nil
}

func (f *fakeUploadsRepo) ExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	out := map[string]struct{}{}
	for _, k := range keys {
		for _, r := range f.rows {
			if r.S3Key == k {
				out[k] = struct{}{}
			}
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	up *fakeUploadsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Uploads(db dbx.DBTX) uploadsrepo.Repository             { return m.up }

// --- object store ---

type storedObject struct {
	data         []byte
	contentType  string
	streamed     bool
	declaredSize int64
	modified     time.Time
}

// fakeStore records what reached it and how: buffered calls get a []byte,
// streaming calls get an io.Reader.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]*storedObject

	presignErr error
	putErr     error
	deleteErr  error
	listErr    error

	presigned []string
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]*storedObject{}}
}

func (f *fakeStore) Bucket() string { return "lessons" }

func (f *fakeStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.presignErr != nil {
		return "", f.presignErr
	}
	f.presigned = append(f.presigned, key)
	return "https://storage.test/lessons/" + key + "?X-Amz-Signature=sig", nil
}

func (f *fakeStore) PutBuffered(ctx context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = &storedObject{data: bytes.Clone(data), contentType: contentType, declaredSize: int64(len(data)), modified: time.Now()}
	return nil
}

func (f *fakeStore) PutStream(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = &storedObject{data: data, contentType: contentType, streamed: true, declaredSize: size, modified: time.Now()}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStore) List(ctx context.Context, prefix string, fn func(storage.ObjectInfo) error) error {
	if f.listErr != nil {
		return f.listErr
	}
	f.mu.Lock()
	keys := make([]string, 0, len(f.objects))
	infos := map[string]storage.ObjectInfo{}
	for k, o := range f.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		keys = append(keys, k)
		infos[k] = storage.ObjectInfo{Key: k, Size: int64(len(o.data)), LastModified: o.modified}
	}
	f.mu.Unlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(infos[k]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) object(key string) (*storedObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[key]
	return o, ok
}
