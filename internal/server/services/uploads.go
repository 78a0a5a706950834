package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SaveUploadInput is the metadata a client reports after a successful
// transfer. The owner always comes from the authenticated caller.
type SaveUploadInput struct {
	FileName     string
	OriginalName string
	FileSize     int64
	FileType     string
	S3Key        string
	S3URL        string
	LessonID     *string
}

// UploadService persists UploadRecords and keeps a small read cache in front
// of the repository.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	keyRoot     string
	cache       *expirable.LRU[string, *models.Upload]
	log         logging.Logger
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, keyRoot string, cacheSize int, cacheTTL time.Duration, log logging.Logger) *UploadService {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	return &UploadService{
		db:          db,
		repomanager: m,
		store:       store,
		keyRoot:     keyRoot,
		cache:       expirable.NewLRU[string, *models.Upload](cacheSize, nil, cacheTTL),
		log:         log.With("module", "uploads"),
	}
}

func cacheKey(userID, id string) string { return userID + "/" + id }

// validID rejects ids the uuid column could never hold, so they read as
// missing rather than as a database error.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: upload %q", common.ErrorNotFound, id)
	}
	return nil
}

// Save records an upload. The key must lie under the caller's prefix, which
// is the only place credentials and server-mediated transfers write for them.
func (s *UploadService) Save(ctx context.Context, userID string, in SaveUploadInput) (*models.Upload, error) {
	key := strings.TrimSpace(in.S3Key)
	if key == "" {
		return nil, fmt.Errorf("%w: s3_key is required", common.ErrorValidation)
	}
	if !strings.HasPrefix(key, storage.OwnerPrefix(s.keyRoot, userID)) {
		s.log.Warn(ctx, "rejected s3_key outside caller prefix", "user_id", userID, "key", key)
		return nil, fmt.Errorf("%w: s3_key was not issued to this user", common.ErrorValidation)
	}
	if in.FileSize < 0 {
		return nil, fmt.Errorf("%w: file_size must not be negative", common.ErrorValidation)
	}

	u := &models.Upload{
		ID:           uuid.NewString(),
		UserID:       userID,
		LessonID:     normalizeLesson(in.LessonID),
		FileName:     strings.TrimSpace(in.FileName),
		OriginalName: strings.TrimSpace(in.OriginalName),
		FileSize:     in.FileSize,
		FileType:     strings.TrimSpace(in.FileType),
		S3Key:        key,
		S3URL:        strings.TrimSpace(in.S3URL),
		Status:       models.UploadStatusCompleted,
	}
	if u.FileName == "" {
		u.FileName = storage.GeneratedName(key)
	}
	if u.OriginalName == "" {
		u.OriginalName = u.FileName
	}
	if u.FileType == "" {
		u.FileType = common.DefaultContentType
	}

	if err := s.repomanager.Uploads(s.db).Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error saving upload: %w", err)
	}
	s.cache.Add(cacheKey(userID, u.ID), u)
	s.log.Info(ctx, "upload recorded", "id", u.ID, "key", u.S3Key, "size", u.FileSize)
	return u, nil
}

func (s *UploadService) Get(ctx context.Context, userID, id string) (*models.Upload, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if u, ok := s.cache.Get(cacheKey(userID, id)); ok {
		return u, nil
	}
	u, err := s.repomanager.Uploads(s.db).GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(cacheKey(userID, id), u)
	return u, nil
}

func (s *UploadService) List(ctx context.Context, userID string, lessonID *string) ([]*models.Upload, error) {
	items, err := s.repomanager.Uploads(s.db).ListByUser(ctx, userID, normalizeLesson(lessonID))
	if err != nil {
		return nil, fmt.Errorf("error listing uploads: %w", err)
	}
	return items, nil
}

// Update renames or reassigns an upload. Concurrent edits are not
// coordinated; the last write wins.
func (s *UploadService) Update(ctx context.Context, userID, id string, patch models.UploadPatch) (*models.Upload, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if patch.OriginalName == nil && patch.LessonID == nil && !patch.ClearLesson && patch.Status == nil {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrorValidation)
	}
	if patch.OriginalName != nil {
		name := strings.TrimSpace(*patch.OriginalName)
		if name == "" {
			return nil, fmt.Errorf("%w: original_name must not be empty", common.ErrorValidation)
		}
		patch.OriginalName = &name
	}
	if patch.Status != nil {
		switch *patch.Status {
		case models.UploadStatusCompleted, models.UploadStatusArchived:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, *patch.Status)
		}
	}
	if patch.LessonID != nil {
		patch.LessonID = normalizeLesson(patch.LessonID)
		if patch.LessonID == nil {
			patch.ClearLesson = true
		}
	}

	u, err := s.repomanager.Uploads(s.db).Update(ctx, userID, id, patch)
	if err != nil {
		s.cache.Remove(cacheKey(userID, id))
		return nil, err
	}
	s.cache.Add(cacheKey(userID, id), u)
	return u, nil
}

// Delete removes the record and then, best effort, the stored object. A
// failed object delete is logged and left for the sweeper.
func (s *UploadService) Delete(ctx context.Context, userID, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	u, err := s.repomanager.Uploads(s.db).Delete(ctx, userID, id)
	s.cache.Remove(cacheKey(userID, id))
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, u.S3Key); err != nil {
		s.log.Warn(ctx, "stored object was not deleted", "key", u.S3Key, "error", err)
	}
	return nil
}

func normalizeLesson(lessonID *string) *string {
	if lessonID == nil {
		return nil
	}
	v := strings.TrimSpace(*lessonID)
	if v == "" {
		return nil
	}
	return &v
}
