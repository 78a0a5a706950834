package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/filex"
	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
)

const maxFileNameLength = 255

// CredentialRequest names the file a client is about to PUT directly.
type CredentialRequest struct {
	UserID      string
	FileName    string
	ContentType string
	Folder      string
}

// Credential is valid for exactly one object key. It is never persisted.
// URL is where the object is served from once the PUT succeeds.
type Credential struct {
	UploadURL   string
	URL         string
	Key         string
	FileName    string
	ContentType string
	ExpiresAt   time.Time
}

type CredentialService struct {
	store          storage.ObjectStore
	ttl            time.Duration
	publicEndpoint string
	keyRoot        string
	now            func() time.Time
	log            logging.Logger
}

func NewCredentialService(store storage.ObjectStore, ttl time.Duration, publicEndpoint, keyRoot string, log logging.Logger) *CredentialService {
	return &CredentialService{
		store:          store,
		ttl:            ttl,
		publicEndpoint: publicEndpoint,
		keyRoot:        keyRoot,
		now:            time.Now,
		log:            log.With("module", "credentials"),
	}
}

// Issue presigns a PUT for a freshly generated key. It only signs; the
// storage backend is not contacted.
func (s *CredentialService) Issue(ctx context.Context, req CredentialRequest) (cred *Credential, err error) {
	defer func() { credentialsIssuedTotal.WithLabelValues(resultLabel(err)).Inc() }()

	if req.UserID == "" {
		return nil, fmt.Errorf("%w: caller is unknown", common.ErrorUnauthorized)
	}
	name := strings.TrimSpace(req.FileName)
	if name == "" {
		return nil, fmt.Errorf("%w: fileName is required", common.ErrorValidation)
	}
	if len(name) > maxFileNameLength {
		return nil, fmt.Errorf("%w: fileName exceeds %d characters", common.ErrorValidation, maxFileNameLength)
	}

	contentType, err := normalizeContentType(req.ContentType, name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.NewOwnedKey(s.keyRoot, req.UserID, req.Folder, name, now)

	url, err := s.store.PresignPut(ctx, key, contentType, s.ttl)
	if err != nil {
		err = storage.ClassifyError(err)
		s.log.Error(ctx, "presign failed", "key", key, "error", err)
		return nil, err
	}

	s.log.Debug(ctx, "credential issued", "key", key, "content_type", contentType)
	return &Credential{
		UploadURL:   url,
		URL:         storage.PublicURL(s.publicEndpoint, s.store.Bucket(), key),
		Key:         key,
		FileName:    name,
		ContentType: contentType,
		ExpiresAt:   now.Add(s.ttl),
	}, nil
}

// normalizeContentType validates an explicit type or detects one from the
// file extension.
func normalizeContentType(contentType, fileName string) (string, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return filex.DetectContentType(fileName), nil
	}
	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		return "", fmt.Errorf("%w: invalid contentType %q", common.ErrorValidation, contentType)
	}
	return contentType, nil
}
