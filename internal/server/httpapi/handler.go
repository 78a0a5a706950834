package httpapi

import (
	"context"

	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/models"
	"github.com/dmitrijs2005/lessonvault/internal/server/services"
)

// Authenticator is the slice of services.UserService the API needs.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(token string) (string, error)
}

type CredentialIssuer interface {
	Issue(ctx context.Context, req services.CredentialRequest) (*services.Credential, error)
}

type Transferer interface {
	Transfer(ctx context.Context, in services.TransferInput) (*services.TransferResult, error)
}

type UploadManager interface {
	Save(ctx context.Context, userID string, in services.SaveUploadInput) (*models.Upload, error)
	Get(ctx context.Context, userID, id string) (*models.Upload, error)
	List(ctx context.Context, userID string, lessonID *string) ([]*models.Upload, error)
	Update(ctx context.Context, userID, id string, patch models.UploadPatch) (*models.Upload, error)
	Delete(ctx context.Context, userID, id string) error
}

// Pinger reports database readiness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds the collaborators of every route.
type Handler struct {
	users       Authenticator
	credentials CredentialIssuer
	transfers   Transferer
	uploads     UploadManager
	db          Pinger
	storageOK   bool
	// multipartMemory is the part of a multipart form kept in memory; the
	// rest spills to temporary files.
	multipartMemory int64
	log             logging.Logger
}

type Options struct {
	Users             Authenticator
	Credentials       CredentialIssuer
	Transfers         Transferer
	Uploads           UploadManager
	DB                Pinger
	StorageConfigured bool
	MultipartMemory   int64
	Logger            logging.Logger
}

func NewHandler(o Options) *Handler {
	return &Handler{
		users:           o.Users,
		credentials:     o.Credentials,
		transfers:       o.Transfers,
		uploads:         o.Uploads,
		db:              o.DB,
		storageOK:       o.StorageConfigured,
		multipartMemory: o.MultipartMemory,
		log:             o.Logger.With("module", "httpapi"),
	}
}
