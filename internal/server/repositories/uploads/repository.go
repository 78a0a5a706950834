// Package uploads persists UploadRecords, the metadata rows describing objects
// stored in the bucket.
package uploads

import (
	"context"

	"github.com/dmitrijs2005/lessonvault/internal/server/models"
)

// Repository is scoped by owner: every read and write takes the user id and
// never touches another user's rows.
type Repository interface {
	// Create inserts u and fills in CreatedAt/UpdatedAt. A duplicate storage key
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, u *models.Upload) error
	GetByID(ctx context.Context, userID, id string) (*models.Upload, error)
	// ListByUser returns the user's uploads, newest first, optionally
	// restricted to one lesson.
	ListByUser(ctx context.Context, userID string, lessonID *string) ([]*models.Upload, error)
	// Update applies patch and returns the updated row. Concurrent updates are
	// not coordinated: the last writer wins.
	Update(ctx context.Context, userID, id string, patch models.UploadPatch) (*models.Upload, error)
	// Delete removes the row and returns it so the caller can drop the object.
	Delete(ctx context.Context, userID, id string) (*models.Upload, error)
	// ExistingKeys reports which of keys have a row, regardless of owner.
	ExistingKeys(ctx context.Context, keys []string) (map[string]struct{}, error)
}
