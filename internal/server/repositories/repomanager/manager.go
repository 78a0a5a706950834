package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lessonvault/internal/dbx"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/uploads"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Uploads(db dbx.DBTX) uploads.Repository
}
