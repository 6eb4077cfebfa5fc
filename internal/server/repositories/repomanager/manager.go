// Package repomanager hands out repositories bound to a concrete database
// handle. Services ask the manager for repos bound either to the shared
// *sql.DB or to a transaction inside dbx.WithTx.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/spacebox-app/spacebox/internal/dbx"
	"github.com/spacebox-app/spacebox/internal/server/repositories/contents"
	"github.com/spacebox-app/spacebox/internal/server/repositories/spaces"
	"github.com/spacebox-app/spacebox/internal/server/repositories/uploads"
	"github.com/spacebox-app/spacebox/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Spaces(db dbx.DBTX) spaces.Repository
	Uploads(db dbx.DBTX) uploads.Repository
	Contents(db dbx.DBTX) contents.Repository
}
