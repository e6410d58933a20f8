package repository

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every pending schema migration to the pool's database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return eris.Wrap(err, "repository: set migration dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return eris.Wrap(err, "repository: apply migrations")
	}
	return nil
}
