package books

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS book (
	id             bigserial PRIMARY KEY,
	external_id    varchar(200) UNIQUE,
	title          varchar(200) NOT NULL,
	authors        jsonb NOT NULL DEFAULT '[]'::jsonb,
	acquired       boolean NOT NULL DEFAULT false,
	published_year varchar(20) NOT NULL,
	thumbnail      text
)`

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the book table when it does not exist yet. Existing tables are left alone.
func EnsureSchema(ctx context.Context, pg execer) error {
	_, err := pg.Exec(ctx, schema)
	return err
}
