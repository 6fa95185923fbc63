package fails

import (
	"context"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const schema = `
CREATE TABLE IF NOT EXISTS import_fail (
	id         bigserial PRIMARY KEY,
	start_time timestamptz NOT NULL,
	query      text NOT NULL,
	error      text NOT NULL
)`

type conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewPGXRepository(pg conn, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

// EnsureSchema creates the import_fail table when it does not exist yet.
func EnsureSchema(ctx context.Context, pg conn) error {
	_, err := pg.Exec(ctx, schema)
	return err
}

type pgxRepo struct {
	pg conn
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxRecord struct {
	Id        uint64    `db:"id"`
	StartTime time.Time `db:"start_time"`
	Query     string    `db:"query"`
	Error     string    `db:"error"`
}

func (p *pgxRepo) Save(ctx context.Context, startTime time.Time, query string, failure error) error {
	sql, params, err := p.g.Insert("import_fail").
		Rows(goqu.Record{
			"start_time": startTime,
			"query":      query,
			"error":      failure.Error(),
		}).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) GetFails(ctx context.Context, notAfter time.Time, limit uint) ([]*Record, error) {
	qb := p.g.From("import_fail").
		Where(goqu.C("start_time").Lte(notAfter)).
		Order(goqu.C("start_time").Desc(), goqu.C("id").Desc())

	if limit > 0 {
		qb = qb.Limit(limit)
	}

	sql, params, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxRecord

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*Record, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &Record{
			Id:        row.Id,
			StartTime: row.StartTime,
			Query:     row.Query,
			Error:     row.Error,
		})
	}

	return ret, nil
}

func (p *pgxRepo) DeleteById(ctx context.Context, id uint64) (bool, error) {
	sql, params, err := p.g.Delete("import_fail").
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return false, err
	}

	tag, err := p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}
