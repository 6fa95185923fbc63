package books

import (
	"context"
	"errors"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bookstore/internal/types"
)

const (
	tableBook = "book"

	pgUniqueViolation = "23505"
)

// conn is satisfied by both *pgxpool.Pool and pgx.Tx.
type conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewPGXRepository(pg conn, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg conn
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxBook struct {
	Id            int64         `db:"id"`
	ExternalId    *string       `db:"external_id"`
	Title         string        `db:"title"`
	Authors       types.Authors `db:"authors"`
	Acquired      bool          `db:"acquired"`
	PublishedYear string        `db:"published_year"`
	Thumbnail     *string       `db:"thumbnail"`
}

func (b *pgxBook) intoCommon() *types.Book {
	return &types.Book{
		Id:            b.Id,
		ExternalId:    b.ExternalId,
		Title:         b.Title,
		Authors:       b.Authors,
		Acquired:      b.Acquired,
		PublishedYear: b.PublishedYear,
		Thumbnail:     b.Thumbnail,
	}
}

func columns(book *types.Book) goqu.Record {
	authors := book.Authors
	if authors == nil {
		authors = types.Authors{}
	}

	return goqu.Record{
		"external_id":    book.ExternalId,
		"title":          book.Title,
		"authors":        authors,
		"acquired":       book.Acquired,
		"published_year": book.PublishedYear,
		"thumbnail":      book.Thumbnail,
	}
}

func (p *pgxRepo) Insert(ctx context.Context, book *types.Book) (int64, error) {
	sql, params, err := p.g.Insert(tableBook).
		Rows(columns(book)).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, err
	}

	var id int64
	err = pgxscan.Get(ctx, p.pg, &id, sql, params...)
	if err != nil {
		return 0, translateErr(err)
	}

	book.Id = id
	return id, nil
}

func (p *pgxRepo) getOne(ctx context.Context, where goqu.Ex) (*types.Book, error) {
	sql, params, err := p.g.From(tableBook).
		Where(where).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetById(ctx context.Context, id int64) (*types.Book, error) {
	return p.getOne(ctx, goqu.Ex{"id": id})
}

func (p *pgxRepo) GetByExternalId(ctx context.Context, externalId string) (*types.Book, error) {
	return p.getOne(ctx, goqu.Ex{"external_id": externalId})
}

func (p *pgxRepo) Update(ctx context.Context, book *types.Book) (bool, error) {
	sql, params, err := p.g.Update(tableBook).
		Set(columns(book)).
		Where(goqu.C("id").Eq(book.Id)).
		ToSQL()
	if err != nil {
		return false, err
	}

	tag, err := p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return false, translateErr(err)
	}

	return tag.RowsAffected() > 0, nil
}

func (p *pgxRepo) DeleteById(ctx context.Context, id int64) (bool, error) {
	sql, params, err := p.g.Delete(tableBook).
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

func (p *pgxRepo) List(ctx context.Context) ([]*types.Book, error) {
	sql, params, err := p.g.From(tableBook).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBook

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for i := range rows {
		ret = append(ret, rows[i].intoCommon())
	}

	return ret, nil
}

func (p *pgxRepo) Count(ctx context.Context) (int, error) {
	sql, params, err := p.g.From(tableBook).
		Select(goqu.COUNT("*")).
		ToSQL()
	if err != nil {
		return 0, err
	}

	var n int
	err = pgxscan.Get(ctx, p.pg, &n, sql, params...)
	return n, err
}

func (p *pgxRepo) WithinTx(ctx context.Context, fn func(tx Repository) error) error {
	return pgx.BeginFunc(ctx, p.pg, func(tx pgx.Tx) error {
		return fn(&pgxRepo{pg: tx, g: p.g, l: p.l})
	})
}

func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateExternalId
	}

	return err
}
