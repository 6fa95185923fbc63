package books

import (
	"context"
	"errors"

	"bookstore/internal/types"
)

var ErrDuplicateExternalId = errors.New("external id already used by another book")

type Repository interface {
	// Insert assigns a fresh id to book and returns it.
	Insert(ctx context.Context, book *types.Book) (int64, error)
	// GetById returns nil, nil when there is no such book.
	GetById(ctx context.Context, id int64) (*types.Book, error)
	// GetByExternalId returns nil, nil when no book has that external id.
	GetByExternalId(ctx context.Context, externalId string) (*types.Book, error)
	// Update overwrites every column of the book with book.Id. Reports false if it does not exist.
	Update(ctx context.Context, book *types.Book) (bool, error)
	// DeleteById reports false if there was no such book.
	DeleteById(ctx context.Context, id int64) (bool, error)
	// List returns all books ordered by id.
	List(ctx context.Context) ([]*types.Book, error)
	Count(ctx context.Context) (int, error)

	// WithinTx runs fn against a repository bound to a single transaction.
	// It commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
}
