// Package bookstest provides an in-memory books.Repository for tests.
package bookstest

import (
	"context"
	"sort"
	"sync"

	"bookstore/internal/storage/books"
	"bookstore/internal/types"
)

type Store struct {
	mu     sync.Mutex
	nextId int64
	rows   map[int64]*types.Book

	// InsertErr, when set, is consulted before every insert; a non-nil result aborts it.
	InsertErr func(book *types.Book) error
}

var _ books.Repository = (*Store)(nil)

func New(seed ...*types.Book) *Store {
	s := &Store{nextId: 1, rows: make(map[int64]*types.Book)}

	for _, b := range seed {
		c := b.Clone()
		if c.Id == 0 {
			c.Id = s.nextId
		}
		if c.Id >= s.nextId {
			s.nextId = c.Id + 1
		}
		s.rows[c.Id] = c
	}

	return s
}

func (s *Store) Insert(_ context.Context, book *types.Book) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertErr != nil {
		if err := s.InsertErr(book); err != nil {
			return 0, err
		}
	}

	if s.externalIdTaken(book.ExternalId, 0) {
		return 0, books.ErrDuplicateExternalId
	}

	c := book.Clone()
	c.Id = s.nextId
	s.nextId++
	s.rows[c.Id] = c

	book.Id = c.Id
	return c.Id, nil
}

func (s *Store) externalIdTaken(externalId *string, exceptId int64) bool {
	if externalId == nil {
		return false
	}

	for id, row := range s.rows {
		if id != exceptId && row.ExternalId != nil && *row.ExternalId == *externalId {
			return true
		}
	}

	return false
}

func (s *Store) GetById(_ context.Context, id int64) (*types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.rows[id]; ok {
		return row.Clone(), nil
	}

	return nil, nil
}

func (s *Store) GetByExternalId(_ context.Context, externalId string) (*types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ExternalId != nil && *row.ExternalId == externalId {
			return row.Clone(), nil
		}
	}

	return nil, nil
}

func (s *Store) Update(_ context.Context, book *types.Book) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[book.Id]; !ok {
		return false, nil
	}

	if s.externalIdTaken(book.ExternalId, book.Id) {
		return false, books.ErrDuplicateExternalId
	}

	s.rows[book.Id] = book.Clone()
	return true, nil
}

func (s *Store) DeleteById(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return false, nil
	}

	delete(s.rows, id)
	return true, nil
}

func (s *Store) List(_ context.Context) ([]*types.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := make([]*types.Book, 0, len(s.rows))
	for _, row := range s.rows {
		ret = append(ret, row.Clone())
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Id < ret[j].Id
	})

	return ret, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.rows), nil
}

// WithinTx restores the previous contents when fn fails. Id allocation is not rolled back,
// which matches a postgres sequence.
func (s *Store) WithinTx(_ context.Context, fn func(tx books.Repository) error) error {
	s.mu.Lock()
	snapshot := make(map[int64]*types.Book, len(s.rows))
	for id, row := range s.rows {
		snapshot[id] = row
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.rows = snapshot
		s.mu.Unlock()
		return err
	}

	return nil
}
