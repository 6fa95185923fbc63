// Package failstest provides an in-memory fails.Repository for tests.
package failstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore/internal/storage/fails"
)

type Store struct {
	mu     sync.Mutex
	nextId uint64
	rows   []*fails.Record
}

var _ fails.Repository = (*Store)(nil)

func New() *Store {
	return &Store{nextId: 1}
}

func (s *Store) Save(_ context.Context, startTime time.Time, query string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, &fails.Record{
		Id:        s.nextId,
		StartTime: startTime,
		Query:     query,
		Error:     err.Error(),
	})
	s.nextId++

	return nil
}

func (s *Store) GetFails(_ context.Context, notAfter time.Time, limit uint) ([]*fails.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret := make([]*fails.Record, 0, len(s.rows))
	for _, row := range s.rows {
		if !row.StartTime.After(notAfter) {
			c := *row
			ret = append(ret, &c)
		}
	}

	sort.SliceStable(ret, func(i, j int) bool {
		if !ret[i].StartTime.Equal(ret[j].StartTime) {
			return ret[i].StartTime.After(ret[j].StartTime)
		}
		return ret[i].Id > ret[j].Id
	})

	if limit > 0 && uint(len(ret)) > limit {
		ret = ret[:limit]
	}

	return ret, nil
}

func (s *Store) DeleteById(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.rows {
		if row.Id == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}

	return false, nil
}
