package importer

import (
	"context"
	"fmt"
	"time"

	"bookstore/internal/storage/fails"
)

type ErrorHandler interface {
	Handle(ctx context.Context, startTime time.Time, query string, err error) error
}

// StoringHandler keeps failed imports in the fails repository for later inspection.
type StoringHandler struct {
	Fails fails.Repository
}

func (s *StoringHandler) Handle(ctx context.Context, startTime time.Time, query string, err error) error {
	err = s.Fails.Save(context.WithoutCancel(ctx), startTime, query, err)
	if err != nil {
		err = fmt.Errorf("saving fail: %w", err)
	}

	return err
}
