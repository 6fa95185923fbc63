package fails

import (
	"context"
	"time"
)

// Record is one import that did not complete.
type Record struct {
	Id        uint64    `json:"id"`
	StartTime time.Time `json:"start_time"`
	Query     string    `json:"query"`
	Error     string    `json:"error"`
}

type Repository interface {
	Save(ctx context.Context, startTime time.Time, query string, failure error) error

	// GetFails returns failures that started no later than notAfter, newest first.
	// A zero limit means no limit.
	GetFails(ctx context.Context, notAfter time.Time, limit uint) ([]*Record, error)
	// DeleteById reports whether a row was removed.
	DeleteById(ctx context.Context, id uint64) (bool, error)
}
