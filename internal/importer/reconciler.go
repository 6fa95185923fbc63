// Package importer brings candidate books from the metadata provider into the store.
package importer

import (
	"context"
	"fmt"
	"log/slog"

	"bookstore/internal/problem"
	"bookstore/internal/storage/books"
	"bookstore/internal/types"
)

type Validator interface {
	Validate(s any) error
}

// Reconciler writes candidates into the store, replacing any book that already carries the
// candidate's external id. Replacement is delete + insert, so the book gets a new id.
type Reconciler struct {
	Books     books.Repository
	Validator Validator
	Logger    *slog.Logger
}

// Reconcile returns the number of candidates written. Every candidate is validated before the
// first write, and all writes share one transaction: on any error nothing is persisted.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []types.Candidate) (int, error) {
	for i := range candidates {
		if err := r.Validator.Validate(&candidates[i]); err != nil {
			return 0, problem.Upstream(
				fmt.Sprintf("candidate #%d (%q) is missing or has invalid data", i+1, candidates[i].ExternalId), err)
		}
	}

	var count int
	err := r.Books.WithinTx(ctx, func(tx books.Repository) error {
		count = 0

		for i := range candidates {
			c := &candidates[i]

			existing, err := tx.GetByExternalId(ctx, c.ExternalId)
			if err != nil {
				return fmt.Errorf("looking up external id %s: %w", c.ExternalId, err)
			}

			if existing != nil {
				if _, err := tx.DeleteById(ctx, existing.Id); err != nil {
					return fmt.Errorf("removing book %d for re-import: %w", existing.Id, err)
				}
				r.Logger.DebugContext(ctx, "replacing previously imported book",
					slog.String("external_id", c.ExternalId), slog.Int64("old_id", existing.Id))
			}

			id, err := tx.Insert(ctx, c.IntoBook())
			if err != nil {
				return fmt.Errorf("inserting %s: %w", c.ExternalId, err)
			}

			r.Logger.DebugContext(ctx, "imported book",
				slog.String("external_id", c.ExternalId), slog.Int64("id", id))

			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
