package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bookstore/internal/problem"
	"bookstore/internal/types"
)

// Provider looks up candidate books by author name.
type Provider interface {
	SearchByAuthor(ctx context.Context, authors string) ([]types.Candidate, error)
}

type Service struct {
	Provider   Provider
	Reconciler *Reconciler
	OnError    ErrorHandler
	Logger     *slog.Logger
}

// Import queries the provider for authors and reconciles the result.
// Failures are handed to OnError before being returned.
func (s *Service) Import(ctx context.Context, authors string) (int, error) {
	authors = strings.TrimSpace(authors)
	if authors == "" {
		return 0, problem.Validation("Missing parameter", "authors is required")
	}

	start := time.Now()

	n, err := s.importAuthors(ctx, authors)
	if err != nil {
		s.Logger.WarnContext(ctx, "import failed",
			slog.String("authors", authors), slog.String("error", err.Error()))

		if s.OnError != nil {
			if herr := s.OnError.Handle(ctx, start, authors, err); herr != nil {
				s.Logger.ErrorContext(ctx, "failed to record import failure: "+herr.Error())
			}
		}

		return 0, err
	}

	s.Logger.InfoContext(ctx, "import done",
		slog.String("authors", authors), slog.Int("imported", n), slog.Duration("took", time.Since(start)))

	return n, nil
}

func (s *Service) importAuthors(ctx context.Context, authors string) (int, error) {
	candidates, err := s.Provider.SearchByAuthor(ctx, authors)
	if err != nil {
		return 0, problem.Upstream("metadata provider request failed", err)
	}

	return s.Reconciler.Reconcile(ctx, candidates)
}
