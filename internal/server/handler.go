package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bookstore/internal/catalog"
	"bookstore/internal/problem"
	"bookstore/internal/response"
	"bookstore/internal/storage/books"
	"bookstore/internal/storage/fails"
)

const (
	Banner     = "<h1>STX BookStore</h1>"
	APIVersion = "2022.05.16"

	maxBodyBytes = 1 << 20
)

type Validator interface {
	Validate(s any) error
}

type Importer interface {
	Import(ctx context.Context, authors string) (int, error)
}

var (
	errNoSuchBook = problem.NotFound("Not found", "There is no such id in the database. Try another one.")
	errNoSuchId   = problem.NotFound("No such id in the database", "Try another one")
	errDuplicate  = problem.Conflict("Duplicate external id", "Another book already has this external_id")
	errNoSuchFail = problem.NotFound("No such id in the database", "There is no such failed import")
)

func Handler(br books.Repository, fr fails.Repository, imp Importer, v Validator,
	rr *response.Responder) http.Handler {

	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, Banner)
	})

	r.Get("/api_spec", func(w http.ResponseWriter, r *http.Request) {
		rr.SendJson(w, r.Context(), map[string]any{
			"info": map[string]string{"version": APIVersion},
		})
	})

	r.Get("/books", func(w http.ResponseWriter, r *http.Request) {
		criteria, err := catalog.ParseCriteria(r.URL.Query())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rows, err := br.List(r.Context())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), catalog.Select(rows, criteria))
	})

	r.Get("/books/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookId(r)
		if !ok {
			rr.RespondError(w, r.Context(), errNoSuchBook)
			return
		}

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.RespondError(w, r.Context(), errNoSuchBook)
			return
		}

		rr.SendJson(w, r.Context(), book)
	})

	r.Post("/books", func(w http.ResponseWriter, r *http.Request) {
		book, err := catalog.DecodeNewBook(http.MaxBytesReader(w, r.Body, maxBodyBytes), r.URL.Query())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		if err := v.Validate(book); err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		if _, err := br.Insert(r.Context(), book); err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJsonStatus(w, r.Context(), http.StatusCreated, book)
	})

	r.Patch("/books/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookId(r)
		if !ok {
			rr.RespondError(w, r.Context(), errNoSuchBook)
			return
		}

		patch, err := catalog.ParsePatch(r.URL.Query())
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		book, err := br.GetById(r.Context(), id)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}
		if book == nil {
			rr.RespondError(w, r.Context(), errNoSuchBook)
			return
		}

		edited := patch.Apply(book)
		if err := v.Validate(edited); err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		found, err := br.Update(r.Context(), edited)
		if errors.Is(err, books.ErrDuplicateExternalId) {
			err = errDuplicate.WithCause(err)
		}
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}
		if !found {
			rr.RespondError(w, r.Context(), errNoSuchBook)
			return
		}

		rr.SendJson(w, r.Context(), edited)
	})

	r.Delete("/books/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := bookId(r)
		if !ok {
			rr.RespondError(w, r.Context(), errNoSuchId)
			return
		}

		found, err := br.DeleteById(r.Context(), id)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}
		if !found {
			rr.RespondError(w, r.Context(), errNoSuchId)
			return
		}

		rr.SendJson(w, r.Context(), map[string]any{
			"success": map[string]string{"Item removed": fmt.Sprintf("ID : %d", id)},
		})
	})

	r.Post("/import", func(w http.ResponseWriter, r *http.Request) {
		authors, err := importAuthors(r)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		n, err := imp.Import(r.Context(), authors)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		rr.SendJson(w, r.Context(), map[string]string{"Imported": strconv.Itoa(n)})
	})

	r.Get("/import/fails", func(w http.ResponseWriter, r *http.Request) {
		rows, err := fr.GetFails(r.Context(), time.Now(), uint(getIntOrDefault(r, "limit", 50)))
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}

		if rows == nil {
			rows = make([]*fails.Record, 0)
		}

		rr.SendJson(w, r.Context(), struct {
			Fails []*fails.Record `json:"fails"`
		}{Fails: rows})
	})

	r.Delete("/import/fails/{id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			rr.RespondError(w, r.Context(), errNoSuchFail)
			return
		}

		found, err := fr.DeleteById(r.Context(), id)
		if err != nil {
			rr.RespondError(w, r.Context(), err)
			return
		}
		if !found {
			rr.RespondError(w, r.Context(), errNoSuchFail)
			return
		}

		rr.SendJson(w, r.Context(), map[string]any{
			"success": map[string]string{"Item removed": fmt.Sprintf("ID : %d", id)},
		})
	})

	return r
}

func bookId(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

// importAuthors takes authors from the query string, falling back to a JSON body.
func importAuthors(r *http.Request) (string, error) {
	if authors := strings.TrimSpace(r.URL.Query().Get("authors")); authors != "" {
		return authors, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading request body: %w", err)
	}

	if len(bytes.TrimSpace(raw)) > 0 {
		var body struct {
			Authors string `json:"authors"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return "", problem.Validation("Invalid body", err.Error())
		}
		if authors := strings.TrimSpace(body.Authors); authors != "" {
			return authors, nil
		}
	}

	return "", problem.Validation("Missing parameter", "authors is required")
}

func getIntOrDefault(r *http.Request, key string, default_ int) int {
	if ls := r.URL.Query().Get(key); ls != "" {
		n, err := strconv.Atoi(ls)
		if err == nil && n >= 0 {
			return n
		}
	}

	return default_
}
