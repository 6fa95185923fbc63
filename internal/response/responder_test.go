package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/problem"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body struct {
		Error map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestRespondErrorProblem(t *testing.T) {
	rr := &Responder{}
	w := httptest.NewRecorder()

	rr.RespondError(w, context.Background(),
		fmt.Errorf("wrapped: %w", problem.NotFound("No such id in the database", "Try another one")))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"No such id in the database": "Try another one"}, decodeError(t, w))
}

func TestRespondErrorUnexpectedHidesMessage(t *testing.T) {
	rr := &Responder{}
	w := httptest.NewRecorder()

	rr.RespondError(w, context.Background(), errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Contains(t, body["Exception"], "Error ID: ")
	assert.NotContains(t, body["Exception"], "relation")
}

func TestRespondErrorUnexpectedDebugMode(t *testing.T) {
	rr := &Responder{DebugMode: true}
	w := httptest.NewRecorder()

	rr.RespondError(w, context.Background(), errors.New("relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Relation does not exist", decodeError(t, w)["Exception"])
}

func TestSendJsonStatus(t *testing.T) {
	rr := &Responder{}
	w := httptest.NewRecorder()

	rr.SendJsonStatus(w, context.Background(), http.StatusCreated, map[string]string{"Imported": "3"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"Imported": "3"}`, w.Body.String())
}

func TestSendJsonUnmarshallable(t *testing.T) {
	rr := &Responder{}
	w := httptest.NewRecorder()

	rr.SendJson(w, context.Background(), map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
