package response

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"bookstore/internal/problem"
)

type Responder struct {
	DebugMode bool
}

// RespondError reports problems with their own status and category; anything else is treated
// as an unexpected failure (500, logged with an error id).
func (rr *Responder) RespondError(w http.ResponseWriter, ctx context.Context, err error) {
	p, ok := problem.As(err)
	if !ok || p.Code == problem.CodeInternal {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	lvl := slog.LevelInfo
	if p.Code == problem.CodeUpstream {
		lvl = slog.LevelWarn
	}
	log(ctx, lvl, err.Error(), slog.String("code", string(p.Code)))

	rr.render(w, ctx, p.HTTPStatus(), map[string]any{
		"error": map[string]string{p.Category: p.Hint},
	})
}

// RespondAndLogError will respond with generic error code (500) and log with slog.LevelError level
func (rr *Responder) RespondAndLogError(w http.ResponseWriter, ctx context.Context, err error) {
	errId := uuid.NewString()
	log(ctx, slog.LevelError, err.Error(), slog.String("err_id", errId))
	rr.renderError(w, ctx, http.StatusInternalServerError, err.Error(), errId)
}

func (rr *Responder) SendJson(w http.ResponseWriter, ctx context.Context, data any) {
	rr.SendJsonStatus(w, ctx, http.StatusOK, data)
}

func (rr *Responder) SendJsonStatus(w http.ResponseWriter, ctx context.Context, status int, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func (rr *Responder) renderError(w http.ResponseWriter, ctx context.Context, status int, message, errId string) {
	var hint string
	if rr.DebugMode {
		r, s := utf8.DecodeRuneInString(message)
		hint = string(unicode.ToUpper(r)) + message[s:]
	} else {
		hint = "Unknown error occurred while processing your request. Error ID: " + errId
	}

	rr.render(w, ctx, status, map[string]any{
		"error": map[string]string{"Exception": hint},
	})
}

func (rr *Responder) render(w http.ResponseWriter, ctx context.Context, status int, data any) {
	bs, err := json.Marshal(data)
	if err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		log(ctx, slog.LevelError, "cannot marshall error response body: "+err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		bs = []byte("unknown error")
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

// Needed because it skips one more frame item than the slog.Log
func log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	l := slog.Default()

	if !l.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	pc = pcs[0]

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
