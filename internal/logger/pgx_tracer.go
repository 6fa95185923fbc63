package logger

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
)

// NewPGXTracer forwards pgx query logs to l. Statement arguments and the backend pid are dropped;
// arguments may carry user input and the pid is noise.
func NewPGXTracer(l *slog.Logger) *tracelog.TraceLog {
	return &tracelog.TraceLog{
		Logger: tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
			lvl, known := slogLevel(level)
			if !l.Enabled(ctx, lvl) {
				return
			}

			attrs := make([]slog.Attr, 0, len(data)+1)
			for k, v := range data {
				switch k {
				case "args", "pid":
				default:
					attrs = append(attrs, slog.Any(k, v))
				}
			}

			sort.Slice(attrs, func(i, j int) bool {
				return attrs[i].Key < attrs[j].Key
			})

			if !known {
				attrs = append(attrs, slog.Any("INVALID_PGX_LOG_LEVEL", level))
			}

			var pcs [1]uintptr
			// skip [runtime.Callers, this function, this function's caller * 3]
			runtime.Callers(5, pcs[:])

			r := slog.NewRecord(time.Now(), lvl, msg, pcs[0])
			r.AddAttrs(attrs...)
			_ = l.Handler().Handle(ctx, r)
		}),
		LogLevel: tracelog.LogLevelDebug,
	}
}

// pgx is chatty at info level, so everything below warn is demoted to debug.
func slogLevel(l tracelog.LogLevel) (slog.Level, bool) {
	switch l {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug, tracelog.LogLevelInfo:
		return slog.LevelDebug, true
	case tracelog.LogLevelWarn:
		return slog.LevelWarn, true
	case tracelog.LogLevelError:
		return slog.LevelError, true
	default:
		return slog.LevelError, false
	}
}
