package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookstore/internal/importer"
	"bookstore/internal/logger"
	"bookstore/internal/provider/googlebooks"
	"bookstore/internal/response"
	"bookstore/internal/server"
	"bookstore/internal/storage/books"
	"bookstore/internal/storage/fails"
	"bookstore/internal/validation"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

func getDurationEnv(key string, default_ time.Duration) time.Duration {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		slog.Warn("Ignoring invalid duration in "+key, slog.String("value", val))
	}

	return default_
}

func getIntEnv(key string, default_ int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		slog.Warn("Ignoring invalid integer in "+key, slog.String("value", val))
	}

	return default_
}

func getFloatEnv(key string, default_ float64) float64 {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		slog.Warn("Ignoring invalid number in "+key, slog.String("value", val))
	}

	return default_
}

var (
	logLevel    = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	logFormat   = getEnvOrDefault("LOG_FORMAT", "text")
	dbConnStr   = getEnvOrDefault("DATABASE_URL", os.Getenv("DATABASE_URL_POSTGRESQL"))
	secretKey   = os.Getenv("SECRET_KEY")
	bindAddr    = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode   = getBoolEnv("DEBUG_MODE")
	corsOrigins = getEnvOrDefault("CORS_ORIGINS", "*")

	googleBooksURL = getEnvOrDefault("GOOGLE_BOOKS_URL", googlebooks.DefaultBaseURL)
	googleBooksKey = os.Getenv("GOOGLE_BOOKS_API_KEY")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	lvlErr := lvl.UnmarshalText([]byte(logLevel))
	if lvlErr != nil {
		lvl = slog.LevelDebug
	}

	err := logger.SetupSLog(os.Stderr, lvl, logFormat, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)
	if err != nil {
		slog.Error("Invalid LOG_FORMAT: " + err.Error())
		os.Exit(1)
	}

	if lvlErr != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	if dbConnStr == "" {
		slog.Error("You need to specify DATABASE_URL env var")
		os.Exit(1)
	}

	if secretKey == "" {
		slog.Warn("SECRET_KEY is not set")
	}

	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		slog.Error("Failed to parse DATABASE_URL: " + err.Error())
		os.Exit(1)
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer(slog.Default())

	ctx := context.Background()

	pg, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		slog.Error("failed to create postgres pool: " + err.Error())
		os.Exit(1)
	}
	defer pg.Close()

	if err := books.EnsureSchema(ctx, pg); err != nil {
		slog.Error("failed to create book table: " + err.Error())
		os.Exit(1)
	}
	if err := fails.EnsureSchema(ctx, pg); err != nil {
		slog.Error("failed to create import_fail table: " + err.Error())
		os.Exit(1)
	}

	bookRepo := books.NewPGXRepository(pg, slog.Default())
	failRepo := fails.NewPGXRepository(pg, slog.Default())
	v := validation.New()

	provider := googlebooks.NewClient(googlebooks.Config{
		BaseURL:    googleBooksURL,
		APIKey:     googleBooksKey,
		Timeout:    getDurationEnv("PROVIDER_TIMEOUT", 15*time.Second),
		MaxRetries: getIntEnv("PROVIDER_RETRIES", 2),
		RPS:        getFloatEnv("PROVIDER_RPS", 5),
	}, slog.Default().With(slog.String("provider", "googlebooks")))

	imp := &importer.Service{
		Provider: provider,
		Reconciler: &importer.Reconciler{
			Books:     bookRepo,
			Validator: v,
			Logger:    slog.Default(),
		},
		OnError: &importer.StoringHandler{Fails: failRepo},
		Logger:  slog.Default(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.AccessLog(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(corsOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Mount("/", server.Handler(bookRepo, failRepo, imp, v, &response.Responder{DebugMode: debugMode}))

	srv := &http.Server{
		Addr:              bindAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("listening", slog.String("addr", bindAddr))
	slog.Error("aborting: " + srv.ListenAndServe().Error())
	os.Exit(1)
}
