package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	apihttp "pivtrack/internal/api/http"
	"pivtrack/internal/auth"
	billingapp "pivtrack/internal/billing/application"
	"pivtrack/internal/observability/metrics"
	reconcileapp "pivtrack/internal/reconcile/application"
	"pivtrack/internal/reconcile/infrastructure/memory"
	reconcilepg "pivtrack/internal/reconcile/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init()

	store := memory.NewStore()

	var mirror apihttp.Mirror
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		pgStore := reconcilepg.NewStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		panels, err := pgStore.LoadPanels(ctx)
		if err != nil {
			cancel()
			logger.Fatalf("load panels error: %v", err)
		}
		events, err := pgStore.LoadEvents(ctx)
		cancel()
		if err != nil {
			logger.Fatalf("load events error: %v", err)
		}
		store.Seed(panels, events)
		mirror = pgStore
		logger.Printf("seeded store: panels=%d events=%d", len(panels), len(events))
	}

	billingCfg, err := billingapp.LoadConfig()
	if err != nil {
		logger.Fatalf("billing config error: %v", err)
	}
	calculator, err := billingapp.NewCalculator(store, billingCfg)
	if err != nil {
		logger.Fatalf("billing calculator error: %v", err)
	}

	reconciler, err := reconcileapp.NewService(store, logger)
	if err != nil {
		logger.Fatalf("reconcile service error: %v", err)
	}

	importHandler, err := apihttp.NewImportHandler(reconciler, store, mirror, logger)
	if err != nil {
		logger.Fatalf("import handler error: %v", err)
	}
	eventsHandler, err := apihttp.NewEventsHandler(reconciler, store, mirror, logger)
	if err != nil {
		logger.Fatalf("events handler error: %v", err)
	}
	clearHandler, err := apihttp.NewClearHandler(reconciler, store, mirror, logger)
	if err != nil {
		logger.Fatalf("clear handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/panels", apihttp.NewPanelsHandler(store))
	mux.Handle("/api/v1/panels/", apihttp.NewPanelsHandler(store))
	mux.Handle("/api/v1/billing", apihttp.NewBillingHandler(calculator))
	mux.Handle("/api/v1/billing/", apihttp.NewBillingHandler(calculator))
	mux.Handle("/api/v1/import/panels", importHandler)
	mux.Handle("/api/v1/import/events", importHandler)
	mux.Handle("/api/v1/events", eventsHandler)
	mux.Handle("/api/v1/events/", eventsHandler)
	mux.Handle("/api/v1/admin/clear", clearHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
