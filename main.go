package main

import (
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jankar86/dgi-dash/src/config"
	"github.com/jankar86/dgi-dash/src/database"
	"github.com/jankar86/dgi-dash/src/handlers"
	"github.com/jankar86/dgi-dash/src/logger"
	"github.com/jankar86/dgi-dash/src/services"
	"github.com/jankar86/dgi-dash/src/store"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	serve := flag.Bool("serve", false, "serve the read-only query API instead of ingesting")
	flag.Parse()

	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("dgi-dash starting...")

	db, err := database.Connect(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.RunMigrations(db); err != nil {
		logger.L.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	if *serve {
		serveAPI(db)
		return
	}

	sources := flag.Args()
	if len(sources) == 0 {
		sources, err = discoverSources(config.Cfg.DataDir)
		if err != nil {
			logger.L.Error("Failed to scan data directory", "dir", config.Cfg.DataDir, "error", err)
			os.Exit(1)
		}
	}
	if len(sources) == 0 {
		logger.L.Warn("No CSV sources found, nothing to do", "dir", config.Cfg.DataDir)
		return
	}

	ingestService := services.NewIngestService(db, config.Cfg.DefaultAccountNumber)
	report := ingestService.Run(sources)

	for _, src := range report.Sources {
		if src.Failed() {
			fmt.Printf("%s: ERROR %s\n", src.Path, src.Error)
			continue
		}
		fmt.Printf("%s: %s dialect, %d parsed, %d inserted, %d skipped as duplicate\n",
			src.Path, src.Dialect, src.RowsParsed, src.Inserted, src.Skipped)
	}
	fmt.Printf("run %s: %d inserted, %d skipped across %d sources\n",
		report.RunID, report.TotalInserted(), report.TotalSkipped(), len(report.Sources))
}

// discoverSources lists the *.csv files in dir, sorted for a deterministic
// processing order.
func discoverSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var sources []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		sources = append(sources, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(sources)
	return sources, nil
}

func serveAPI(db *sql.DB) {
	replyCache := cache.New(config.Cfg.CacheTTL, config.Cfg.CacheCleanupInterval)
	dividendHandler := handlers.NewDividendHandler(
		store.NewDividendStore(db),
		store.NewAccountStore(db),
		store.NewRunStore(db),
		replyCache,
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"dgi-dash backend is running"}`))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/data", dividendHandler.HandleGetDividendData)
		r.Get("/accounts", dividendHandler.HandleGetAccounts)
		r.Get("/runs", dividendHandler.HandleGetRuns)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
