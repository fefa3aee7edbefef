package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sheetflow/sheetflow/internal/catalog"
	"github.com/sheetflow/sheetflow/internal/config"
	"github.com/sheetflow/sheetflow/internal/db"
	"github.com/sheetflow/sheetflow/internal/importer"
	"github.com/sheetflow/sheetflow/internal/issuetype"
	"github.com/sheetflow/sheetflow/internal/jira"
	"github.com/sheetflow/sheetflow/internal/mapper"
	"github.com/sheetflow/sheetflow/internal/middleware"
	"github.com/sheetflow/sheetflow/internal/payload"
	"github.com/sheetflow/sheetflow/internal/permission"
	"github.com/sheetflow/sheetflow/internal/repository"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Optional import-log persistence
	var logRepo repository.ImportLogRepository
	if cfg.DatabaseEnabled {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		logRepo = repository.NewImportLogRepository(conn.Pool)
	}

	// Wire the pipeline: client → caches → mapper/validator/builder → importer
	client := jira.NewClient(cfg.Jira.URL, cfg.Jira.Username, cfg.Jira.APIToken)
	fieldCatalog := catalog.New(client)
	typeResolver := issuetype.NewResolver(client)
	columnMapper := mapper.New(fieldCatalog)
	validator := permission.New(typeResolver)
	builder := payload.New(fieldCatalog, typeResolver)
	imp := importer.New(cfg.Jira, columnMapper, validator, builder, client, logRepo)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	importHandler := middleware.LoggingMiddleware(importer.NewHTTPHandler(imp))

	mux := http.NewServeMux()
	mux.Handle("/import", corsHandler.Handler(importHandler))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting import server on %s", cfg.Server.Addr)
		log.Printf("Upload endpoint available at http://localhost%s/import", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
