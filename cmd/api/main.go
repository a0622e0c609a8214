package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kargoline/tmsgo/internal/config"
	"github.com/kargoline/tmsgo/internal/database"
	"github.com/kargoline/tmsgo/internal/handlers"
	"github.com/kargoline/tmsgo/internal/models"
	"github.com/kargoline/tmsgo/internal/services/assignment"
	"github.com/kargoline/tmsgo/internal/services/cancel"
	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/services/repair"
	"github.com/kargoline/tmsgo/internal/store"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		// Master data
		&models.Customer{},
		&models.Driver{},
		&models.Vehicle{},

		// Document chain
		&models.JobOrder{},
		&models.Manifest{},
		&models.ManifestJobOrder{},
		&models.DeliveryOrder{},
		&models.Invoice{},

		// Operational records
		&models.Assignment{},
		&models.StatusHistory{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire up store and services. The cascade registers itself as the
	// job order mutation hook inside cascade.New.
	st := store.New(db)
	casc := cascade.New(st)
	cnc := cancel.New(st)
	asg := assignment.New(st)
	rep := repair.New(st, casc)

	router := handlers.NewRouter(st, casc, cnc, asg, rep)

	// 5. Start server with graceful shutdown
	port := cfg.Port
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server (%s) starting on port %s\n", cfg.Env, port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
