// Command dbhealth checks database connectivity and schema readiness.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/easytextract/easytextract/internal/store"
)

func main() {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Println("DB_URL not set, checking the default in-memory sqlite database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, driver, err := store.Open(ctx, dbURL, nil)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Printf("DB health: OK (driver=%s)", driver)

	if err := store.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: FAIL (%v)", err)
	}
	log.Println("schema: OK")

	var jobs int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM extract_job").Scan(&jobs); err != nil {
		log.Fatalf("counting jobs: %v", err)
	}
	log.Printf("extract jobs recorded: %d", jobs)
}
