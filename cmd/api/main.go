package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gatesphere.dev/internal/audit"
	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/httpapi"
	"gatesphere.dev/internal/obs"
	"gatesphere.dev/internal/relay"
	"gatesphere.dev/internal/store"
	"gatesphere.dev/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// Local development reads settings from a .env file; missing is fine.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		st store.Store
		db *sql.DB
	)
	if dsn := os.Getenv("GATESPHERE_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		st = pgStore
		db = pgStore.DB()
	} else {
		log.Println("GATESPHERE_PG_DSN not set, using in-memory store")
		st = store.NewMemory()
	}

	recorder := audit.NewRecorder(st.Audit())
	rl := relay.New(relay.NewRegistry(), st, recorder)
	api := httpapi.New(st, rl, auth.NewOTPIssuer(), httpapi.ReadyProbe{DB: db}, version)

	addr := os.Getenv("GATESPHERE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// Write timeout stays off the socket path: the relay hijacks the
		// connection on upgrade and manages its own deadlines.
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting gatesphere-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	obs.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
