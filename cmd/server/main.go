package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexostock/backend/internal/blobstore"
	"nexostock/backend/internal/config"
	"nexostock/backend/internal/httpapi"
	"nexostock/backend/internal/ledger"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var store blobstore.Store
	closers := make([]func() error, 0, 1)

	switch {
	case cfg.DatabaseURL != "":
		pg, err := blobstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		store = pg
		closers = append(closers, pg.Close)
		log.Println("blob store: postgres")
	case cfg.RedisAddr != "":
		rd := blobstore.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rd.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory store; data will not survive restarts", err)
			store = blobstore.NewMemory()
		} else {
			store = rd
			closers = append(closers, rd.Close)
			log.Println("blob store: redis")
		}
	default:
		store = blobstore.NewMemory()
		log.Println("blob store: in-memory; data will not survive restarts")
	}

	engine := ledger.New(store)
	engine.Restore(ctx)

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.OperatorEmail, cfg.OperatorPassword, cfg.OperatorName)

	var static http.Handler
	if cfg.StaticDir != "" {
		static = httpapi.StaticHandler(cfg.StaticDir)
		log.Printf("serving static assets from %s", cfg.StaticDir)
	}
	api := httpapi.New(engine, auth, cfg.AllowedOrigin, static)

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	mirrorDone := make(chan struct{})
	go func() {
		defer close(mirrorDone)
		engine.RunMirror(mirrorCtx, time.Duration(cfg.SnapshotIntervalSeconds)*time.Second)
	}()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("NexoStock backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// Stop the mirror loop; it performs a final flush before exiting.
	stopMirror()
	<-mirrorDone

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
