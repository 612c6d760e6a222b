package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secure-doc-share/internal/db"
	"secure-doc-share/internal/server"
)

func main() {
	addr := getenvDefault("SDS_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("SDS_VERSION", "dev"),
		Commit:  getenvDefault("SDS_COMMIT", "unknown"),
	}

	tokenSecret := os.Getenv("SDS_TOKEN_SECRET")
	sessionSecret := os.Getenv("SDS_SESSION_SECRET")
	if tokenSecret == "" || sessionSecret == "" {
		log.Printf("service=backend msg=%q", "missing SDS_TOKEN_SECRET or SDS_SESSION_SECRET")
		os.Exit(1)
	}

	dbConn, err := server.OpenDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	mc, bucket, err := server.NewMinioClient()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "minio_connect_failed", err)
		os.Exit(1)
	}

	// The encryption and token services are built once here and handed
	// to the server by value; handlers never reach for package globals.
	crypter := server.NewCrypter(tokenSecret)
	tokens := server.NewTokenService(crypter)
	store := server.NewTokenStore(dbConn)

	srv := server.New(server.Config{
		Addr:    addr,
		BaseURL: getenvDefault("SDS_BASE_URL", ""),
		Build:   build,
		Auth: server.AuthConfig{
			SessionSecret: sessionSecret,
			SessionTTL:    12 * time.Hour,
			CookieName:    "sds_session",
			DB:            dbConn,
		},
		DB:     dbConn,
		Tokens: tokens,
		Store:  store,
		Minio:  mc,
		Bucket: bucket,
		Email:  server.NewEmailService(server.LoadEmailConfig()),
	})

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go server.StartTokenCleanup(cleanupCtx, server.TokenCleanupConfig{
		Enabled:  getenvDefault("SDS_TOKEN_CLEANUP_ENABLED", "true") == "true",
		Interval: envDuration("SDS_TOKEN_CLEANUP_INTERVAL", 1*time.Minute),
		Store:    store,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		cancelCleanup()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
