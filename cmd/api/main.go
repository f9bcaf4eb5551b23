package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafkaalerts "paws-and-places/internal/adapters/alerts/kafka"
	"paws-and-places/internal/adapters/auth/ownertoken"
	s3media "paws-and-places/internal/adapters/media/s3"
	pg "paws-and-places/internal/adapters/storage/postgres"
	"paws-and-places/internal/domain/animals"
	"paws-and-places/internal/platform/config"
	"paws-and-places/internal/platform/logger"
	"paws-and-places/internal/router"
)

func main() {
	log := logger.NewFromEnv("paws-api")

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// El mismo ctx de señales acota el changefeed: al recibir SIGTERM se
	// cierra la suscripción junto con el server.
	opts := router.Options{Log: log, BaseContext: ctx}

	// Record store: Postgres si hay DSN, in-memory si no.
	if cfg.DBDSN != "" {
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("db open", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()

		if err := pg.MigrateUp(db); err != nil {
			log.Error("db migrate", map[string]any{"error": err.Error()})
			os.Exit(1)
		}

		opts.DB = db
		opts.DSN = cfg.DBDSN
	} else {
		log.Warn("DB_DSN not set, using in-memory store", nil)
	}

	// Sesión de owner
	if cfg.OwnerPassword != "" {
		tokens := ownertoken.NewService(cfg.OwnerPassword, cfg.TokenSecret, cfg.TokenTTL)
		opts.AuthVerifier = tokens
		opts.Login = animals.LoginFunc(tokens.Login)
	} else {
		log.Warn("OWNER_PASSWORD not set, owner auth in debug mode", nil)
	}

	// Canal de alertas de emergencia
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafkaalerts.NewPublisher(cfg.KafkaBrokers)
		defer pub.Close()
		opts.Alerts = pub
	}

	// Blob store para fotos y QRs
	if cfg.S3Bucket != "" {
		store, err := s3media.NewStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL)
		if err != nil {
			log.Error("s3 store", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts.Media = store
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		log.Info("shutdown complete", nil)
	}
}
