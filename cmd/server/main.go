package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"ssfatpf-backend-go/internal/config"
	"ssfatpf-backend-go/internal/content"
	"ssfatpf-backend-go/internal/db"
	httpapi "ssfatpf-backend-go/internal/http"
	"ssfatpf-backend-go/internal/logging"
	"ssfatpf-backend-go/internal/migrations"
	"ssfatpf-backend-go/internal/storage"
	"ssfatpf-backend-go/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	cleanupLogs, err := logging.Setup(cfg.AppEnv, cfg.LogDir, cfg.LogRetentionDays)
	if err != nil {
		log.Warn().Err(err).Msg("file logging disabled")
	}
	defer cleanupLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store")
	}
	defer closeStore()

	objects, err := openStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("object storage")
	}

	catalog, err := content.Load(cfg.ContentPath)
	if err != nil {
		log.Fatal().Err(err).Msg("content catalog")
	}

	server := httpapi.NewServer(cfg, backend, objects, catalog)
	if err := server.Identity.EnsureSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	if _, err := server.Events.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial event stats")
	}
	if _, err := server.Donations.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial donation stats")
	}
	go server.Dashboard.Run(ctx, time.Duration(cfg.DashboardSampleSeconds)*time.Second)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("store", cfg.StoreDriver).Str("storage", cfg.StorageDriver).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Info().Msg("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config) (store.Backend, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Apply(ctx, database, migrations.Bundled()); err != nil {
		database.Close()
		return nil, nil, err
	}
	return store.NewPostgres(database), func() { database.Close() }, nil
}

func openStorage(cfg config.Config) (storage.ObjectStore, error) {
	if cfg.StorageDriver == config.StorageCloudinary {
		return storage.NewCloudinary(cfg.CloudinaryURL)
	}
	return storage.NewFileStore(cfg.MediaStoragePath, cfg.MediaPublicBaseURL)
}
