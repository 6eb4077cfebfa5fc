// Package server initializes and runs the main application: it opens the
// database, wires repositories, services and the object store together,
// starts the HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spacebox-app/spacebox/internal/logging"
	"github.com/spacebox-app/spacebox/internal/server/config"
	"github.com/spacebox-app/spacebox/internal/server/httpapi"
	"github.com/spacebox-app/spacebox/internal/server/repositories/repomanager"
	"github.com/spacebox-app/spacebox/internal/server/services"
	"github.com/spacebox-app/spacebox/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	blobs, err := storage.NewS3Store(ctx, storage.S3Config{
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		PublicBaseURL: cfg.S3PublicBaseURL,
		Timeout:       cfg.StorageTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	us := services.NewUserService(db, rm)
	ss := services.NewSpaceService(db, rm)
	ups := services.NewUploadService(db, rm, blobs, ss, logger)
	cs := services.NewContentService(db, rm, ss)

	srv := httpapi.NewServer(cfg.EndpointAddr, logger, us, ss, ups, cs)

	return &App{config: cfg, logger: logger, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
