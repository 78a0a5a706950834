// Package server wires configuration, storage, persistence and services into
// the HTTP and gRPC servers and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lessonvault/internal/logging"
	"github.com/dmitrijs2005/lessonvault/internal/server/config"
	gs "github.com/dmitrijs2005/lessonvault/internal/server/grpc"
	"github.com/dmitrijs2005/lessonvault/internal/server/httpapi"
	"github.com/dmitrijs2005/lessonvault/internal/server/memory"
	"github.com/dmitrijs2005/lessonvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lessonvault/internal/server/services"
	"github.com/dmitrijs2005/lessonvault/internal/server/storage"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rm      repomanager.RepositoryManager
	sweeper *services.Sweeper
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm := repomanager.NewPostgresRepositoryManager()

	store, err := newObjectStore(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	monitor := memory.New(memory.Thresholds{
		Warning:  c.MemoryWarningBytes,
		Critical: c.MemoryCriticalBytes,
		Cooldown: c.ReclaimCooldown,
		Delta:    c.ReclaimDeltaBytes,
	}, logger)

	us := services.NewUserService(db, rm, c)
	h := httpapi.NewHandler(httpapi.Options{
		Users:             us,
		Credentials:       services.NewCredentialService(store, c.PresignTTL, c.PublicEndpoint(), c.KeyRoot, logger),
		Transfers:         services.NewTransferService(store, monitor, c.StreamThreshold, c.PublicEndpoint(), c.KeyRoot, logger),
		Uploads:           services.NewUploadService(db, rm, store, c.KeyRoot, c.RecordCacheSize, c.RecordCacheTTL, logger),
		DB:                db,
		StorageConfigured: c.StorageConfigured(),
		MultipartMemory:   c.MultipartMemory,
		Logger:            logger,
	})

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		rm:      rm,
		sweeper: services.NewSweeper(db, rm, store, c.KeyRoot, c.SweepInterval, c.SweepGrace, logger),
		handler: httpapi.NewRouter(h, c.CORSOrigins),
	}, nil
}

// newObjectStore picks the configured driver. Without credentials the server
// still starts and every storage call reports the missing configuration.
func newObjectStore(ctx context.Context, c *config.Config, logger logging.Logger) (storage.ObjectStore, error) {
	if !c.StorageConfigured() {
		logger.Warn(ctx, "storage credentials are not configured; uploads will fail until they are set")
		return storage.Unconfigured{BucketName: c.S3Bucket}, nil
	}
	o := storage.Options{
		AccessKey:   c.S3AccessKey,
		SecretKey:   c.S3SecretKey,
		Bucket:      c.S3Bucket,
		Region:      c.S3Region,
		Endpoint:    c.S3BaseEndpoint,
		PartSize:    c.StreamPartSize,
		Concurrency: c.StreamConcurrency,
	}
	switch c.StorageDriver {
	case config.DriverMinio:
		return storage.NewMinioStore(o)
	case config.DriverS3, "":
		return storage.NewS3Store(ctx, o)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, 10*time.Second)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(sctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run applies migrations, then serves HTTP and gRPC and runs the orphan
// sweeper until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	defer app.db.Close()

	if err := app.rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	app.sweeper.Start(ctx)
	defer app.sweeper.Stop()

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return nil
}
