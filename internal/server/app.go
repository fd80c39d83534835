// Package server wires configuration, storage, the token ledger and the
// HTTP and gRPC servers into one runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/dmitrijs2005/mediagate/internal/server/config"
	"github.com/dmitrijs2005/mediagate/internal/server/httpapi"
	"github.com/dmitrijs2005/mediagate/internal/server/ledger"
	"github.com/dmitrijs2005/mediagate/internal/server/media"
	"github.com/dmitrijs2005/mediagate/internal/server/metrics"
	"github.com/dmitrijs2005/mediagate/internal/server/storage"
	"github.com/dmitrijs2005/mediagate/internal/server/tokens"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/mediagate/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	signer  *tokens.Signer
	ledger  ledger.Ledger
	store   storage.Backend
	metrics *metrics.Metrics
	db      *sql.DB
}

// newStore is a seam for tests.
var newStore = func(ctx context.Context, c *config.Config) (storage.Backend, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		return storage.NewS3Backend(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
	case config.StorageGCS:
		return storage.NewGCSBackend(ctx, c.GCSBucket, c.GCSEndpoint)
	default:
		return storage.NewDiskBackend(c.DiskDir)
	}
}

// openLedger is a seam for tests.
var openLedger = func(ctx context.Context, dsn string) (ledger.Ledger, *sql.DB, error) {
	if dsn == "" {
		return ledger.NewMemoryLedger(), nil, nil
	}
	return ledger.OpenPostgres(ctx, dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	l, db, err := openLedger(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		signer:  tokens.NewSigner(c.PrivateKey, c.PublicKey, c.TokenValidityDuration),
		ledger:  l,
		store:   store,
		metrics: metrics.New(),
		db:      db,
	}

	if !app.signer.Ready() {
		logger.Warn(ctx, "signing keys are not configured; token issuing is disabled")
	}

	return app, nil
}

// Handler builds the HTTP handler tree.
func (app *App) Handler() (http.Handler, error) {
	upload := media.NewHandler(app.signer, app.ledger, app.store, app.config.URLEndpoint, app.config.MaxUploadBytes, app.metrics, app.logger)

	deps := httpapi.Deps{
		Issuer:      app.signer,
		Upload:      upload,
		Metrics:     app.metrics,
		Logger:      app.logger,
		GuardSecret: app.config.AuthSecretKey,
	}

	if d, ok := app.store.(*storage.DiskBackend); ok {
		u, err := url.Parse(app.config.URLEndpoint)
		if err != nil {
			return nil, fmt.Errorf("url endpoint: %w", err)
		}
		if u.Path != "" && u.Path != "/" {
			deps.Files = d.Handler()
			deps.FilesPrefix = u.Path
		}
	}

	return httpapi.NewRouter(deps), nil
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

// Run starts all servers and blocks until a signal arrives or one of them fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.store.Name())

	app.initSignalHandler(cancelFunc)

	handler, err := app.Handler()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, handler, app.logger).Run(ctx)
	})

	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.signer.Ready()).Run(ctx)
	})

	g.Go(func() error {
		ledger.RunPruner(ctx, app.ledger, app.config.LedgerPruneInterval, app.logger)
		return nil
	})

	err = g.Wait()

	app.close(ctx)

	if err != nil {
		app.logger.Error(ctx, "app stopped", "error", err)
		return err
	}
	app.logger.Info(ctx, "app stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if c, ok := app.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			app.logger.Warn(ctx, "storage close", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close", "error", err)
		}
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}
