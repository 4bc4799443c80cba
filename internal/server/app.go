// Package server wires the auth service together: it opens the user store,
// builds the use cases and runs the HTTP and gRPC boundaries until the
// process is told to stop.
package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

// Startup store ping backoff.
var (
	storeRetryBase       = 500 * time.Millisecond
	storeRetryMax uint64 = 5
)

var openStore = repomanager.Open

var logOutput io.Writer = os.Stdout

type App struct {
	config     *config.Config
	logger     logging.Logger
	store      repomanager.RepositoryManager
	httpServer *hs.Server
	grpcServer *gs.GRPCServer
}

// NewApp opens and migrates the store, then builds every component. The
// store is closed again if anything fails.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(c.LogLevel, c.LogFormat, logOutput).With("service", "gophauth")

	store, err := openStore(c)
	if err != nil {
		return nil, oops.Code("STORE_OPEN").With("driver", c.StoreDriver).Wrap(err)
	}

	if err := connectStore(ctx, store, logger); err != nil {
		_ = store.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	return newApp(c, logger, store), nil
}

func connectStore(ctx context.Context, store repomanager.RepositoryManager, logger logging.Logger) error {
	backoff := retry.WithMaxRetries(storeRetryMax, retry.NewExponential(storeRetryBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := store.Ping(ctx); err != nil {
			logger.Warn(ctx, "store not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("STORE_UNREACHABLE").With("attempts", attempt).Wrap(err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		return oops.Code("STORE_MIGRATE").Wrap(err)
	}

	logger.Info(ctx, "store ready", "attempts", attempt)
	return nil
}

func newApp(c *config.Config, logger logging.Logger, store repomanager.RepositoryManager) *App {

	hasher := auth.NewBcryptHasher(c.BcryptCost)
	issuer := auth.NewIssuer(c.SecretKey, c.TokenTTL)

	register := services.NewRegisterUser(store.Users(), hasher, logger)
	login := services.NewLoginUser(store.Users(), hasher, issuer, logger)

	var metrics *hs.Metrics
	if c.MetricsEnabled {
		metrics = hs.NewMetrics()
	}

	app := &App{config: c, logger: logger, store: store}

	app.httpServer = hs.NewServer(hs.Options{
		Addr:            c.Addr(),
		APIPrefix:       c.APIPrefix,
		AllowedOrigin:   c.AllowedOrigin,
		Development:     c.IsDevelopment(),
		ShutdownTimeout: c.ShutdownTimeout,
	}, hs.Deps{
		Register: register,
		Login:    login,
		Tokens:   issuer,
		Store:    store,
		Metrics:  metrics,
		Logger:   logger,
	})

	if c.GRPCAddr != "" {
		deps := gs.Deps{
			Register: register,
			Login:    login,
			Tokens:   issuer,
			Store:    store,
			Logger:   logger,
		}
		if metrics != nil {
			deps.Metrics = metrics
		}
		app.grpcServer = gs.NewGRPCServer(c.GRPCAddr, deps)
	}

	return app
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a stop signal arrives or a server
// fails, then closes the store.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "environment", app.config.Environment)

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.httpServer.Run(gctx)
	})

	if app.grpcServer != nil {
		g.Go(func() error {
			return app.grpcServer.Run(gctx)
		})
	}

	runErr := g.Wait()
	if runErr != nil {
		logging.LogError(ctx, app.logger, "server stopped with error", runErr)
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.store.Close(closeCtx); err != nil {
		logging.LogError(ctx, app.logger, "store close failed", err)
		if runErr == nil {
			runErr = err
		}
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}
