// Package server wires configuration, storage, the auth service and the
// gRPC and metrics endpoints into a runnable application with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	registry    *prometheus.Registry
	issuer      *auth.TokenIssuer
	authService *services.AuthService
}

// Seams for tests.
var (
	openPostgres         = repomanager.OpenPostgres
	newRepositoryManager = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
)

// NewApp validates c and builds every component. A missing signing key is
// reported here, before anything starts listening.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	app := &App{config: c, logger: logger}

	repo, err := app.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewMultiVerifier(bcrypt.DefaultCost)
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(app.registry)

	app.issuer = auth.NewTokenIssuer([]byte(c.SecretKey))
	app.authService = services.NewAuthService(repo, hasher, app.issuer, c.TokenTTL,
		services.WithLogger(logger),
		services.WithMetrics(m),
		services.WithDummyHash(dummyHash),
	)

	return app, nil
}

// openRepository picks the credential store: a users file selects the
// in-memory store, otherwise the Postgres DSN is used. With neither, the
// in-memory store starts empty.
func (app *App) openRepository(ctx context.Context) (users.Repository, error) {
	switch {
	case app.config.UsersFile != "":
		repo, err := users.LoadInMemoryRepository(app.config.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("users file init error: %w", err)
		}
		return repo, nil
	case app.config.DatabaseDSN != "":
		db, err := openPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		m := newRepositoryManager()
		if err := m.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		app.db = db
		return m.Users(db), nil
	default:
		app.logger.Warn(ctx, "no credential store configured, every sign-in will be rejected")
		return users.NewInMemoryRepository()
	}
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The handler is
// released once ctx is done; the returned channel is closed after that.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.issuer)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := metrics.NewServer(app.config.MetricsAddr, app.registry, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives, or one of
// the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	sigDone := app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	cancelFunc()
	<-sigDone
	app.Close()
}

// Close releases the database handle, if any.
func (app *App) Close() {
	if app.db != nil {
		_ = app.db.Close()
		app.db = nil
	}
}
