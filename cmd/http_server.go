package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/admin"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/core/events"
	"github.com/frahmantamala/store-auth/internal/notify"
	"github.com/frahmantamala/store-auth/internal/permission"
	permissionPostgres "github.com/frahmantamala/store-auth/internal/permission/postgres"
	"github.com/frahmantamala/store-auth/internal/store"
	storePostgres "github.com/frahmantamala/store-auth/internal/store/postgres"
	"github.com/frahmantamala/store-auth/internal/transport"
	"github.com/frahmantamala/store-auth/internal/transport/middleware"
	"github.com/frahmantamala/store-auth/internal/transport/rest"
	"github.com/frahmantamala/store-auth/internal/transport/swagger"
	"github.com/frahmantamala/store-auth/internal/user"
	userPostgres "github.com/frahmantamala/store-auth/internal/user/postgres"
	"github.com/frahmantamala/store-auth/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config      *internal.Config
	SQL         *sqlx.DB
	Gorm        *gorm.DB
	Bus         *events.EventBus
	Broker      *notify.AMQPPublisher
	RateLimiter *middleware.RateLimiter
	Router      *chi.Mux
	Logger      *slog.Logger
}

func (d *Dependencies) Close() {
	if d.Broker != nil {
		if err := d.Broker.Close(); err != nil {
			d.Logger.Error("broker close error", "error", err)
		}
	}
	if err := d.SQL.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	if deps.RateLimiter != nil {
		go deps.RateLimiter.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("server shutdown error", "error", err)
	}
	if err := deps.Bus.Wait(shutdownCtx); err != nil {
		deps.Logger.Warn("event handlers still running at shutdown", "error", err)
	}

	deps.Logger.Info("server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.AppEnv, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(ctx); err != nil {
		return nil, err
	}

	sqlDB, gormDB, err := openDatabases(cfg.Database)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Config: cfg,
		SQL:    sqlDB,
		Gorm:   gormDB,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}

	var mailer notify.Publisher = notify.LogPublisher{Logger: lg}
	if cfg.Messaging.AMQPURL != "" {
		broker, err := notify.NewAMQPPublisher(cfg.Messaging.AMQPURL, cfg.Messaging.EmailQueue, lg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to broker: %w", err)
		}
		deps.Broker = broker
		mailer = broker
	}
	notify.Subscribe(deps.Bus, mailer, lg)

	handlers, err := buildHandlers(deps)
	if err != nil {
		deps.Close()
		return nil, err
	}
	rest.RegisterAllRoutes(deps.Router, handlers)
	return deps, nil
}

func buildHandlers(deps *Dependencies) (rest.Handlers, error) {
	cfg := deps.Config
	lg := deps.Logger

	users := userPostgres.NewUserRepository(deps.Gorm)
	catalog := permissionPostgres.NewCatalogRepository(deps.Gorm)
	grants := permissionPostgres.NewGrantRepository(deps.SQL)
	stores := storePostgres.NewStoreRepository(deps.Gorm)

	clock := auth.SystemClock{}
	tokens, err := auth.NewJWTTokenGenerator(cfg.Security, clock)
	if err != nil {
		return rest.Handlers{}, err
	}
	hasher := auth.NewPasswordHasher(cfg.Security.Argon2)

	authService := auth.NewService(users, tokens, hasher, clock, deps.Bus, lg)
	resolver := permission.NewResolver(grants, lg)
	adminService := admin.NewService(users, hasher, authService, deps.Bus, cfg.Server.FrontendURL, auth.GeneratePassword, lg)
	storeService := store.NewService(stores, users, catalog, resolver, lg)

	base := transport.NewBaseHandler(lg)
	guards := auth.NewGuards(authService, resolver, base)

	checkers := []rest.Checker{
		rest.CheckFunc{Component: "postgres", Fn: deps.SQL.PingContext},
	}
	if deps.Broker != nil {
		checkers = append(checkers, rest.CheckFunc{Component: "rabbitmq", Fn: deps.Broker.Ping})
	}

	if cfg.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, lg)
	}

	return rest.Handlers{
		Base:        base,
		Pipeline:    auth.NewPipeline(guards, base),
		Guards:      guards,
		Auth:        auth.NewHandler(authService),
		User:        user.NewHandler(user.NewService(users)),
		Admin:       admin.NewHandler(adminService),
		Store:       store.NewHandler(storeService),
		Health:      rest.NewHealthHandler(base, checkers...),
		RateLimiter: deps.RateLimiter,
		Origins:     cfg.Server.Origins(),
	}, nil
}

// openDatabases opens one pgx pool and shares it between sqlx and gorm.
func openDatabases(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	sqlDB, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return sqlDB, gormDB, nil
}
