package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/course-enrollment/internal"
	"github.com/frahmantamala/course-enrollment/internal/auth"
	authpostgres "github.com/frahmantamala/course-enrollment/internal/auth/postgres"
	"github.com/frahmantamala/course-enrollment/internal/core/events"
	"github.com/frahmantamala/course-enrollment/internal/enrollment"
	enrollmentpostgres "github.com/frahmantamala/course-enrollment/internal/enrollment/postgres"
	"github.com/frahmantamala/course-enrollment/internal/job"
	jobpostgres "github.com/frahmantamala/course-enrollment/internal/job/postgres"
	"github.com/frahmantamala/course-enrollment/internal/payment"
	paymentpostgres "github.com/frahmantamala/course-enrollment/internal/payment/postgres"
	"github.com/frahmantamala/course-enrollment/internal/paymentgateway"
	"github.com/frahmantamala/course-enrollment/internal/training"
	trainingpostgres "github.com/frahmantamala/course-enrollment/internal/training/postgres"
	"github.com/frahmantamala/course-enrollment/internal/transport"
	"github.com/frahmantamala/course-enrollment/internal/transport/rest"
	"github.com/frahmantamala/course-enrollment/internal/user"
	userpostgres "github.com/frahmantamala/course-enrollment/internal/user/postgres"
	"github.com/frahmantamala/course-enrollment/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	EventBus *events.EventBus
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env := "development"
	if config.Observability.Logging.Format == "json" {
		env = "production"
	}
	logger.Init(env)
	log := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the pgx connection pool instead of opening its own
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(log)
	baseHandler := transport.NewBaseHandler(log)

	// auth + user
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
	)
	authService := auth.NewService(authpostgres.NewRepository(gormDB), tokenGen, eventBus)
	authHandler := auth.NewHandler(authService)

	userService := user.NewService(userpostgres.NewRepository(db))
	userHandler := user.NewHandler(userService)

	// payments
	gatewayClient := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:   config.Payment.BaseURL,
		SecretKey: config.Payment.SecretKey,
		Currency:  config.Payment.Currency,
		Timeout:   config.Payment.Timeout,
	}, log)
	orchestrator := payment.NewOrchestrator(
		paymentpostgres.NewTransactionRepository(gormDB),
		gatewayClient,
		eventBus,
		log,
	)
	paymentHandler := payment.NewHandler(orchestrator, log)
	webhookHandler := payment.NewWebhookHandler(baseHandler, orchestrator, config.Payment.SecretKey, log)

	// enrollment: course access is granted only by confirmed payments,
	// delivered through the event bus
	enrollmentService := enrollment.NewService(enrollmentpostgres.NewAccessRepository(gormDB), log)
	enrollment.NewEventHandler(enrollmentService, log).RegisterEventHandlers(eventBus)
	enrollmentHandler := enrollment.NewHandler(enrollmentService, log)

	// training
	videoStore := training.NewCDNVideoStore(config.Content.VideoCDNBaseURL)
	trainingService := training.NewService(trainingpostgres.NewSessionRepository(gormDB), videoStore, log)
	trainingHandler := training.NewHandler(trainingService, log)

	// jobs
	jobService := job.NewService(jobpostgres.NewJobRepository(gormDB), log)
	jobHandler := job.NewHandler(jobService, log)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:       authHandler,
			User:       userHandler,
			Payment:    paymentHandler,
			Webhook:    webhookHandler,
			Enrollment: enrollmentHandler,
			Training:   trainingHandler,
			Job:        jobHandler,
		},
		EventBus: eventBus,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
