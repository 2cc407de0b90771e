package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/taskswap/taskswap/db"
	"github.com/taskswap/taskswap/internal/auth"
	"github.com/taskswap/taskswap/internal/config"
	"github.com/taskswap/taskswap/internal/handlers"
	"github.com/taskswap/taskswap/internal/logger"
	"github.com/taskswap/taskswap/internal/metrics"
	"github.com/taskswap/taskswap/internal/realtime"
	"github.com/taskswap/taskswap/internal/router"
	"github.com/taskswap/taskswap/internal/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logr := logger.New(cfg.Log)
	defer func() { _ = logr.Sync() }()

	gin.SetMode(cfg.GinMode)

	database, err := db.ConnectDatabase(cfg.Database)

	if err != nil {
		logr.Fatal("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	if err := db.MigrateDatabase(database); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	if err != nil {
		logr.Fatal("failed to configure token issuer", zap.Error(err))
	}

	m := metrics.New()
	hub := realtime.NewHub(logr)
	notifier := realtime.NewNotifier(hub)

	tasks := services.NewTaskService(database, cfg.Database.QueryTimeout, notifier)
	messages := services.NewMessageService(database, cfg.Database.QueryTimeout, notifier)
	users := services.NewUserService(database, cfg.Database.QueryTimeout, 0)

	h := &handlers.Handler{
		DB:             database,
		Tasks:          tasks,
		Messages:       messages,
		Users:          users,
		Issuer:         issuer,
		Hub:            hub,
		Broker:         realtime.NewBroker(hub, tasks, messages, m, logr),
		Metrics:        m,
		Logger:         logr,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server listening", zap.String("addr", server.Addr), zap.String("driver", cfg.Database.Driver))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("failed to start server", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			// One operation so the steps run in order: stop HTTP, drop
			// websocket clients, then release the pool.
			"taskswap": func(ctx context.Context) error {
				logr.Info("graceful shutdown initiated")

				serverErr := server.Shutdown(ctx)
				hub.Close()

				sqlDB, err := database.DB()
				if err != nil {
					return errors.Join(serverErr, err)
				}

				return errors.Join(serverErr, sqlDB.Close())
			},
		},
	)

	exitCode := <-wait
	logr.Info("application exited", zap.Int("code", exitCode))
	_ = logr.Sync()
	os.Exit(exitCode)
}
