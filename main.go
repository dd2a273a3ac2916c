package main

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

	"civicresolve-be/config"
	"civicresolve-be/controllers"
	"civicresolve-be/events"
	"civicresolve-be/middlewares"
	"civicresolve-be/repository"
	"civicresolve-be/routes"
	"civicresolve-be/services"
	"civicresolve-be/storage"
	authUtils "civicresolve-be/utils"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := config.NewLogger(cfg.Log, os.Stderr)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](shutdownCtx); err != nil {
				log.Warn("shutdown step failed", "error", err)
			}
		}
	}()

	mongoClient, err := config.ConnectDB(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	closers = append(closers, mongoClient.Disconnect)
	log.Info("MongoDB connection established", "database", cfg.Mongo.Database)

	db := mongoClient.Database(cfg.Mongo.Database)
	if err := config.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisClient, err := config.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var publisher services.EventPublisher = events.Discard{}
	var reportLimit gin.HandlerFunc
	if redisClient != nil {
		closers = append(closers, func(context.Context) error { return redisClient.Close() })
		publisher = events.NewRedisPublisher(redisClient, cfg.Redis.EventsChannel)
		reportLimit = middlewares.IssueRateLimiter(redisClient, cfg.Redis.QueuePrefix, cfg.Redis.DailyLimit)
		log.Info("Redis connected", "address", cfg.Redis.Address)
	} else {
		log.Warn("REDIS_ADDRESS not set; report rate limit and issue events disabled")
	}

	blobs, err := storage.NewMinioStore(ctx, cfg.Minio)
	if err != nil {
		return err
	}

	codec, err := authUtils.NewSessionCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	officers := repository.NewOfficerRepository(db)
	issues := repository.NewIssueRepository(db)

	identity := services.NewIdentityService(users, officers, codec, log)
	issueService := services.NewIssueService(issues, users, publisher, log)

	var officerSignup gin.HandlerFunc
	if !cfg.Server.OfficerSignupOpen {
		officerSignup = middlewares.RequireAdmin(codec)
	} else {
		log.Warn("officer registration is public; set OFFICER_SIGNUP_OPEN=false outside development")
	}

	router := routes.NewRouter(routes.Handlers{
		Users:         controllers.NewUserController(identity),
		Auth:          controllers.NewAuthController(identity),
		Issues:        controllers.NewIssueController(issueService, blobs),
		Gates:         routes.NewIssueGates(codec, reportLimit),
		OfficerSignup: officerSignup,
	}, routes.RouterOptions{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	closers = append(closers, server.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		return nil
	case err := <-errCh:
		return err
	}
}
