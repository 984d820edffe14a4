package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/api/middleware"
	"taskboard/internal/app/service"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/database"
	"taskboard/internal/platform/logger"
	"taskboard/internal/platform/redisx"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("server exited", "error", err)
	}
}

func run() error {
	var envFile string
	var migrateOnly bool
	flagSet := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", "", "path to a .env file (default: .env)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply database migrations and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// 1. Load Configuration
	if envFile != "" {
		config.Load(envFile)
	} else {
		config.Load()
	}
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("configuration loaded", "env", cfg.AppEnv, "storage", cfg.StorageDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	var (
		userRepo repository.UserRepository
		taskRepo repository.TaskRepository
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if err := database.Connect(ctx, cfg.DBConnStr); err != nil {
			return err
		}
		defer database.Close()
		if cfg.DBAutoMigrate || migrateOnly {
			if err := database.Migrate(ctx, database.DB); err != nil {
				return err
			}
		}
		userRepo = repository.NewPgUserRepository(database.DB)
		taskRepo = repository.NewPgTaskRepository(database.DB)
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		userRepo = repository.NewMemoryUserRepository()
		taskRepo = repository.NewMemoryTaskRepository()
	}
	if migrateOnly {
		logger.Info("migrations complete")
		return nil
	}

	// 3. Initialize Redis
	if err := redisx.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		return err
	}
	defer redisx.CloseRedis()

	var denylist repository.TokenDenylist
	switch {
	case redisx.RDB != nil:
		denylist = repository.NewRedisTokenDenylist(redisx.RDB)
	case cfg.StorageDriver == config.StorageMemory:
		denylist = repository.NewMemoryTokenDenylist()
	}

	// 4. Initialize Services
	codec := security.NewTokenCodec(cfg.JWTKey, cfg.JWTExp)
	transport := security.NewCookieTransport(cfg.AccessCookieName, cfg.JWTExp, cfg.IsProduction())
	authService := service.NewAuthService(userRepo, codec, denylist, cfg.AllowRoleOnSignup)
	identityService := service.NewIdentityService(userRepo, codec, transport, denylist)
	taskService := service.NewTaskService(taskRepo)

	// 5. Initialize Router & HTTP Server
	router := api.NewRouter(
		api.Options{FrontendOrigin: cfg.FrontendOrigin, Debug: cfg.Debug()},
		authService, identityService, taskService, transport,
		middleware.NewRateLimiter(redisx.RDB, cfg.AuthRateLimit, cfg.AuthRateWindow),
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 6. Graceful Shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
