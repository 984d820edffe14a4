// Command createadmin creates an admin account, or promotes an existing
// account with the same email.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"taskboard/internal/app/service"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/repository"
	"taskboard/internal/platform/config"
	"taskboard/internal/platform/database"
	"taskboard/internal/platform/logger"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, name, email, password string
	flagSet := pflag.NewFlagSet("createadmin", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", "", "path to a .env file (default: .env)")
	flagSet.StringVar(&name, "name", "Administrator", "display name for a new account")
	flagSet.StringVar(&email, "email", "", "account email (required)")
	flagSet.StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "password for a new account (default: $ADMIN_PASSWORD)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if email == "" {
		return errors.New("--email is required")
	}

	if envFile != "" {
		config.Load(envFile)
	} else {
		config.Load()
	}
	cfg := config.AppConfig
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("STORAGE_DRIVER=%s has no persistent users to manage", cfg.StorageDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Connect(ctx, cfg.DBConnStr); err != nil {
		return err
	}
	defer database.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, database.DB); err != nil {
			return err
		}
	}

	users := repository.NewPgUserRepository(database.DB)
	codec := security.NewTokenCodec(cfg.JWTKey, cfg.JWTExp)
	authService := service.NewAuthService(users, codec, nil, false)

	user, created, err := authService.EnsureAdmin(ctx, name, email, password)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin created", "user_id", user.ID, "email", user.Email)
	} else {
		logger.Info("admin ensured", "user_id", user.ID, "email", user.Email)
	}
	return nil
}
