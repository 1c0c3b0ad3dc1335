/*
Server is the dactylo API executable.

Usage:

	server [flags]

Every flag also reads from a DACTYLO_ prefixed environment variable (see --help).
DACTYLO_JWT_SECRET is required. The schema is created at startup and the catalogue
tables are seeded when empty.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dactylo_api/internal/api"
	"dactylo_api/internal/app/service"
	"dactylo_api/internal/app/worker"
	"dactylo_api/internal/common/security"
	"dactylo_api/internal/domain/repository"
	"dactylo_api/internal/platform/config"
	"dactylo_api/internal/platform/database"
	"dactylo_api/internal/platform/kv"
	"dactylo_api/internal/platform/logging"

	"github.com/ardanlabs/conf"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load Configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.JSON)
	logger.Info("application initializing")

	ctx := context.Background()

	// 2. Initialize Database
	db, err := database.Open(ctx, cfg.DB.Driver, cfg.DSN())
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer db.Close()

	if err := database.Setup(ctx, db, cfg.DB.Seed, logger); err != nil {
		return fmt.Errorf("database setup: %w", err)
	}

	// 3. Lock backend for the weekly job
	var locker kv.Locker = kv.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := kv.Connect(ctx, kv.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = kv.NewRedisLocker(rdb)
		logger.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	}

	// 4. Security
	tokens := security.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWTExpiry())
	hasher := security.NewPasswordHasher(cfg.Password.BcryptCost)
	policy := security.PasswordPolicy{
		MinLength:      cfg.Password.MinLength,
		MaxLength:      cfg.Password.MaxLength,
		RequireUpper:   cfg.Password.RequireUpper,
		RequireLower:   cfg.Password.RequireLower,
		RequireDigit:   cfg.Password.RequireDigit,
		RequireSpecial: cfg.Password.RequireSpecial,
	}

	// 5. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	statRepo := repository.NewStatRepository(db)

	// 6. Initialize Services
	svc := api.Services{
		Auth:       service.NewAuthService(userRepo, hasher, tokens, policy, logger),
		Users:      service.NewUserService(userRepo, hasher, policy, logger),
		Courses:    service.NewCourseService(courseRepo, db, logger),
		Challenges: service.NewChallengeService(challengeRepo, userRepo, db, logger),
		Badges:     service.NewBadgeService(badgeRepo, userRepo, logger),
		Groups:     service.NewGroupService(groupRepo, userRepo, db, logger),
		Exercises:  service.NewExerciseService(exerciseRepo),
		Stats:      service.NewStatService(statRepo, userRepo, db, logger),
	}

	// 7. Weekly challenge worker
	weekly := worker.NewWeeklyChallengeWorker(svc.Challenges, locker, cfg.Scheduler.LockKey, cfg.Scheduler.LockTTL, logger)
	if err := weekly.Start(cfg.Scheduler.WeeklyCron); err != nil {
		return err
	}
	defer weekly.Stop()

	// 8. Router & HTTP Server
	router := api.NewRouter(api.RouterConfig{
		Tokens:         tokens,
		Weekly:         weekly,
		DB:             db,
		Logger:         logger,
		CORSOrigins:    cfg.Web.CORSOrigins,
		RequestTimeout: cfg.Web.RequestTimeout,
	}, svc)

	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           router,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
		IdleTimeout:       cfg.Web.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// 9. Graceful Shutdown
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			if cerr := server.Close(); cerr != nil {
				return fmt.Errorf("could not stop server gracefully: %w", cerr)
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
