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

	"repair-tracker/internal/config"
	"repair-tracker/internal/database"
	"repair-tracker/internal/handlers"
	"repair-tracker/internal/logging"
	"repair-tracker/internal/server"
	"repair-tracker/internal/service"
	"repair-tracker/internal/telemetry"
	"repair-tracker/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "repair-tracker"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var envFile string
	var migrateOnly bool

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", "", "path to .env file (default: ./.env if present)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "apply migrations and seed data, then exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup(ctx, serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	db, closeDB, err := database.Open(ctx, database.Options{DSN: cfg.DBDSN, MaxConns: cfg.DBMaxConns})
	if err != nil {
		return err
	}
	defer closeDB()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.CreateDefaultAdmin(db, database.AdminSeed{
		Login:    cfg.AdminLogin,
		Password: cfg.AdminPassword,
	}); err != nil {
		return err
	}
	if migrateOnly {
		log.Info("migrations applied")
		return nil
	}

	blacklist, closeRedis := newBlacklist(ctx, cfg)
	defer closeRedis()

	st := database.NewStore(db)
	auth := service.NewAuthService(st)
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL, blacklist)
	h := handlers.New(auth, service.NewRequestService(st), service.NewReportService(st), tokens)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(cfg, h, auth, tokens)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// без REDIS_ADDR отозванные токены хранятся в памяти процесса
func newBlacklist(ctx context.Context, cfg *config.Config) (token.Blacklist, func()) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR is not set, token blacklist is in-memory")
		return token.NewMemoryBlacklist(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis is not reachable yet")
	}
	return token.NewRedisBlacklist(client), func() { _ = client.Close() }
}
