package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spectrumleads/formgate/internal/api"
	"github.com/spectrumleads/formgate/internal/app"
	"github.com/spectrumleads/formgate/internal/app/maintenance"
	iauth "github.com/spectrumleads/formgate/internal/auth"
	"github.com/spectrumleads/formgate/internal/cache"
	"github.com/spectrumleads/formgate/internal/database"
	"github.com/spectrumleads/formgate/internal/middleware"
	"github.com/spectrumleads/formgate/internal/nonce"
	"github.com/spectrumleads/formgate/internal/renderer"
	"github.com/spectrumleads/formgate/internal/settings"
	"github.com/spectrumleads/formgate/internal/spectrum"
	"github.com/spectrumleads/formgate/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("formgate-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	dbStore := cache.NewDatabaseStore(db)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	client, err := buildVendorClient(cfg, dbStore, log)
	if err != nil {
		return err
	}

	settingsRepo := settings.NewGormRepository(db, cfg.Settings.EncryptionKey)
	nonces := nonce.NewService(dbStore, cfg.Cache.NonceTTL)

	formRenderer, err := renderer.New()
	if err != nil {
		return fmt.Errorf("parse form templates: %w", err)
	}

	cleaner := maintenance.NewCleaner(dbStore, maintenance.WithSchedule(cfg.Cache.PurgeSchedule))
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		stopCtx := cleaner.Stop()
		if err := cleaner.RunOnce(stopCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}()

	router, err := api.NewRouter(api.Deps{
		Client:            client,
		Settings:          settingsRepo,
		Nonces:            nonces,
		Renderer:          formRenderer,
		JWT:               jwtService,
		VendorBaseURL:     cfg.Vendor.BaseURL,
		AdminUsername:     cfg.Admin.Username,
		AdminPasswordHash: cfg.Admin.PasswordHash,
		RateStore:         middleware.NewRateStore(dbStore),
		RateLimit:         cfg.Server.RateLimit.MaxRequests,
		RateLimitWindow:   cfg.Server.RateLimit.Window,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// buildVendorClient selects the real HTTP client or the canned sample client
// and wraps either in the requirements cache.
func buildVendorClient(cfg *app.Config, store cache.Store, log *zap.Logger) (spectrum.Client, error) {
	var inner spectrum.Client
	if cfg.Vendor.SampleMode {
		sample := spectrum.NewSampleClient()
		sample.Outcome = cfg.Vendor.SampleOutcome
		inner = sample
		log.Info("vendor sample mode enabled", zap.String("outcome", sample.Outcome))
	} else {
		httpClient, err := spectrum.NewHTTPClient(spectrum.Config{
			BaseURL:        cfg.Vendor.BaseURL,
			AttemptTimeout: cfg.Vendor.AttemptTimeout,
			FinalTimeout:   cfg.Vendor.FinalTimeout,
			MaxRetries:     cfg.Vendor.MaxRetries,
			RetryDelay:     cfg.Vendor.RetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise vendor client: %w", err)
		}
		inner = httpClient
	}

	return spectrum.NewCachedClient(inner, store, cfg.Cache.RequirementsTTL), nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("fetch underlying database handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close database", zap.Error(err))
	}
}
