package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ajebo/storefront-api/checkout"
	"github.com/ajebo/storefront-api/config"
	orderControllers "github.com/ajebo/storefront-api/controllers/order"
	"github.com/ajebo/storefront-api/gateway"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/mailer"
	"github.com/ajebo/storefront-api/models"
	"github.com/ajebo/storefront-api/reconcile"
	"github.com/ajebo/storefront-api/routes"
	"github.com/ajebo/storefront-api/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	logging.Info().Str("port", cfg.Server.Port).Str("db_driver", cfg.Database.Driver).Msg("starting storefront api")

	db, err := initDatabase(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		logging.Fatal().Err(err).Msg("auto-migrate failed")
	}

	st := store.New(db)
	paystack := gateway.NewPaystack(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	hub := orderControllers.NewHub(cfg.Server.AllowedOrigins())
	mail := mailer.New(cfg.SMTP)
	if !mail.Enabled() {
		logging.Info().Msg("SMTP not configured; order emails disabled")
	}

	r := routes.NewRouter(routes.Deps{
		Config:    cfg,
		DB:        db,
		Store:     st,
		Initiator: checkout.NewInitiator(st, paystack, cfg.Server.AppURL),
		Engine:    reconcile.NewEngine(st, paystack, hub.OrderPaid, mail.NotifyOrderPaid),
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// initDatabase sets up the GORM DB connection
func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.DSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite allows one writer; finalize transactions must not interleave.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	default:
		db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(5)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
		return db, nil
	}
}
