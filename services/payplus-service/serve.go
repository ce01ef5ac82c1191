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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ashendes/payplus-connector/internal/config"
	"github.com/ashendes/payplus-connector/internal/database"
	"github.com/ashendes/payplus-connector/internal/gateway"
	"github.com/ashendes/payplus-connector/internal/handlers"
	"github.com/ashendes/payplus-connector/internal/metrics"
	"github.com/ashendes/payplus-connector/internal/orders"
	"github.com/ashendes/payplus-connector/internal/patterns"
	"github.com/ashendes/payplus-connector/internal/session"
	"github.com/ashendes/payplus-connector/internal/signer"
	"github.com/ashendes/payplus-connector/internal/store"
	"github.com/ashendes/payplus-connector/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the checkout and webhook HTTP service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s, err := signer.New(cfg.Merchant.Secret)
	if err != nil {
		return err
	}

	db, err := database.Open(database.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	txns := store.NewGormStore(db)
	orderStore := orders.NewGormStore(db)
	client := gateway.NewClient(gateway.Options{
		Timeout:       cfg.Gateway.Timeout,
		MaxConcurrent: cfg.Gateway.MaxConcurrent,
		Breaker:       patterns.BreakerSettings(cfg.Gateway.Breaker),
	})

	h := handlers.New(cfg, txns,
		session.NewService(cfg, s, client, txns),
		webhook.NewProcessor(s, txns, orderStore, cfg.OrderStates),
		client)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Gateway.Environment,
		}).Infof("%s starting on port %d", metrics.ServiceName, cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
