package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline-erp/ledgerline-erp/internal/app"
	"github.com/ledgerline-erp/ledgerline-erp/internal/auditlog"
	"github.com/ledgerline-erp/ledgerline-erp/internal/invoicing"
	"github.com/ledgerline-erp/ledgerline-erp/internal/ledger"
	"github.com/ledgerline-erp/ledgerline-erp/internal/masterdata"
	"github.com/ledgerline-erp/ledgerline-erp/internal/platform/cache"
	"github.com/ledgerline-erp/ledgerline-erp/internal/platform/db"
	"github.com/ledgerline-erp/ledgerline-erp/internal/sequence"
	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
	"github.com/ledgerline-erp/ledgerline-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authz := shared.NewPolicyAuthorizer()

	engine := ledger.NewEngine(ledger.NewRepository(dbpool), logger)
	ledgerHandler := ledger.NewHandler(logger, engine, authz)

	directory := masterdata.NewDirectory(dbpool)
	seq := sequence.NewGenerator(sequence.NewRepository(dbpool))
	trail := auditlog.NewService(auditlog.NewRepository(dbpool))

	invoiceSvc := invoicing.NewService(
		invoicing.NewRepository(dbpool),
		directory, directory,
		engine, seq, trail, authz, logger,
		cfg.CompanyState,
	)
	viewCache := invoicing.NewViewCache(invoiceSvc, redisClient, cfg.ViewTTL, logger)
	invoiceHandler := invoicing.NewHandler(logger, invoiceSvc, viewCache, trail)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InvoicingHandler: invoiceHandler,
		LedgerHandler:    ledgerHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
