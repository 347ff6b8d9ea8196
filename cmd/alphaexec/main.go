package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/alphaexec/internal/config"
	"github.com/efreitasn/alphaexec/internal/construction"
	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/gateway"
	"github.com/efreitasn/alphaexec/internal/handler"
	"github.com/efreitasn/alphaexec/internal/ledger"
	"github.com/efreitasn/alphaexec/internal/marketdata"
	"github.com/efreitasn/alphaexec/internal/service"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Universe, frozen by the session once trading starts.
	universe := domain.NewUniverse()
	if err := universe.AddList(cfg.Universe); err != nil {
		logger.Error("failed to build universe", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Collaborators.
	data := marketdata.NewMemory()
	gw := gateway.NewPaper(cfg.PaperAutoFill, cfg.EventBuffer, logger)
	book := ledger.New()

	hook := service.HookFunc(func(_ context.Context, r service.RebalanceReport) {
		if r.OrderErr != nil {
			logger.Warn("rebalance orders rejected",
				slog.String("task_id", r.TaskID),
				slog.String("error", r.OrderErr.Error()),
			)
		}
	})

	session, err := service.NewSession(service.Config{
		Universe:      universe,
		Cash:          cfg.InitialCash,
		PositionRatio: cfg.PositionRatio,
		LotSize:       cfg.LotSize,
		SequenceLimit: cfg.SequenceLimit,
		PriceTarget:   domain.PriceTarget(cfg.PriceTarget),
		Renormalize:   cfg.Renormalize,
		Method:        cfg.PCMethod,
		MCSamples:     cfg.MCSamples,
		MCSeed:        cfg.MCSeed,
		Revenue:       construction.ExpectedReturns(cfg.ExpectedReturns),
		Risk:          construction.DiagonalRisk(cfg.RiskVariances),
		Cost:          construction.LinearCost{Rate: cfg.CostRate},
		RiskCoef:      cfg.RiskCoef,
		CostCoef:      cfg.CostCoef,
	}, data, gw, book, hook, logger)
	if err != nil {
		logger.Error("failed to create session", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Router.
	router := handler.NewRouter(session, data, logger)

	// Start the gateway flusher and the event pump with a cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.Start(ctx)
	go session.Run(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Int("universe", universe.Len()),
			slog.String("method", session.ActiveMethod()),
			slog.Int("trade_date", session.TradeDate()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, then the gateway and event pump.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
