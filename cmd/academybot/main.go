// Command academybot runs the football academy Telegram bot.
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

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/academy"
	audithook "github.com/xraph/academy/audit_hook"
	"github.com/xraph/academy/internal/bot"
	"github.com/xraph/academy/internal/config"
	"github.com/xraph/academy/internal/logging"
	"github.com/xraph/academy/observability"
	"github.com/xraph/academy/store/backend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "academybot:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := backend.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	opts := []academy.Option{
		academy.WithLogger(logger),
		academy.WithPlugin(audithook.New(audithook.SlogRecorder(logger))),
	}
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, academy.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))))
		go serveMetrics(ctx, cfg.Metrics.Addr, reg, logger)
	}

	a := academy.New(st, opts...)
	if err := a.Start(ctx); err != nil {
		_ = st.Close()
		return fmt.Errorf("start academy: %w", err)
	}
	defer func() {
		if err := a.Stop(); err != nil {
			logger.Error("academy stop failed", "error", err)
		}
	}()

	if cfg.Store.Seed {
		seeded, err := a.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if seeded {
			logger.Info("catalog seeded")
		}
	}
	checkCurrency(ctx, a, cfg.Payments.Currency, logger)

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Bot.Debug

	b := bot.New(api, a, bot.Config{
		AdminIDs:      cfg.Bot.AdminIDs,
		ProviderToken: cfg.Payments.ProviderToken,
		TestPurchases: cfg.Payments.TestPurchases,
		Workers:       cfg.Bot.Workers,
		HandleTimeout: cfg.Bot.HandleTimeout,
	}, logger)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Bot.PollTimeout
	updates := api.GetUpdatesChan(u)

	logger.Info("bot started",
		"username", api.Self.UserName,
		"store", cfg.Store.Driver,
		"workers", cfg.Bot.Workers,
		"payments", cfg.Payments.ProviderToken != "",
	)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	b.Run(ctx, updates)

	logger.Info("bot stopped")
	return nil
}

// serveMetrics exposes reg on addr until ctx is canceled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", "error", err)
	}
}

// checkCurrency warns about courses priced in a currency the payment
// provider is not configured for; their invoices would be rejected.
func checkCurrency(ctx context.Context, a *academy.Academy, currency string, logger *slog.Logger) {
	courses, err := a.ActiveCourses(ctx)
	if err != nil {
		logger.Warn("currency check skipped", "error", err)
		return
	}
	for _, c := range courses {
		if c.Price.CurrencyCode() != currency {
			logger.Warn("course currency differs from PAYMENT_CURRENCY",
				"course_id", c.ID, "course_currency", c.Price.CurrencyCode(), "payment_currency", currency)
		}
	}
}
