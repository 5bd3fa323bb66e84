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

	"saferoute-api/config"
	"saferoute-api/handlers"
	"saferoute-api/logging"
	"saferoute-api/metrics"
	"saferoute-api/notify"
	"saferoute-api/repository"
	"saferoute-api/services"
	"saferoute-api/workers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("saferoute api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	cache, err := services.NewCacheService(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("feed cache unavailable, serving from database", "error", err)
	}
	defer cache.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	opts := []services.Option{services.WithLogger(logger), services.WithMetrics(m)}

	dispatcher := services.NewDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, cfg.Dispatch.Timeout(), opts...)

	var publisher notify.Publisher
	if cfg.MQTT.Enabled() {
		mqttPublisher, err := notify.NewMQTTPublisher(cfg.MQTT, logger)
		if err != nil {
			logger.Warn("mqtt publisher unavailable", "error", err)
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Close()
		}
	}

	smtpSender := notify.NewSMTPSender(cfg.SMTP)
	if !smtpSender.Configured() {
		logger.Warn("smtp credentials not configured, verification emails will be skipped")
	}

	tokens := services.NewVerificationService(repo, opts...)
	notifier := services.NewVerificationNotifier(dispatcher, repo, tokens, smtpSender, publisher, services.NotifierConfig{
		TokenTTL:    cfg.Verification.TokenTTL(),
		FrontendURL: cfg.Verification.FrontendURL,
	}, opts...)
	hazards := services.NewHazardService(repo, notifier, cache, opts...)
	authorities := services.NewAuthorityService(repo, services.NewAuthService(cfg.JWT), tokens, opts...)

	gin.SetMode(cfg.Server.GinMode)
	router, err := handlers.NewRouter(handlers.RouterDeps{
		Hazards:     hazards,
		Authorities: authorities,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	statsWorker := workers.NewStatusGaugeWorker(hazards, m, logger, cfg.Stats.Interval())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", apiServer.Addr)
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.Info("metrics server listening", "addr", metricsServer.Addr)
		return serve(metricsServer)
	})
	g.Go(func() error {
		return statsWorker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
			dispatcher.Close(shutdownCtx),
		)
	})
	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
