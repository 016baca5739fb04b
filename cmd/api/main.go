package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sehyun-dev/taxlink/internal/auth"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/db"
	httpx "github.com/sehyun-dev/taxlink/internal/http"
	"github.com/sehyun-dev/taxlink/internal/observability"
	"github.com/sehyun-dev/taxlink/internal/queue/redisclient"
	"github.com/sehyun-dev/taxlink/internal/repo/postgres"
	"github.com/sehyun-dev/taxlink/internal/service"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx := context.Background()

	// tracing is best effort; the API runs fine without a collector
	shutdownTracer, err := observability.InitTracer(ctx, "taxlink-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed, continuing without tracing", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := config.WithTimeout(3 * time.Second)
			defer cancel()
			_ = shutdownTracer(shutdownCtx)
		}()
	}

	pool, err := db.NewPool(ctx, cfg.DBURL())

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureTaxAccountant(ctx, pool, cfg); err != nil {
		log.Error("seeding tax accountant failed", "err", err)
		os.Exit(1)
	}

	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer redisClient.Close()

	pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
	if err := redisClient.Ping(pingCtx); err != nil {
		log.Error("redis connect failed", "err", err)
		cancelPing()
		os.Exit(1)
	}
	cancelPing()

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	notifsRepo := postgres.NewNotificationsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	mandateSvc := service.NewMandateService(usersRepo, notifsRepo, redisClient, prom, log, cfg.PaymentWindow())
	paymentSvc := service.NewPaymentService(usersRepo, log, cfg.PaymentWindow())
	verifySvc := service.NewVerifyService(redisClient, cfg.VerificationCodeTTL())

	ping := func() error {
		pctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return pool.Ping(pctx)
	}

	router := httpx.NewRouter(httpx.Deps{
		Cfg:            cfg,
		Log:            log,
		Users:          usersRepo,
		Notifs:         notifsRepo,
		Mandates:       mandateSvc,
		Payments:       paymentSvc,
		Verify:         verifySvc,
		JWT:            jwtManager,
		Prom:           prom,
		Ping:           ping,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
