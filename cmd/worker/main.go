package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/notifications"
	"github.com/sehyun-dev/taxlink/internal/observability"
	"github.com/sehyun-dev/taxlink/internal/queue/redisclient"
	"github.com/sehyun-dev/taxlink/internal/queue/worker"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	redisClient := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	defer redisClient.Close()

	pingCtx, cancel := config.WithTimeout(2 * time.Second)
	if err := redisClient.Ping(pingCtx); err != nil {
		log.Error("redis connect failed", "err", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(),
		notifications.ProtectedNotifierConfig{},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:      workerID,
		Concurrency:   4,
		ShutdownGrace: 10 * time.Second,
	}, redisClient, notifier, prom, log)

	// health + metrics on a side port
	mux := http.NewServeMux()
	mux.Handle("/", w.HealthHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	healthSrv := &http.Server{
		Addr:              ":9090",
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", "err", err)
		}
	}()

	log.Info("worker started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancelShutdown := config.WithTimeout(3 * time.Second)
	_ = healthSrv.Shutdown(sctx)
	cancelShutdown()

	log.Info("worker shutdown complete")
}
