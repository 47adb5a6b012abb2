package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"messmate/internal/attendance"
	"messmate/internal/config"
	"messmate/internal/logger"
	"messmate/internal/mailer"
	"messmate/internal/meal"
	"messmate/internal/metrics"
	"messmate/internal/notify"
	"messmate/internal/queue"
	"messmate/internal/store"
)

// Worker delivers queued account emails and sends the kitchen headcount email
// at every meal cutoff.
func main() {
	cfg, err := config.Load(os.Getenv("MESSMATE_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
}

func run(cfg config.App, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	schedule, err := meal.ParseSchedule(cfg.Meals.Timezone, cfg.Meals.BreakfastCutoff, cfg.Meals.LunchCutoff, cfg.Meals.DinnerCutoff)
	if err != nil {
		return err
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := store.Migrate(db.Client, log); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = redisClient.Close() }()

	met := metrics.New(prometheus.DefaultRegisterer)
	if cfg.MetricsPort != "" {
		go serveMetrics(ctx, ":"+cfg.MetricsPort, log)
	}

	sender, err := mailer.SenderFor(cfg.SMTP, log.Named("smtp"))
	if err != nil {
		return err
	}
	m := mailer.New(sender, cfg.SMTP.LogoURL)

	if cfg.Notify.Enabled {
		opts := notify.Options{
			Recipient:   cfg.Notify.KitchenEmail,
			SendTimeout: cfg.Notify.SendTimeout,
			LockTTL:     cfg.Notify.LockTTL,
			Clock:       clockwork.NewRealClock(),
			Metrics:     met,
			Log:         log.Named("notify"),
		}
		// Several workers may share one database; the lock keeps them from
		// mailing the same summary twice.
		if cfg.QueueBackend == "redis" {
			opts.Locker = notify.NewRedisLocker(redisClient.Client, "messmate:notify:")
		}
		scheduler := notify.New(schedule, notify.NewStatusRepository(db.Client), attendance.NewRepository(db.Client), m, opts)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	} else {
		log.Info("kitchen notifications disabled")
	}

	if cfg.QueueBackend == "memory" {
		// Jobs published to an in-memory queue are handled by the api process.
		log.Info("memory queue backend, mail jobs are delivered by the api")
		<-ctx.Done()
		log.Info("worker stopped")
		return nil
	}

	q := queue.NewRedisQueue(redisClient.Client, "messmate:jobs", log.Named("queue"))
	if err := m.Work(ctx, q, met, log.Named("mail")); err != nil {
		return err
	}
	log.Info("worker stopped")
	return nil
}

func serveMetrics(ctx context.Context, addr string, log *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Warn("metrics server", zap.Error(err))
	}
}
