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

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"messmate/internal/account"
	"messmate/internal/announcement"
	"messmate/internal/attendance"
	"messmate/internal/auth"
	"messmate/internal/cache"
	"messmate/internal/config"
	"messmate/internal/expense"
	"messmate/internal/feedback"
	"messmate/internal/httpapi"
	"messmate/internal/httpmiddleware"
	"messmate/internal/imagestore"
	"messmate/internal/logger"
	"messmate/internal/mailer"
	"messmate/internal/meal"
	"messmate/internal/menu"
	"messmate/internal/metrics"
	"messmate/internal/notify"
	"messmate/internal/queue"
	"messmate/internal/store"
)

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

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "messmate:jobs", log.Named("queue"))
	}

	var otps cache.Cache
	if cfg.CacheBackend == "memory" {
		mem := cache.NewMemory(clockwork.NewRealClock())
		go mem.Run(ctx, time.Minute)
		otps = mem
	} else {
		otps = cache.NewRedis(redisClient.Client, "messmate:cache:")
	}

	met := metrics.New(prometheus.DefaultRegisterer)
	signer := newSigner(cfg)

	menus := menu.NewService(menu.NewRepository(db.Client), schedule, log.Named("menu"))
	attendanceRepo := attendance.NewRepository(db.Client)
	accounts := account.NewService(account.NewRepository(db.Client), otps, q, signer, cfg.Account.OTPTTL, log.Named("account"))

	if err := accounts.EnsureAdmin(ctx, cfg.Account.AdminEmail, cfg.Account.AdminPassword); err != nil {
		return err
	}

	// Without a shared broker the worker process never sees these jobs.
	if cfg.QueueBackend == "memory" {
		sender, err := mailer.SenderFor(cfg.SMTP, log.Named("smtp"))
		if err != nil {
			return err
		}
		m := mailer.New(sender, cfg.SMTP.LogoURL)
		go func() {
			if err := m.Work(ctx, q, met, log.Named("mail")); err != nil {
				log.Error("in-process mail worker", zap.Error(err))
			}
		}()
	}

	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin, nil)
	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				limiter.Prune(10 * time.Minute)
			}
		}
	}()

	r := httpapi.NewRouter(httpapi.Deps{
		Log:           log.Named("http"),
		Signer:        signer,
		Attendance:    attendance.NewService(attendanceRepo, menus, schedule, met, log.Named("attendance")),
		Menu:          menus,
		Expense:       expense.NewService(expense.NewRepository(db.Client), schedule, log.Named("expense")),
		Accounts:      accounts,
		Announcements: announcement.NewService(announcement.NewRepository(db.Client)),
		Feedback:      feedback.NewService(feedback.NewRepository(db.Client)),
		EmailStatus:   notify.NewStatusRepository(db.Client),
		Images:        imagestore.New(cfg.Cloudinary),
		Limiter:       limiter,
		CORSOrigins:   cfg.CORSOrigins,
		Gatherer:      prometheus.DefaultGatherer,
		Health: map[string]httpapi.HealthCheck{
			"db":    db.Healthy,
			"redis": redisClient.Healthy,
		},
	})

	if cfg.Cloudinary.Enabled() {
		log.Info("cloudinary configured", zap.String("cloud", cfg.Cloudinary.CloudName))
	} else {
		log.Info("cloudinary not configured, food image uploads disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("timezone", schedule.Location().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}

func newSigner(cfg config.App) *auth.Signer {
	return auth.NewSigner(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
}
