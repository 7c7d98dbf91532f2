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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"breed_site_backend/internal/catalog"
	"breed_site_backend/internal/contact"
	"breed_site_backend/internal/email"
	apphttp "breed_site_backend/internal/http"
	notifhandler "breed_site_backend/internal/notifications/handler"
	"breed_site_backend/internal/notifications/repository"
	notifservice "breed_site_backend/internal/notifications/service"
	"breed_site_backend/internal/pdf"
	quotehandler "breed_site_backend/internal/quotes/handler"
	quoteservice "breed_site_backend/internal/quotes/service"
	"breed_site_backend/internal/scheduler"
	"breed_site_backend/internal/storage"
	"breed_site_backend/internal/webhook"
	"breed_site_backend/internal/whatsapp"
	"breed_site_backend/migrations"
	"breed_site_backend/platform/config"
	"breed_site_backend/platform/db"
	"breed_site_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(cfg, migrations.Files, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	cat, err := catalog.Load()
	if err != nil {
		log.Error("failed to load service catalog", "error", err)
		panic("failed to load service catalog: " + err.Error())
	}

	sender := email.NewSender(cfg)
	if !sender.Enabled() {
		log.Warn("email sending disabled; no mail provider credentials configured")
	}

	channel, err := whatsapp.NewChannel(cfg, log)
	if err != nil {
		log.Error("failed to initialize message channel", "error", err)
		panic("failed to initialize message channel: " + err.Error())
	}
	log.Info("message channel initialized", "channel", channel.Name())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	dispatcher := notifservice.NewDispatcher(
		repository.NewPostgres(pool),
		channel,
		cfg.GetOperatorPhone(),
		cfg.GetRetryMax(),
		cfg.GetPurgeAfter(),
		cfg.GetProviderTimeout(),
		log,
	)

	var renderer quoteservice.DocumentRenderer
	if cfg.IsGotenbergEnabled() {
		renderer = pdf.NewGotenbergClient(cfg.GetGotenbergURL(), cfg.GetGotenbergUsername(), cfg.GetGotenbergPassword(), cfg.GetRenderTimeout())
		log.Info("gotenberg renderer initialized", "url", cfg.GetGotenbergURL())
	} else {
		log.Warn("GOTENBERG_URL not configured; quote generation disabled")
	}

	quoteSvc := quoteservice.New(cat, renderer, sender, log, cfg.GetRenderTimeout(), cfg.GetProviderTimeout())
	quoteSvc.SetOperatorNotifier(dispatcher)
	if cfg.IsMinIOEnabled() {
		archive, err := storage.NewQuoteArchive(cfg)
		if err != nil {
			log.Error("failed to initialize quote archive", "error", err)
			panic("failed to initialize quote archive: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure quote archive bucket", 5, 2*time.Second, func() error {
			return archive.EnsureBucketExists(ctx)
		}); err != nil {
			log.Error("failed to ensure quote archive bucket", "error", err)
			panic("failed to ensure quote archive bucket: " + err.Error())
		}
		quoteSvc.SetArchiver(archive)
		log.Info("quote archive initialized", "bucket", cfg.GetMinioBucketQuotePDFs())
	}

	contactSvc := contact.NewService(sender, dispatcher, log, cfg.GetProviderTimeout())

	dedup := webhook.NewDedup(newRedisClient(cfg, log))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			quotehandler.New(quoteSvc, cat),
			contact.NewHandler(contactSvc),
			notifhandler.New(dispatcher),
			webhook.NewHandler(cfg, dispatcher, dedup, log),
		},
		FormLimited: []string{"/contact", "/generate-quote"},
	}

	engine := apphttp.NewRouter(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, runCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, dispatcher, log)
		if err != nil {
			log.Error("failed to initialize sweep worker", "error", err)
			panic("failed to initialize sweep worker: " + err.Error())
		}
		sweeps, err := scheduler.NewScheduler(cfg, log)
		if err != nil {
			log.Error("failed to initialize sweep scheduler", "error", err)
			panic("failed to initialize sweep scheduler: " + err.Error())
		}
		group.Go(func() error {
			worker.Run(runCtx)
			return nil
		})
		group.Go(func() error {
			return sweeps.Run(runCtx)
		})
	} else {
		log.Warn("REDIS_URL not configured; retry and purge sweeps disabled")
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("shutdown complete")
}

// newRedisClient returns the client used for webhook replay detection, or nil
// when Redis is not configured. Dedup degrades to processing replays.
func newRedisClient(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; webhook dedup disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; webhook dedup disabled", "error", err)
		return nil
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
