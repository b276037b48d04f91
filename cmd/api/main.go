package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/auth"
	"github.com/justsurfingit/connect-jobs/internal/config"
	"github.com/justsurfingit/connect-jobs/internal/database"
	"github.com/justsurfingit/connect-jobs/internal/dtos"
	"github.com/justsurfingit/connect-jobs/internal/handlers"
	"github.com/justsurfingit/connect-jobs/internal/logging"
	"github.com/justsurfingit/connect-jobs/internal/mailer"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/outbox"
	"github.com/justsurfingit/connect-jobs/internal/ratelimit"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"github.com/justsurfingit/connect-jobs/internal/repository/gormstore"
	"github.com/justsurfingit/connect-jobs/internal/repository/memory"
	"github.com/justsurfingit/connect-jobs/internal/services"
	"github.com/justsurfingit/connect-jobs/internal/session"
	"github.com/justsurfingit/connect-jobs/internal/upload"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.Production())
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	log := logging.Component(logger, "main")
	checks := map[string]func(context.Context) error{}

	// Document store
	var store repository.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, database.Options{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLife,
		}, logging.Component(logger, "database"))
		if err != nil {
			return err
		}
		if cfg.DBAutoMigrate {
			log.Info("running migrations")
			if err := database.Migrate(db); err != nil {
				return err
			}
		}
		store = gormstore.New(db)
		checks["postgres"] = database.Ping(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		store = memory.New()
	}

	// Sessions and rate limiting
	var (
		sessions      session.Store
		memSessions   *session.MemoryStore
		applyLimiter  ratelimit.Limiter
		memoryLimiter *ratelimit.MemoryLimiter
	)
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		sessions = session.NewRedisStore(client)
		applyLimiter = ratelimit.NewRedisLimiter(client, "ratelimit:", cfg.ApplyRateLimit, cfg.ApplyRateWindow)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		log.Warn("REDIS_URL not set, sessions and rate limits are per process")
		memSessions = session.NewMemoryStore()
		memoryLimiter = ratelimit.NewMemoryLimiter(cfg.ApplyRateLimit, cfg.ApplyRateWindow)
		sessions, applyLimiter = memSessions, memoryLimiter
	}

	// Mail transport
	var mail mailer.Mailer = mailer.NewLogMailer(logging.Component(logger, "mailer"))
	if gm, err := newGmailMailer(ctx, cfg); err != nil {
		log.WithError(err).Warn("Gmail unavailable, emails will be logged instead of sent")
	} else {
		mail = gm
		log.Info("Gmail service connected")
	}

	// Job extraction
	var extractor *services.JobExtractor
	if cfg.GeminiAPIKey != "" {
		var err error
		extractor, err = services.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logging.Component(logger, "extractor"))
		if err != nil {
			return err
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, job extraction disabled")
	}

	// Services
	resumePolicy := upload.ResumePolicy(cfg.MaxResumeBytes)
	picturePolicy := upload.PicturePolicy(cfg.MaxPictureBytes)
	appService := services.NewApplicationService(store, resumePolicy,
		services.DecisionEmails{FrontendURL: cfg.FrontendURL}, logging.Component(logger, "applications"))
	jobService := services.NewJobService(store, logging.Component(logger, "jobs"))
	authService := services.NewAuthService(store.Users, sessions, cfg.SessionTTL, logging.Component(logger, "auth"))
	userService := services.NewUserService(store.Users, picturePolicy)

	// Background delivery and housekeeping
	dispatcher := outbox.NewDispatcher(store.Outbox, mail, outbox.Config{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		Lease:        cfg.OutboxLease,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		BaseBackoff:  cfg.OutboxBaseBackoff,
		MaxBackoff:   cfg.OutboxMaxBackoff,
		SendRate:     cfg.OutboxSendRate,
		Retention:    cfg.OutboxRetention,
	}, logging.Component(logger, "outbox"))

	scheduler := outbox.NewScheduler(logging.Component(logger, "scheduler"))
	if err := scheduleMaintenance(scheduler, cfg.MaintenanceSpec, dispatcher, memSessions, memoryLimiter, cfg.ApplyRateWindow); err != nil {
		return err
	}

	// HTTP
	dtos.RegisterWithGin()
	maxUpload := cfg.MaxResumeBytes
	if cfg.MaxPictureBytes > maxUpload {
		maxUpload = cfg.MaxPictureBytes
	}
	httpLog := logging.Component(logger, "http")
	router := handlers.NewRouter(handlers.RouterConfig{
		Log:         httpLog,
		FrontendURL: cfg.FrontendURL,
		Authenticator: &middleware.Authenticator{
			Sessions:   sessions,
			Users:      store.Users,
			CookieName: cfg.SessionCookie,
			Log:        httpLog,
		},
		ApplyLimiter:   applyLimiter,
		MaxUploadBytes: maxUpload,
		Jobs:           handlers.NewJobHandler(jobService, extractor, httpLog),
		Applications:   handlers.NewApplicationHandler(appService, upload.NewIntake(resumePolicy), httpLog),
		Users:          handlers.NewUserHandler(userService, upload.NewIntake(picturePolicy), httpLog),
		Auth:           handlers.NewAuthHandler(authService, cfg.SessionCookie, cfg.Production(), httpLog),
		Health:         &handlers.HealthHandler{Checks: checks},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       time.Minute,
	}

	dispatcher.Start(ctx)
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	dispatcher.Stop()
	scheduler.Stop(shutdownCtx)
	log.Info("server stopped")
	return nil
}

func newGmailMailer(ctx context.Context, cfg *config.Config) (*mailer.GmailMailer, error) {
	if cfg.EmailFrom == "" {
		return nil, errors.New("EMAIL_USER not set")
	}
	client, err := auth.GmailClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	return mailer.NewGmailMailer(svc, cfg.EmailFrom), nil
}

func scheduleMaintenance(s *outbox.Scheduler, spec string, d *outbox.Dispatcher, sessions *session.MemoryStore, limiter *ratelimit.MemoryLimiter, window time.Duration) error {
	if err := s.Add(spec, "outbox-purge", func(ctx context.Context) error {
		_, err := d.PurgeSent(ctx)
		return err
	}); err != nil {
		return err
	}
	if err := s.Add("@every 1m", "outbox-pending", func(ctx context.Context) error {
		_, err := d.RefreshPending(ctx)
		return err
	}); err != nil {
		return err
	}
	if sessions != nil {
		if err := s.Add(spec, "session-purge", func(context.Context) error {
			sessions.Purge()
			return nil
		}); err != nil {
			return err
		}
	}
	if limiter != nil {
		if err := s.Add(spec, "ratelimit-cleanup", func(context.Context) error {
			limiter.Cleanup(window)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
