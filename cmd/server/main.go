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

	"agencyblog/internal/config"
	"agencyblog/internal/content"
	"agencyblog/internal/db"
	"agencyblog/internal/events"
	"agencyblog/internal/identity"
	"agencyblog/internal/repository"
	"agencyblog/internal/router"
	"agencyblog/internal/services"
	"agencyblog/internal/telemetry"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading configuration from the environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()
	tracing := cfg.OTLPEndpoint != ""

	// Initialize Database
	conn, err := db.Open(db.Options{DSN: cfg.DatabaseURL, MaxOpenConns: cfg.DBMaxOpenConns, Tracing: tracing}, log)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return err
		}
	}

	// Identity
	cache, err := profileCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	directory := identity.NewCachedDirectory(identity.NewGormDirectory(conn), cache)
	adapter := identity.NewJWTAdapter(cfg.JWTSecret, cfg.JWTIssuer, directory)

	// Notifications
	posts := content.Disabled
	if cfg.CMSBaseURL != "" {
		source, err := content.NewHTTPSource(cfg.CMSBaseURL, cfg.CMSToken, cfg.LookupTimeout*2)
		if err != nil {
			return err
		}
		posts = source
	} else {
		log.Warn("CMS_BASE_URL not set, comment notifications will be skipped")
	}
	if !cfg.MailEnabled() {
		log.Warn("comment notifications disabled: SMTP settings or NOTIFY_EMAIL missing")
	}
	mailer := services.NewMailService(services.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, log)
	dispatcher := services.NewNotificationDispatcher(posts, adapter, mailer, repository.NewNotificationStore(conn), services.DispatcherConfig{
		Recipient: cfg.NotifyEmail,
		SiteURL:   cfg.SiteURL,
		Timeout:   cfg.DispatchTimeout,
	}, log)

	publisher, closeEvents := startEvents(ctx, cfg, dispatcher.Handle, log)

	// Engagement services
	comments := repository.NewCommentStore(conn)
	likes := repository.NewLikeStore(conn)
	enricher := services.NewEnricher(adapter, cfg.LookupTimeout, log)

	engine := router.New(router.Dependencies{
		DB:            conn,
		Identity:      adapter,
		Comments:      services.NewCommentService(comments, likes, enricher, publisher, log),
		Likes:         services.NewLikeLedger(likes, comments, enricher, log),
		SessionSecret: cfg.SessionSecret,
		Log:           log,
	})

	var handler http.Handler = engine
	if tracing {
		handler = otelhttp.NewHandler(engine, "http.server")
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("engagement server starting", "addr", srv.Addr, "events", cfg.EventsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		closeEvents()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}
	closeEvents()
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func profileCache(ctx context.Context, cfg config.Config, log *slog.Logger) (identity.ProfileCache, error) {
	if cfg.RedisURL == "" {
		local, err := identity.NewLocalProfileCache(4096, cfg.ProfileCacheTTL)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	client, err := identity.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return identity.NewRedisProfileCache(client, cfg.ProfileCacheTTL, log), nil
}

// startEvents wires the comment-created pipeline. The returned func drains and closes it.
func startEvents(ctx context.Context, cfg config.Config, handle events.Handler, log *slog.Logger) (events.Publisher, func()) {
	// Handlers outlive the signal context so that buffered events still drain on shutdown.
	workCtx := context.WithoutCancel(ctx)

	if cfg.EventsBackend == "kafka" {
		producer := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		consumer := events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, handle, log)
		consumerCtx, cancel := context.WithCancel(workCtx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := consumer.Run(consumerCtx); err != nil {
				log.Error("kafka consumer stopped", "error", err)
			}
		}()
		return producer, func() {
			if err := producer.Close(); err != nil {
				log.Warn("kafka producer close", "error", err)
			}
			cancel()
			<-done
		}
	}

	queue := events.NewMemoryQueue(cfg.QueueSize, cfg.QueueWorkers, handle, log)
	queue.Start(workCtx)
	return queue, queue.Close
}
