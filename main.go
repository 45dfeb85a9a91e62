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
	"github.com/inkbloom/inkbloom/handlers"
	"github.com/inkbloom/inkbloom/internal/blogs"
	"github.com/inkbloom/inkbloom/internal/comments"
	"github.com/inkbloom/inkbloom/internal/config"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/database"
	feedbackrepo "github.com/inkbloom/inkbloom/internal/feedback/repository"
	feedbacksvc "github.com/inkbloom/inkbloom/internal/feedback/service"
	inkmail "github.com/inkbloom/inkbloom/internal/mail"
	"github.com/inkbloom/inkbloom/internal/moderation"
	"github.com/inkbloom/inkbloom/internal/notices"
	"github.com/inkbloom/inkbloom/internal/oauth"
	"github.com/inkbloom/inkbloom/internal/sessions"
	"github.com/inkbloom/inkbloom/internal/storage"
	"github.com/inkbloom/inkbloom/internal/tokens"
	"github.com/inkbloom/inkbloom/internal/users"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/inkbloom/inkbloom/pkg/metrics"
	"github.com/inkbloom/inkbloom/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const mongoAttempts = 5

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Debugf("startup: LOG_LEVEL=%s env=%s", logger.LevelString(), cfg.Server.Environment)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("redis ping failed, continuing: %v", err)
	}

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Fatalf("failed to ensure indexes: %v", err)
	}
	repo := content.NewMongoRepository(db)

	httpClient := &http.Client{Timeout: cfg.Server.HTTPClientTimeout}

	provider, err := oauth.New(ctx, cfg.OAuth, httpClient)
	if err != nil {
		logger.Fatalf("failed to initialise %s login: %v", cfg.OAuth.Provider, err)
	}

	uploader, err := storage.NewUploader(ctx, cfg.Storage, httpClient)
	if err != nil {
		logger.Fatalf("failed to initialise %s storage: %v", cfg.Storage.Backend, err)
	}
	uploader = storage.WithMetrics(cfg.Storage.Backend, uploader)

	var sender inkmail.Sender = inkmail.LogSender{}
	if cfg.Mail.Host != "" {
		sender = inkmail.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Sender)
	} else {
		logger.Warnf("SMTP_HOST not set, confirmation mails are only logged")
	}

	sessSvc := sessions.NewService(
		sessions.NewRedisRepository(rdb, ""),
		sessions.NewRevocations(rdb, cfg.Security.SessionTTL),
		cfg.Security.SessionTTL,
	)
	sm := middleware.NewSessionManager(sessSvc, sessions.NewCookieCodec(cfg.Security.SecretKey, cfg.Security.SessionTTL), cfg.Security.CookieSecure)

	issuer := tokens.NewIssuer(cfg.Security.SecretKey, tokens.NewMongoStore(repo))
	userSvc := users.NewService(users.NewMongoUserRepository(repo), sessSvc, issuer, sender, cfg.Server.SiteURL)

	commentStore := comments.NewMongoStore(repo)
	blogStore := blogs.NewMongoStore(repo)
	blogSvc := blogs.NewService(blogStore, commentStore, uploader, blogs.Options{
		ProxyBase:     cfg.Storage.ImageProxyURL,
		CoverMaxWidth: cfg.Storage.CoverMaxWidth,
	})
	classifier := moderation.NewHTTPClassifier(cfg.Moderation.ProfanityURL, httpClient)
	commentSvc := comments.NewService(commentStore, blogStore, classifier, userSvc)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	router := handlers.NewRouter(handlers.Deps{
		Sessions: sm,
		Redis:    rdb,
		Provider: provider,
		Users:    userSvc,
		Blogs:    blogSvc,
		Comments: commentSvc,
		Notices:  notices.NewService(notices.NewMongoStore(repo)),
		Feedback: feedbacksvc.New(feedbackrepo.NewMongoRepo(repo)),
		Checks: map[string]handlers.Check{
			"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) },
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Gatherer:     prometheus.DefaultGatherer,
		RateLimit:    cfg.RateLimit,
		SiteURL:      cfg.Server.SiteURL,
		TemplatesDir: cfg.Server.TemplatesDir,
		Logging:      cfg.Server.Environment != "production",
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("InkBloom listening on %s (login=%s storage=%s)", srv.Addr, provider.Name(), cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
