package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/newsletter/internal/api"
	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/emailclient"
	"github.com/ignite/newsletter/internal/pkg/distlock"
	"github.com/ignite/newsletter/internal/pkg/httpretry"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
	"github.com/ignite/newsletter/internal/service/subscription"
	"github.com/ignite/newsletter/internal/worker"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Default().Error("Failed to load config", "error", err.Error())
		os.Exit(1)
	}

	log := logger.Setup(logger.Options{
		Name:      cfg.Logging.Name,
		Level:     logger.ParseLevel(cfg.Logging.Level),
		RedactPII: *cfg.Logging.RedactPII,
	}, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("Failed to open database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Error("Invalid REDIS_URL", "error", err.Error())
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	sender, err := domain.ParseSubscriberEmail(cfg.EmailClient.SenderEmail)
	if err != nil {
		log.Error("Invalid sender email", "error", err.Error())
		os.Exit(1)
	}
	emailClient := emailclient.NewClient(cfg.EmailClient, sender, log)

	repo := postgres.NewSubscriptionRepo(db)

	var opts []subscription.Option
	var queue *worker.RedisRetryQueue
	if redisClient != nil && cfg.Redelivery.Enabled {
		queue = worker.NewRedisRetryQueue(redisClient)
		opts = append(opts, subscription.WithFailedDeliveryRecorder(queue))
	}

	svc, err := subscription.NewService(repo, emailClient, subscription.RandomTokens{}, cfg.Application.BaseURL, log, opts...)
	if err != nil {
		log.Error("Failed to build subscription service", "error", err.Error())
		os.Exit(1)
	}

	if queue != nil {
		startRedelivery(ctx, cfg, db, redisClient, repo, sender, queue, log)
	}

	server := api.NewServer(cfg, svc, api.NewHealthChecker(repo, redisClient), log)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	log.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err.Error())
	}
	log.Info("Server stopped")
}

// startRedelivery runs the worker with its own service instance whose email
// client retries transient API failures. The request path never retries.
func startRedelivery(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	redisClient *redis.Client,
	repo subscription.Repository,
	sender domain.SubscriberEmail,
	queue *worker.RedisRetryQueue,
	log *logger.Logger,
) {
	// Each attempt keeps the request-path timeout; the client's own deadline
	// covers all retries so a slow API does not starve the later attempts.
	doer := httpretry.NewRetryClient(
		&http.Client{Timeout: cfg.EmailClient.Timeout()},
		cfg.Redelivery.HTTPRetries,
		httpretry.WithBackoff(time.Second, config.RedeliveryMaxBackoff, 100*time.Millisecond),
		httpretry.WithLogger(log),
	)
	retryingClient := emailclient.NewClient(cfg.Redelivery.EmailClient(cfg.EmailClient), sender, log, emailclient.WithDoer(doer))

	redeliverySvc, err := subscription.NewService(repo, retryingClient, subscription.RandomTokens{}, cfg.Application.BaseURL, log)
	if err != nil {
		log.Error("Redelivery disabled", "error", err.Error())
		return
	}

	lockTTL := 2 * cfg.Redelivery.Interval()
	lock := distlock.NewLock(redisClient, db, worker.RedeliveryLockName, lockTTL)
	w := worker.NewRedeliveryWorker(queue, redeliverySvc, lock, cfg.Redelivery, log)
	go w.Start(ctx)
}
