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
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/ai"
	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/billing"
	"github.com/suPer8Hu/docchat/internal/config"
	"github.com/suPer8Hu/docchat/internal/conversation"
	"github.com/suPer8Hu/docchat/internal/db"
	"github.com/suPer8Hu/docchat/internal/document"
	"github.com/suPer8Hu/docchat/internal/httpapi"
	"github.com/suPer8Hu/docchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/docchat/internal/logger"
	"github.com/suPer8Hu/docchat/internal/manychat"
	"github.com/suPer8Hu/docchat/internal/metrics"
	"github.com/suPer8Hu/docchat/internal/pipeline"
	"github.com/suPer8Hu/docchat/internal/storage"
	"github.com/suPer8Hu/docchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/docchat/internal/store/redisstore"
	"github.com/suPer8Hu/docchat/internal/tenant"
)

func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		boot.Fatal().Err(err).Msg("init logger")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	tenantRepo := tenant.NewRepo(gdb)
	var (
		resolver tenant.Resolver = tenant.NewDirectory(tenantRepo)
		inv      tenant.Invalidator
	)
	if !cfg.TenantCacheOff {
		rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		if err := redisstore.Ping(ctx, rdb); err != nil {
			log.Warn().Err(err).Msg("redis unavailable; tenant lookups go to the database")
		}
		cached := tenant.NewCachedResolver(resolver, redisstore.NewTenantCache(rdb), cfg.TenantCacheTTL, log)
		resolver, inv = cached, cached
	}

	mc := manychat.NewClient(cfg.ManyChatBaseURL, cfg.ManyChatTimeout)
	tenants := tenant.NewService(tenantRepo, mc, inv, cfg.PublicBaseURL)

	gemini := ai.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	answerer := ai.NewAnswerer(gemini, log)
	answerer.OnFailure(func() { metrics.ExternalFailuresTotal.WithLabelValues("gemini").Inc() })

	archive, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init archive storage")
	}
	docs := document.NewService(document.NewRepo(gdb), tenants, gemini, archive, document.NewValidator(nil), cfg.ImportPollInterval, log)

	convs := conversation.NewService(conversation.NewRepo(gdb))
	bill := billing.NewService(gdb, tenants, convs, docs, cfg.DefaultRequestLimit, cfg.DefaultStorageMB)

	validator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init auth")
	}
	provider := auth.NewProviderClient(cfg.AuthBaseURL, cfg.AuthAnonKey, 15*time.Second)

	proc := pipeline.NewProcessor(resolver, convs, answerer, mc, log)
	dispatcher, pool, publisher, err := newDispatcher(cfg, proc, log)
	if err != nil {
		log.Fatal().Err(err).Str("queue_backend", cfg.QueueBackend).Msg("init dispatcher")
	}

	h := &handlers.Handler{
		Tenants:       tenants,
		Documents:     docs,
		Conversations: convs,
		Billing:       bill,
		Provider:      provider,
		Dispatcher:    dispatcher,
		Log:           log.With().Str("component", "http").Logger(),
	}
	r := httpapi.NewRouter(httpapi.RouterDeps{
		Handler:           h,
		Auth:              validator,
		WebhookSecretHash: cfg.WebhookSecretHash,
		Log:               log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("queue_backend", cfg.QueueBackend).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// intake is closed; let queued events finish
	if pool != nil {
		if err := pool.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("pool drain incomplete")
		}
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	log.Info().Msg("bye")
}

// newDispatcher returns the webhook's Dispatcher. With the rabbitmq backend the
// pool is nil and events are processed by cmd/worker; otherwise the publisher is nil.
func newDispatcher(cfg *config.Config, h pipeline.Handler, log zerolog.Logger) (pipeline.Dispatcher, *pipeline.Pool, *rabbitmq.Publisher, error) {
	if cfg.QueueBackend == "rabbitmq" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return nil, nil, nil, err
		}
		return pipeline.NewBrokerDispatcher(pub), nil, pub, nil
	}
	pool := pipeline.NewPool(h, cfg.WorkerConcurrency, cfg.QueueSize, cfg.TaskTimeout, log)
	pool.Start()
	return pool, pool, nil, nil
}
