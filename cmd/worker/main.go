package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/ai"
	"github.com/suPer8Hu/docchat/internal/config"
	"github.com/suPer8Hu/docchat/internal/conversation"
	"github.com/suPer8Hu/docchat/internal/db"
	"github.com/suPer8Hu/docchat/internal/logger"
	"github.com/suPer8Hu/docchat/internal/manychat"
	"github.com/suPer8Hu/docchat/internal/metrics"
	"github.com/suPer8Hu/docchat/internal/pipeline"
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
	log = log.With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}

	var resolver tenant.Resolver = tenant.NewDirectory(tenant.NewRepo(gdb))
	if !cfg.TenantCacheOff {
		rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		resolver = tenant.NewCachedResolver(resolver, redisstore.NewTenantCache(rdb), cfg.TenantCacheTTL, log)
	}

	answerer := ai.NewAnswerer(ai.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout), log)
	answerer.OnFailure(func() { metrics.ExternalFailuresTotal.WithLabelValues("gemini").Inc() })

	proc := pipeline.NewProcessor(
		resolver,
		conversation.NewService(conversation.NewRepo(gdb)),
		answerer,
		manychat.NewClient(cfg.ManyChatBaseURL, cfg.ManyChatTimeout),
		log,
	)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatal().Err(err).Msg("declare topology")
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	timeout := cfg.TaskTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With().Int("worker", workerID).Logger()
			for d := range jobs {
				handleDelivery(proc, timeout, wlog, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handleDelivery acks anything that reached a non-failed terminal state. Bad
// payloads and failures are rejected without requeue, so they land in the DLQ.
func handleDelivery(proc pipeline.Handler, timeout time.Duration, log zerolog.Logger, d amqp.Delivery) {
	ev, err := pipeline.DecodeEvent(d.Body)
	if err != nil {
		log.Warn().Err(err).Msg("bad message")
		_ = d.Nack(false, false)
		return
	}

	// in-flight events finish even after shutdown starts
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	state, err := proc.Process(ctx, ev)
	if state == pipeline.StateFailed {
		log.Error().Err(err).Str("event_id", ev.ID).Dur("cost", time.Since(start)).Msg("event failed")
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Str("event_id", ev.ID).Msg("ack failed")
	}
}
