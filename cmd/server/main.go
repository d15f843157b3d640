// Command server runs the orders service: the HTTP API, the outbox
// relay, and the payments consumer, all sharing one PostgreSQL pool.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"ordercore/internal/orders"
	orderscache "ordercore/internal/orders/cache"
	ordersconsumer "ordercore/internal/orders/consumer"
	ordersservice "ordercore/internal/orders/service"
	ordersstore "ordercore/internal/orders/store"
	"ordercore/internal/platform/config"
	"ordercore/internal/platform/httpserver"
	"ordercore/internal/platform/kafka"
	kafkaconsumer "ordercore/internal/platform/kafka/consumer"
	kafkaproducer "ordercore/internal/platform/kafka/producer"
	"ordercore/internal/platform/logger"
	"ordercore/internal/platform/postgres"
	platformredis "ordercore/internal/platform/redis"
	httptransport "ordercore/internal/transport/http"
	"ordercore/pkg/platform/consume"
	"ordercore/pkg/platform/executor"
	idempostgres "ordercore/pkg/platform/idempotency/postgres"
	"ordercore/pkg/platform/interceptor"
	outboxpostgres "ordercore/pkg/platform/outbox/postgres"
	"ordercore/pkg/platform/outbox/relay"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.RedisConfig)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, 3, cfg.OrdersTopic, cfg.PaymentsTopic); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Execution scope.
	idemStore := idempostgres.New(db)
	outboxStore := outboxpostgres.New(db)
	pipeline := interceptor.NewPipeline(interceptor.NewCaptureStage(orders.NewEventMapper()))
	scope := executor.New(db, idemStore, outboxStore, pipeline, log,
		executor.WithMetrics(executor.NewMetrics(reg)))

	// Orders context.
	orderStore := ordersstore.NewPostgres(db)
	svcOpts := []ordersservice.Option{}
	if redisClient != nil {
		svcOpts = append(svcOpts, ordersservice.WithSeenCache(orderscache.NewSeen(redisClient.Client, "ordercore")))
	}
	svc := ordersservice.New(scope, orderStore, log, svcOpts...)

	// Outbox relay.
	producer, err := kafkaproducer.New(cfg.KafkaBrokers)
	if err != nil {
		return err
	}
	defer producer.Close()
	outboxRelay := relay.New(outboxStore, producer, relay.StaticTopic(cfg.OrdersTopic), log,
		relay.WithInterval(cfg.RelayInterval),
		relay.WithBatchSize(cfg.RelayBatchSize),
		relay.WithMetrics(relay.NewMetrics(reg)),
	)

	// Payments consumer behind the standard filter chain.
	paymentsConsumer, err := kafkaconsumer.New(cfg.KafkaBrokers, cfg.ConsumerGroup, []string{cfg.PaymentsTopic}, log)
	if err != nil {
		return err
	}
	defer paymentsConsumer.Close()
	paymentsHandler := consume.Chain(
		consume.Handler(ordersconsumer.NewPayments(svc, log).Handle),
		consume.Logging(log),
		consume.Faults(log),
		consume.Retry(consume.DefaultRetryPolicy(), consume.NewMetrics(reg)),
	)

	// HTTP surface.
	checks := map[string]httptransport.HealthCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	router := httptransport.NewRouter(httptransport.NewOrdersHandler(svc, log), log, reg, checks)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return outboxRelay.Run(gctx)
	})
	g.Go(func() error {
		return paymentsConsumer.Run(gctx, kafkaconsumer.Handler(paymentsHandler))
	})

	return g.Wait()
}
