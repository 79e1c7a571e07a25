package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-discussions/internal/auth"
	"github.com/pribylovaa/go-discussions/internal/cache"
	"github.com/pribylovaa/go-discussions/internal/config"
	"github.com/pribylovaa/go-discussions/internal/delivery/amqp"
	"github.com/pribylovaa/go-discussions/internal/delivery/mail"
	"github.com/pribylovaa/go-discussions/internal/mentions"
	"github.com/pribylovaa/go-discussions/internal/notify"
	"github.com/pribylovaa/go-discussions/internal/service"
	dmongo "github.com/pribylovaa/go-discussions/internal/storage/mongo"
	"github.com/pribylovaa/go-discussions/internal/storage/postgres"
	httpapi "github.com/pribylovaa/go-discussions/internal/transport/http"
	"github.com/pribylovaa/go-discussions/pkg/interceptors"

	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting discussions-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	fail := func(msg string, err error, closers ...func()) {
		log.Error(msg, slog.String("err", err.Error()))
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		rootCancel()
		os.Exit(1)
	}

	// Хранилища.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	mongoStore, err := dmongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		fail("mongo_connect_failed", err)
	}
	closeMongo := func() { _ = mongoStore.Close(context.Background()) }
	log.Info("mongo_connected")

	pgCtx, pgCancel := context.WithTimeout(rootCtx, 10*time.Second)
	users, err := postgres.New(pgCtx, cfg.Users.URL)
	pgCancel()
	if err != nil {
		fail("users_db_connect_failed", err, closeMongo)
	}
	closeUsers := users.Close
	log.Info("users_db_connected")

	var guard cache.DeliveryGuard = cache.NopGuard{}
	if cfg.Redis.URL != "" {
		guard, err = cache.NewRedisGuard(cfg.Redis.URL, cfg.Redis.Prefix, cfg.Fanout.DedupeTTL)
		if err != nil {
			fail("redis_connect_failed", err, closeMongo, closeUsers)
		}
		log.Info("redis_connected")
	} else {
		log.Warn("redis_disabled: delivery dedupe is off")
	}
	closeGuard := func() { _ = guard.Close() }

	publisher, err := amqp.New(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		fail("amqp_connect_failed", err, closeMongo, closeUsers, closeGuard)
	}
	closePublisher := func() { _ = publisher.Close() }
	log.Info("amqp_connected", slog.String("exchange", cfg.AMQP.Exchange))

	// Рассылка.
	metrics := notify.NewMetrics(prometheus.DefaultRegisterer)

	deps := notify.Deps{
		Entities:      mongoStore,
		Subscriptions: mongoStore,
		Comments:      mongoStore,
		Deliverer:     publisher,
		Guard:         guard,
		Metrics:       metrics,
	}
	if mn := mail.New(cfg.Mail, mongoStore); mn != nil {
		deps.Mail = mn
		log.Info("mail_enabled", slog.String("host", cfg.Mail.Host))
	}

	engine := notify.NewEngine(cfg.Fanout, deps)
	queue := notify.NewQueue(cfg.Fanout, engine, metrics, log)
	queue.Start()

	svc := service.New(cfg.Tree, service.Deps{
		Comments: mongoStore,
		Users:    users,
		Votes:    mongoStore,
		Mentions: mentions.New(users, cfg.Fanout.Parallel),
		Fanout:   queue,
	})
	log.Info("service_initialized")

	// Публичный REST API.
	apiSrv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: httpapi.NewRouter(svc, httpapi.Options{
			Logger:   log,
			Timeout:  cfg.Timeouts.Service,
			BasePath: cfg.HTTP.BasePath,
			Verifier: auth.NewVerifier(cfg.Auth),
			Users:    svc,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// HTTP readiness/liveness/metrics.
	var ready int32

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := mongoStore.Ping(ctx); err != nil {
			http.Error(w, "mongo unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := users.Ping(ctx); err != nil {
			http.Error(w, "users db unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	for _, s := range []*http.Server{apiSrv, metricsSrv} {
		go func() {
			log.Info("http_listen_start", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http_serve_failed", slog.String("addr", s.Addr), slog.String("err", err.Error()))
				rootCancel()
			}
		}()
	}

	// gRPC: health + reflection.
	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	addr := cfg.GRPC.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fail("grpc_listen_failed", err, closeMongo, closeUsers, closeGuard, closePublisher)
	}
	log.Info("grpc_listen_start", slog.String("addr", addr))

	grpc_prometheus.Register(grpcServer)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	atomic.StoreInt32(&ready, 1)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("grpc_serve_failed", slog.String("err", err.Error()))
		}
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)

	// Сначала перестаём принимать запросы, затем дорабатываем очередь рассылки.
	_ = apiSrv.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := queue.Close(shutdownCtx); err != nil {
		log.Warn("fanout_queue_close_timeout", slog.Int("pending", queue.Len()), slog.String("err", err.Error()))
	}

	shutdownCancel()
	_ = metricsSrv.Shutdown(context.Background())

	rootCancel()
	closePublisher()
	closeGuard()
	closeUsers()
	closeMongo()

	log.Info("service_stopped")
	os.Exit(0)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
