package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/config"
	"github.com/zhouzirui/weather-chat/backend/internal/handler"
	"github.com/zhouzirui/weather-chat/backend/internal/logger"
	"github.com/zhouzirui/weather-chat/backend/internal/metrics"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	agentStore := agentModel.NewMemoryStore(agentModel.Seed(), agentModel.WithStructured(cfg.Agent.Structured))

	client, err := agent.NewClient(agent.ClientConfig{
		Endpoint:      cfg.Agent.Endpoint,
		Timeout:       cfg.Agent.Timeout,
		DevPlayground: cfg.Agent.DevPlayground,
		Logger:        zl,
	})
	if err != nil {
		zl.Fatal("failed to create agent client", zap.Error(err))
	}

	chatService := chat.NewService(agentStore, client, chat.Options{
		Request:  cfg.Agent.Options,
		Greeting: true,
		Logger:   zl,
		Metrics:  recorder,
	})

	router := handler.NewRouter(handler.Deps{
		Agents:  agentStore,
		Chat:    chatService,
		Logger:  zl,
		Metrics: registry,
	})

	startServer(ctx, zl, cfg.Server, router)
}

func startServer(ctx context.Context, logger *zap.Logger, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("weather chat backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
