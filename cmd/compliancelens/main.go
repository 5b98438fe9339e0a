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

	"go.uber.org/zap"

	"github.com/mikeburns/lobbyscope/internal/compliance"
	"github.com/mikeburns/lobbyscope/internal/config"
	"github.com/mikeburns/lobbyscope/internal/llm"
	"github.com/mikeburns/lobbyscope/internal/logger"
	"github.com/mikeburns/lobbyscope/internal/metrics"
	"github.com/mikeburns/lobbyscope/internal/report"
	"github.com/mikeburns/lobbyscope/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "compliancelens", zl)
	if err != nil {
		zl.Fatal("tracing init failed", zap.Error(err))
	}
	m := metrics.New("compliancelens")

	client, err := llm.NewAnthropicFromEnv(cfg.Model, cfg.MaxTokens)
	if err != nil {
		zl.Fatal("llm client init failed", zap.Error(err))
	}

	analyzer := compliance.NewAnalyzer(client, zl)
	extractor := compliance.ExtractorSet{compliance.PlainTextExtractor{}}
	api := compliance.NewServer(analyzer, extractor, report.NewRenderer(), zl, m)

	mux := http.NewServeMux()
	mux.Handle("/", api)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	zl.Info("compliancelens listening", zap.String("addr", cfg.Addr))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		zl.Warn("shutdown incomplete", zap.Error(err))
	}
	if err := shutdownTracing(shCtx); err != nil {
		zl.Warn("tracer shutdown incomplete", zap.Error(err))
	}
}
