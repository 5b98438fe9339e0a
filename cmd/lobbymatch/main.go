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

	"github.com/mikeburns/lobbyscope/internal/config"
	"github.com/mikeburns/lobbyscope/internal/firmdata"
	"github.com/mikeburns/lobbyscope/internal/llm"
	"github.com/mikeburns/lobbyscope/internal/logger"
	"github.com/mikeburns/lobbyscope/internal/match"
	"github.com/mikeburns/lobbyscope/internal/metrics"
	"github.com/mikeburns/lobbyscope/internal/ranking"
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

	shutdownTracing, err := telemetry.Init(ctx, "lobbymatch", zl)
	if err != nil {
		zl.Fatal("tracing init failed", zap.Error(err))
	}
	m := metrics.New("lobbymatch")

	snapshot, err := firmdata.Load(cfg.FirmDataPath, cfg.IssueMapPath)
	if err != nil {
		zl.Fatal("firm data load failed", zap.Error(err))
	}
	scenarios, err := firmdata.LoadScenarios(cfg.ScenariosPath)
	if err != nil {
		zl.Fatal("scenarios load failed", zap.Error(err))
	}
	client, err := llm.NewAnthropicFromEnv(cfg.Model, cfg.MaxTokens)
	if err != nil {
		zl.Fatal("llm client init failed", zap.Error(err))
	}
	engine := ranking.NewEngine(ranking.Mode(cfg.ScoringMode), cfg.TopFirms)

	api := match.NewServer(snapshot, engine, client, zl, m, scenarios)

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	zl.Info("lobbymatch listening",
		zap.String("addr", cfg.Addr),
		zap.Int("firms", snapshot.Len()),
		zap.String("scoringMode", cfg.ScoringMode))

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
