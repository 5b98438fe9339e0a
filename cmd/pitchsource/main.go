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
	"github.com/mikeburns/lobbyscope/internal/memogen"
	"github.com/mikeburns/lobbyscope/internal/metrics"
	"github.com/mikeburns/lobbyscope/internal/telemetry"
	"github.com/mikeburns/lobbyscope/internal/usage"
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

	shutdownTracing, err := telemetry.Init(ctx, "pitchsource", zl)
	if err != nil {
		zl.Fatal("tracing init failed", zap.Error(err))
	}
	m := metrics.New("pitchsource")

	snapshot, err := firmdata.Load(cfg.FirmDataPath, cfg.IssueMapPath)
	if err != nil {
		zl.Fatal("firm data load failed", zap.Error(err))
	}
	client, err := llm.NewAnthropicFromEnv(cfg.Model, cfg.MaxTokens)
	if err != nil {
		zl.Fatal("llm client init failed", zap.Error(err))
	}

	var quota usage.Quota
	if cfg.UsageDBPath != "" {
		sq, err := usage.OpenSQLite(cfg.UsageDBPath, cfg.MemoLimit)
		if err != nil {
			zl.Fatal("usage db open failed", zap.Error(err))
		}
		defer sq.Close()
		quota = sq
	} else {
		quota = usage.NewMemoryQuota(cfg.MemoLimit)
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel
	}
	pipeline := memogen.NewPipeline(client, model,
		time.Duration(cfg.StageTimeoutSec)*time.Second, nil, zl, m)

	api := memogen.NewServer(snapshot, pipeline, quota, cfg.MemoLimit, cfg.UsageLogKey, zl, m)

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
	zl.Info("pitchsource listening",
		zap.String("addr", cfg.Addr),
		zap.Int("firms", snapshot.Len()),
		zap.Int("memoLimit", cfg.MemoLimit))

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
