package main

import (
	"log"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/textsynth/internal/activities"
	"github.com/yourorg/textsynth/internal/config"
	"github.com/yourorg/textsynth/internal/logging"
	tsmetrics "github.com/yourorg/textsynth/internal/metrics"
	"github.com/yourorg/textsynth/internal/workflow"
)

func main() {
	cfg, err := config.Load(getenv("TS_CONFIG", ""))
	if err != nil {
		log.Fatal("config:", err)
	}
	// Ensure the default output dir exists and is writable
	_ = os.MkdirAll(cfg.OutputDir, 0o777)

	// Structured logger (zap)
	zl := logging.New(cfg.LogLevel)
	defer zl.Sync()

	// Metrics server
	tsmetrics.Init()
	go func() {
		if err := tsmetrics.Serve(cfg.MetricsAddr); err != nil {
			zl.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort, Namespace: cfg.Temporal.Namespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	activities.New(cfg, zl).Register(w)
	w.RegisterWorkflow(workflow.DatasetWorkflow)

	zl.Info("worker started",
		zap.String("namespace", cfg.Temporal.Namespace), zap.String("taskQueue", cfg.Temporal.TaskQueue),
		zap.String("chars", cfg.CharsFile), zap.String("metrics", cfg.MetricsAddr))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
