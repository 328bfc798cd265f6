// Package main implements the entry point for the lumen engine, which
// schedules background photo processing under device resource constraints
// and exposes a local control API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/lumen-engine/internal/analysis"
	"github.com/phrazzld/lumen-engine/internal/api"
	"github.com/phrazzld/lumen-engine/internal/cluster"
	"github.com/phrazzld/lumen-engine/internal/config"
	"github.com/phrazzld/lumen-engine/internal/notify"
	"github.com/phrazzld/lumen-engine/internal/platform/logger"
	"github.com/phrazzld/lumen-engine/internal/resource"
	"github.com/phrazzld/lumen-engine/internal/scheduler"
	"github.com/phrazzld/lumen-engine/internal/task"
)

// monitorSampleInterval is how often the resource monitor polls its probe.
const monitorSampleInterval = 5 * time.Second

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.run()
}

// application bundles the wired components with process lifetime owned by
// main; there are no package-level singletons.
type application struct {
	cfg       *config.Config
	logger    *slog.Logger
	monitor   *resource.PollingMonitor
	scheduler *scheduler.Scheduler
	server    *http.Server
}

// initializeApp loads configuration and wires application components.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"intensity", cfg.Processing.Intensity,
		"max_concurrent_tasks", cfg.Processing.MaxConcurrentTasks)

	// The probe reports healthy readings until a platform sampler is
	// attached; resource pressure is still honored end to end.
	probe := resource.NewStaticProbe(resource.Status{
		BatteryLevel: 1.0,
		Charging:     true,
		MemoryUsage:  0.3,
		CPUUsage:     0.1,
		Thermal:      resource.ThermalNominal,
	})
	monitor := resource.NewPollingMonitor(probe, monitorSampleInterval, appLogger)

	queue := task.NewQueue(cfg.Processing.MaxConcurrentTasks, appLogger)
	engine := cluster.NewEngine(cfg.Clustering, appLogger)
	backend := analysis.NewLocal()
	sink := notify.NewSlogSink(appLogger)

	sched := scheduler.New(
		queue,
		monitor,
		backend,
		engine,
		sink,
		scheduler.SettingsFromConfig(cfg.Processing),
		appLogger,
	)

	handler := api.NewSchedulerHandler(sched, queue, appLogger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &application{
		cfg:       cfg,
		logger:    appLogger,
		monitor:   monitor,
		scheduler: sched,
		server:    server,
	}, nil
}

// run starts processing and blocks until shutdown completes.
func (a *application) run() {
	a.monitor.Start()
	a.scheduler.Start()

	go func() {
		a.logger.Info("control api listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("control api failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("control api shutdown failed", "error", err)
	}

	a.scheduler.Destroy()
	a.monitor.Stop()
	a.logger.Info("shutdown complete")
}
