package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ficonsole/internal/api"
	"ficonsole/pkg/config"
	"ficonsole/pkg/core"
	"ficonsole/pkg/datalog"
	"ficonsole/pkg/db"
	"ficonsole/pkg/db/maintenance"
	"ficonsole/pkg/logging"
	"ficonsole/pkg/probe"
	"ficonsole/pkg/tolerance"
	"ficonsole/pkg/tracker"
	"ficonsole/pkg/version"
)

const defaultConfigPath = "configs/ficonsole.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}
	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(appCfg); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Flight Instructor Console Started", "version", version.Version)

	factory := newSimFactory(appCfg)

	// Startup Probes
	probes := []probe.Probe{
		{
			Name:     "Session Log Directories",
			Check:    probe.DirsWritable(appCfg.Data.TextPath, appCfg.Data.CSVPath, appCfg.Data.SQLite.Path),
			Critical: true,
		},
		{
			Name:     "Simulator",
			Check:    probe.SimReachable(factory),
			Critical: false, // Reconnect is available from the console
		},
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	sessionID := uuid.NewString()
	rec, err := initRecorders(ctx, appCfg, sessionID)
	if err != nil {
		return err
	}

	tr := tracker.New()
	hub := api.NewHub()
	defer hub.Close()

	ctrl := core.NewSessionController(core.SessionOptions{
		ID:        sessionID,
		Factory:   factory,
		Recorder:  rec,
		Presenter: hub,
		Stats:     tr,
		Tolerance: tolerance.Config{
			AltitudeFt: appCfg.Tolerance.AltitudeFt,
			HeadingDeg: appCfg.Tolerance.HeadingDeg,
			AirspeedKt: appCfg.Tolerance.AirspeedKt,
		},
		Capacity: appCfg.Sampler.Capacity,
		Sampler: core.SamplerConfig{
			Interval:    appCfg.Sampler.Interval.D(),
			ReadTimeout: appCfg.Sampler.ReadTimeout.D(),
		},
		StopGrace: appCfg.Sampler.StopGrace.D(),
	})
	hub.SetSource(ctrl.Buffer())

	if err := ctrl.Connect(ctx); err != nil {
		// The operator can retry from the console.
		slog.Warn("Starting disconnected", "error", err)
	}

	serveErr := runServer(ctx, appCfg, ctrl, tr, hub)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		slog.Error("Session shutdown incomplete", "error", err)
	}
	slog.Info("Flight Instructor Console Stopped", "session", sessionID)
	return serveErr
}

// initRecorders opens every configured session log destination.
func initRecorders(ctx context.Context, cfg *config.Config, sessionID string) (core.Recorder, error) {
	var recs datalog.Multi
	closeAll := func() { _ = recs.Close() }

	if p := cfg.Data.TextPath; p != "" {
		r, err := datalog.NewTextRecorder(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open text log: %w", err)
		}
		recs = append(recs, r)
	}
	if p := cfg.Data.CSVPath; p != "" {
		r, err := datalog.NewCSVRecorder(p)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open csv log: %w", err)
		}
		recs = append(recs, r)
	}
	if s := cfg.Data.SQLite; s.Enabled {
		dbConn, err := db.Init(s.Path)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := maintenance.Run(ctx, dbConn, s.Retention.D()); err != nil {
			slog.Error("Maintenance tasks failed", "error", err)
		}
		r, err := datalog.NewSQLiteRecorder(dbConn, sessionID, true)
		if err != nil {
			dbConn.Close()
			closeAll()
			return nil, fmt.Errorf("failed to register session: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func runServer(ctx context.Context, cfg *config.Config, ctrl *core.SessionController, tr *tracker.Tracker, hub *api.Hub) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewSessionHandler(ctrl),
		api.NewTelemetryHandler(ctrl.Buffer()),
		api.NewPlotHandler(ctrl.Buffer(), cfg.Plots.Width, cfg.Plots.Height),
		api.NewStatsHandler(tr),
		hub,
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Trace(slog.Default(), "Request Processed", "component", "http", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
