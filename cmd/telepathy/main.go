// Command telepathy runs the visual-speech transcription service: it loads
// configuration, starts the transcription backend in the background, and
// serves the HTTP API until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/telepathy/internal/config"
	"github.com/skillsenselab/telepathy/internal/logger"
	"github.com/skillsenselab/telepathy/internal/server"
	"github.com/skillsenselab/telepathy/internal/telemetry"
	"github.com/skillsenselab/telepathy/internal/transcribe"
	"github.com/skillsenselab/telepathy/internal/transcribe/autoavsr"
	"github.com/skillsenselab/telepathy/internal/version"
)

// gracefulTimeout bounds the shutdown drain for in-flight requests.
const gracefulTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "telepathy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "path to a YAML config file")
		envFile     = flag.String("env", "", "path to a .env file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetShortVersion())
		return nil
	}

	var opts []config.LoaderOption
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting telepathy", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment,
		"addr", cfg.Addr(),
		"backend", cfg.Model.Backend,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry stays off unless an OTLP endpoint is configured. Export
	// failures degrade to running without it rather than refusing to start.
	var (
		tel     *telemetry.Telemetry
		metrics *telemetry.Metrics
	)
	if cfg.OTel.Enabled() {
		telCfg := telemetry.DefaultConfig(cfg.Name)
		telCfg.ServiceVersion = version.GetShortVersion()
		telCfg.Environment = cfg.Environment
		telCfg.Endpoint = cfg.OTel.Endpoint
		telCfg.Insecure = cfg.OTel.Insecure

		t, terr := telemetry.Init(ctx, telCfg)
		if terr != nil {
			log.WithError(terr).Warn("telemetry initialization failed, continuing without export")
		} else {
			tel = t
			m, merr := telemetry.NewMetrics(telemetry.Meter(cfg.Name))
			if merr != nil {
				log.WithError(merr).Warn("metric setup failed, continuing without metrics")
			} else {
				metrics = m
			}
		}
	}

	// The model load runs off the request path; /health and /transcribe
	// answer 503 until the loader settles.
	loader := transcribe.NewLoader(log)
	go func() {
		loader.Load(ctx, cfg.Model.Backend, autoAVSRFactory(cfg))
		snap := loader.Snapshot()
		metrics.RecordModelLoad(ctx, snap.Status.Backend, time.Duration(snap.LoadMs)*time.Millisecond)
	}()

	srv := server.New(server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
		CORSOrigins:  cfg.CORSOrigins,
	}, log)
	srv.RegisterRoutes(loader, metrics)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	stop()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown error")
	}

	// Stop the engine worker if one came up.
	if t, err := loader.Get(); err == nil {
		if closer, ok := t.(interface{ Close() }); ok {
			closer.Close()
		}
	}

	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("telemetry shutdown error")
	}

	log.Info("shutdown complete")
	return nil
}

// autoAVSRFactory builds the construction closure the loader invokes when the
// configured backend is autoavsr.
func autoAVSRFactory(cfg *config.Config) transcribe.Factory {
	return func(ctx context.Context) (transcribe.Transcriber, transcribe.Status, error) {
		t, status, err := autoavsr.New(ctx, autoavsr.Config{
			Repo:        cfg.AutoAVSR.Repo,
			Config:      cfg.AutoAVSR.Config,
			Detector:    cfg.AutoAVSR.Detector,
			Device:      cfg.AutoAVSR.Device,
			GPUIdx:      cfg.AutoAVSR.GPUIdx,
			Python:      cfg.AutoAVSR.Python,
			FFprobePath: cfg.FFprobePath,
			Timeout:     cfg.AutoAVSR.Timeout,
		}, logger.GetGlobalLogger())
		if err != nil {
			// Return a bare nil so the selector's nil check is not defeated
			// by a typed-nil *autoavsr.Transcriber in the interface.
			return nil, status, err
		}
		return t, status, nil
	}
}
