package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/itemglow/internal/inspect"
	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/internal/observability"
	"github.com/signalsfoundry/itemglow/kb"
	"github.com/signalsfoundry/itemglow/timectrl"
)

func serveCmd(configPath *string) *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a scenario continuously with metrics and the inspection API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, scenarioPath)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runServe(configPath, scenarioPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	ctx := context.Background()

	scenario, err := kb.LoadScenarioFile(scenarioPath)
	if err != nil {
		return err
	}

	tracingCfg := cfg.TracingConfig().WithAttributes(observability.AttrScenario.String(scenario.Name))
	shutdownTracing, err := observability.InitTracing(ctx, tracingCfg, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	engineMetrics, err := observability.NewEngineCollector(nil)
	if err != nil {
		return err
	}
	inspectMetrics, err := observability.NewInspectCollector(nil)
	if err != nil {
		return err
	}

	tc := timectrl.NewTickController(cfg.TickInterval(), cfg.TickMode())
	s, err := newSession(cfg, scenario, sessionDeps{
		Log:      log,
		Recorder: engineMetrics,
		Tracer:   observability.Tracer(),
		Inspect:  inspectMetrics,
		Clock:    tc,
	})
	if err != nil {
		return err
	}
	defer s.close()

	server := inspect.NewGRPCServer(inspect.NewService(s.store, s.groups, log), log, inspectMetrics)
	lis, err := net.Listen("tcp", cfg.Inspect.Addr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Inspect.Addr), logging.Err(err))
		return err
	}
	log.Info(ctx, "starting inspection gRPC server", logging.String("addr", cfg.Inspect.Addr))
	go func() {
		if err := server.Serve(lis); err != nil {
			log.Error(ctx, "gRPC server exited", logging.Err(err))
		}
	}()
	defer server.GracefulStop()

	if metricsSrv := serveMetrics(cfg.Metrics.Addr, inspectMetrics, log); metricsSrv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	tc.AddListener(func(tick uint64) { s.step(stopCtx, tick) })
	done := tc.Start(stopCtx, 0)

	log.Info(ctx, "engine running", logging.String("scenario", scenario.Name), logging.Bool("enabled", cfg.Enabled))
	<-stopCtx.Done()
	<-done

	log.Info(ctx, "shutting down", logging.Uint64("ticks", tc.Ticks()))
	return nil
}

func serveMetrics(addr string, collector *observability.InspectCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
