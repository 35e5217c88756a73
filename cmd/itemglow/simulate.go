package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/itemglow/internal/logging"
	"github.com/signalsfoundry/itemglow/kb"
	"github.com/signalsfoundry/itemglow/timectrl"
)

func simulateCmd(configPath *string) *cobra.Command {
	var scenarioPath string
	var ticks uint64
	var every uint64
	var realtime bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario and print what glows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), *configPath, scenarioPath, ticks, every, realtime)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
	cmd.Flags().Uint64Var(&ticks, "ticks", 100, "Number of ticks to run")
	cmd.Flags().Uint64Var(&every, "every", 20, "Print a summary every N ticks (0 disables)")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Pace ticks at the configured rate instead of running accelerated")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, configPath, scenarioPath string, ticks, every uint64, realtime bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	scenario, err := kb.LoadScenarioFile(scenarioPath)
	if err != nil {
		return err
	}
	mode := timectrl.Accelerated
	if realtime {
		mode = cfg.TickMode()
	}
	tc := timectrl.NewTickController(cfg.TickInterval(), mode)

	s, err := newSession(cfg, scenario, sessionDeps{Log: log, Clock: tc})
	if err != nil {
		return err
	}
	defer s.close()

	tc.AddListener(func(tick uint64) {
		report, ran := s.step(ctx, tick)
		if ran && every > 0 && tick%every == 0 {
			fmt.Fprintln(out, s.summary(report))
		}
	})

	log.Info(ctx, "starting simulation",
		logging.String("scenario", scenario.Name),
		logging.Uint64("ticks", ticks),
		logging.Bool("enabled", cfg.Enabled),
	)
	<-tc.Start(ctx, ticks)

	f := s.frame()
	fmt.Fprintf(out, "after %d ticks: %d outlined\n", s.clock.Ticks(), countOutlined(f.States))
	for _, h := range s.engine.Snapshot().Highlights {
		fmt.Fprintf(out, "  %-24s %-12s %s\n", s.nameOf(h.ID), h.Tier, h.Color.Hex())
	}
	return nil
}
