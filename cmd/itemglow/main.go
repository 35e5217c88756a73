// Command itemglow replays item scenarios through the highlight engine and
// serves its state for inspection.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/itemglow/internal/config"
	"github.com/signalsfoundry/itemglow/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "itemglow",
		Short:         "Rarity outline engine for dropped items",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to an itemglow.yaml config file")
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(simulateCmd(&configPath))
	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(versionCmd())
	return root
}

// loadConfig reads path, or the defaults when it is empty, and applies
// environment overrides.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(nil)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) logging.Logger {
	return logging.New(cfg.LoggingConfig())
}
