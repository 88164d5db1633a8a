package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"panel-backend/config"
	"panel-backend/internal/logging"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}

	root := &cobra.Command{
		Use:          "paneld",
		Short:        "Game server control panel backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the configuration file")

	root.AddCommand(
		newServeCmd(),
		newScheduleCmd(),
		newEnvironmentCmd(),
		newUserCmd(),
	)
	return root
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return nil, err
	}
	log.Infof("configuration loaded successfully from %s", configPath)
	return cfg, nil
}
