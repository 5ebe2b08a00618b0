package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/coldload/cmd/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithField("error", err).Error("coldload failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "coldload",
		Short:         "Cold room cooling load calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")

	loadConfig := func() (app.Config, error) {
		cfg, err := app.LoadConfig(configPath)
		if err != nil {
			return app.Config{}, err
		}
		setupLogging(cfg.LogLevel)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(loadConfig), newCalcCmd(loadConfig))
	return root
}

func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
