package main

import (
	"fmt"

	"github.com/newthinker/strata/internal/app"
	"github.com/newthinker/strata/internal/config"
	"github.com/newthinker/strata/internal/logger"
)

// setup loads the config named by --config, or the defaults, and builds the app.
func setup() (*app.App, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug || cfg.Log.Development, level)
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}
