package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/yigit/registrar/internal/bootstrap"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/pkg/logger" // Still needed for initial error logging
)

func main() {
	configPath := config.GetEnv("REGISTRAR_CONFIG", filepath.Join("configs", "config.yaml"))

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		// Use the default logger setup by the logger package's init
		logger.Error().Err(err).Msg("Failed to initialize registrar")
		os.Exit(1)
	}

	deps, err := bootstrap.BuildDependencies(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to setup dependencies")
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := bootstrap.SeedDefaultData(ctx, cfg, deps)
	if err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}
	if result != nil && result.Admin != nil && result.Admin.DefaultPassword != "" {
		lgr.Warn().
			Str("email", result.Admin.User.Email).
			Str("defaultPassword", result.Admin.DefaultPassword).
			Msg("Sign in as the default admin and change this password")
	}

	if err := bootstrap.LogMetrics(deps); err != nil {
		lgr.Error().Err(err).Msg("Failed to report metrics")
		os.Exit(1)
	}

	lgr.Info().Msg("Registrar finished.")
}
