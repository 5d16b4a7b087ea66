package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appModels "github.com/yigit/registrar/internal/app/models"
	appRepos "github.com/yigit/registrar/internal/app/repositories"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/pkg/logger"
	"github.com/yigit/registrar/internal/pkg/metrics"
	"github.com/yigit/registrar/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos    *appRepos.Repositories
	Services *appServices.Services
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger // Get the configured global logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ServiceConfig maps the loaded configuration onto the service settings
func ServiceConfig(cfg *config.Config) appServices.Config {
	accounts := appServices.AccountConfig{
		EmailDomain:      cfg.Registry.EmailDomain,
		StudentIDBase:    cfg.Registry.StudentIDBase,
		InstructorIDBase: cfg.Registry.InstructorIDBase,
		AdminIDBase:      cfg.Registry.AdminIDBase,
		BcryptCost:       cfg.Registry.BcryptCost,
		AllowOverrides:   cfg.Auth.AllowOverrides,
	}
	for _, o := range cfg.Auth.Overrides {
		accounts.Overrides = append(accounts.Overrides, appServices.OverrideAccount{
			Role:     appModels.RoleType(o.Role),
			Email:    o.Email,
			Password: o.Password,
		})
	}

	return appServices.Config{
		Accounts: accounts,
		Catalog: appServices.CatalogConfig{
			CRNBase:  cfg.Catalog.CRNBase,
			CRNWidth: cfg.Catalog.CRNWidth,
		},
	}
}

// BuildDependencies initializes application repositories, metrics and services.
func BuildDependencies(cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Registry = prometheus.NewRegistry()
	deps.Metrics = metrics.New(cfg.Metrics.Namespace, deps.Registry)

	deps.Repos = appRepos.NewRepositories(cfg.Catalog.SectionNumberWidth)
	svc, err := appServices.NewServices(deps.Repos, ServiceConfig(cfg), deps.Metrics, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize services")
		return nil, err
	}
	deps.Services = svc

	if cfg.Auth.AllowOverrides {
		lgr.Warn().Int("count", len(cfg.Auth.Overrides)).Msg("Override credentials are enabled")
	}
	lgr.Info().Str("emailDomain", cfg.Registry.EmailDomain).Msg("Registrar services initialized")
	return deps, nil
}

// SeedDefaultData writes the default admin and the optional catalog file
func SeedDefaultData(ctx context.Context, cfg *config.Config, deps *Dependencies) (*seed.Result, error) {
	return seed.CreateDefaultData(ctx, deps.Services, seed.Options{
		AdminName:     cfg.Seed.AdminName,
		AdminPassword: cfg.Seed.AdminPassword,
		CatalogFile:   cfg.Seed.CatalogFile,
	}, logger.Component("seed"))
}

// LogMetrics writes the current value of every registered series at info level
func LogMetrics(deps *Dependencies) error {
	families, err := deps.Registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, family := range families {
		for _, m := range family.GetMetric() {
			event := deps.Logger.Info().Str("metric", family.GetName())
			for _, label := range m.GetLabel() {
				event = event.Str(label.GetName(), label.GetValue())
			}
			switch {
			case m.GetGauge() != nil:
				event = event.Float64("value", m.GetGauge().GetValue())
			case m.GetCounter() != nil:
				event = event.Float64("value", m.GetCounter().GetValue())
			}
			event.Msg("Metric snapshot")
		}
	}
	return nil
}
