package app

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jkang1643/Exbabel/internal/config"
	"github.com/jkang1643/Exbabel/internal/observability/logging"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	appLogger.Info().Msg("Session service application created")
	return a
}

// setupLogger configures the global zerolog logger. The configured level can
// be overridden with ZEROLOG_LOG_LEVEL, and ENV=dev switches to console
// output for local runs.
func (a *Application) setupLogger() {
	level := a.Cfg.Observability.LogLevel
	if envLevel := os.Getenv("ZEROLOG_LOG_LEVEL"); envLevel != "" {
		level = strings.ToLower(envLevel)
	}

	format := "json"
	if os.Getenv("ENV") == "dev" {
		format = "console"
	}

	logging.Init(logging.Config{
		Level:      level,
		Format:     format,
		TimeFormat: time.RFC3339,
	})

	a.Logger = logging.Logger().With().
		Str("service", "exbabel-session-service").
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", level).
		Str("environment", os.Getenv("ENV")).
		Msg("Logger setup completed")
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Session service starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Session service shutting down")
}
