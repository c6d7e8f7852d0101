package app

import (
	"fmt"

	"github.com/yungbote/calaisgraph/internal/config"
	"github.com/yungbote/calaisgraph/internal/platform/envutil"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string
	AutoMigrate bool
	// Fields holds the per owner type default analysis fields.
	Fields *config.Config
}

func LoadConfig(log *logger.Logger) (Config, error) {
	fields, err := config.LoadFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("load analysis fields: %w", err)
	}
	cfg := Config{
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "calaisgraph"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("VERSION", "dev"),
		AutoMigrate: envutil.Bool("DB_AUTOMIGRATE", true),
		Fields:      fields,
	}
	log.Debug("configuration loaded",
		"environment", cfg.Environment,
		"automigrate", cfg.AutoMigrate,
		"owner_types", len(fields.DefaultFields),
	)
	return cfg, nil
}
