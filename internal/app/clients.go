package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/calaisgraph/internal/platform/calais"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type Clients struct {
	// Calais is nil when no API key is configured; analysis then records
	// empty results.
	Calais calais.Client
}

func wireClients(log *logger.Logger, _ Config) (Clients, error) {
	log.Info("Wiring clients...")

	ccfg := calais.ConfigFromEnv()
	if strings.TrimSpace(ccfg.APIKey) == "" {
		log.Warn("CALAIS_API_KEY not set; analysis requests are disabled")
		return Clients{}, nil
	}
	c, err := calais.New(log, ccfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init calais client: %w", err)
	}
	return Clients{Calais: c}, nil
}
