package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/services"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type Services struct {
	Detection services.DetectionService
	Analysis  services.AnalysisService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clientset Clients) Services {
	log.Info("Wiring services...")
	detection := services.NewDetectionService(log, reposet)
	analysis := services.NewAnalysisService(db, log, clientset.Calais, detection, reposet.Document, cfg.Fields)
	return Services{
		Detection: detection,
		Analysis:  analysis,
	}
}
