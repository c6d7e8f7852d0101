package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/data/repos"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type Repos = repos.Set

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return repos.NewSet(db, log)
}
