package db

import (
	types "github.com/yungbote/calaisgraph/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Vocabulary
		&types.EntityType{},
		&types.EventFactType{},

		// Deduplicated records
		&types.Entity{},
		&types.EventFact{},
		&types.SocialTag{},
		&types.Topic{},

		// Per-object analysis
		&types.Document{},
		&types.EntityDetection{},
		&types.EventDetection{},
		&types.SocialTagDetection{},
		&types.TopicDetection{},
	)
}
