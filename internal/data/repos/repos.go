package repos

import (
	"github.com/yungbote/calaisgraph/internal/data/repos/semantic"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
	"gorm.io/gorm"
)

type EntityTypeRepo = semantic.EntityTypeRepo
type EntityRepo = semantic.EntityRepo
type EventFactTypeRepo = semantic.EventFactTypeRepo
type EventFactRepo = semantic.EventFactRepo
type SocialTagRepo = semantic.SocialTagRepo
type TopicRepo = semantic.TopicRepo
type DocumentRepo = semantic.DocumentRepo
type DetectionRepo = semantic.DetectionRepo
type DetectionCounts = semantic.DetectionCounts

// Set bundles every repository the analysis services need.
type Set struct {
	EntityType    EntityTypeRepo
	Entity        EntityRepo
	EventFactType EventFactTypeRepo
	EventFact     EventFactRepo
	SocialTag     SocialTagRepo
	Topic         TopicRepo
	Document      DocumentRepo
	Detection     DetectionRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		EntityType:    semantic.NewEntityTypeRepo(db, baseLog),
		Entity:        semantic.NewEntityRepo(db, baseLog),
		EventFactType: semantic.NewEventFactTypeRepo(db, baseLog),
		EventFact:     semantic.NewEventFactRepo(db, baseLog),
		SocialTag:     semantic.NewSocialTagRepo(db, baseLog),
		Topic:         semantic.NewTopicRepo(db, baseLog),
		Document:      semantic.NewDocumentRepo(db, baseLog),
		Detection:     semantic.NewDetectionRepo(db, baseLog),
	}
}
