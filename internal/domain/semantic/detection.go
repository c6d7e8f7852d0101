package semantic

import (
	"time"

	"github.com/google/uuid"
)

// EntityDetection records that an entity was found in a document, with the
// relevance it had there.
type EntityDetection struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;column:document_id;not null;uniqueIndex:idx_entity_detection_doc_entity,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	EntityID   uuid.UUID `gorm:"type:uuid;column:entity_id;not null;uniqueIndex:idx_entity_detection_doc_entity,priority:2;index" json:"entity_id"`
	Entity     *Entity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntityID;references:ID" json:"entity,omitempty"`
	URLHash    string    `gorm:"column:urlhash;type:text;not null" json:"urlhash"`
	Relevance  *float64  `gorm:"column:relevance" json:"relevance,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EntityDetection) TableName() string { return "entity_detection" }

type EventDetection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  uuid.UUID  `gorm:"type:uuid;column:document_id;not null;uniqueIndex:idx_event_detection_doc_event,priority:1" json:"document_id"`
	Document    *Document  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	EventFactID uuid.UUID  `gorm:"type:uuid;column:event_fact_id;not null;uniqueIndex:idx_event_detection_doc_event,priority:2;index" json:"event_fact_id"`
	EventFact   *EventFact `gorm:"constraint:OnDelete:CASCADE;foreignKey:EventFactID;references:ID" json:"event_fact,omitempty"`
	URLHash     string     `gorm:"column:urlhash;type:text;not null" json:"urlhash"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EventDetection) TableName() string { return "event_detection" }

type SocialTagDetection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  uuid.UUID  `gorm:"type:uuid;column:document_id;not null;uniqueIndex:idx_social_tag_detection_doc_tag,priority:1" json:"document_id"`
	Document    *Document  `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	SocialTagID uuid.UUID  `gorm:"type:uuid;column:social_tag_id;not null;uniqueIndex:idx_social_tag_detection_doc_tag,priority:2;index" json:"social_tag_id"`
	SocialTag   *SocialTag `gorm:"constraint:OnDelete:CASCADE;foreignKey:SocialTagID;references:ID" json:"social_tag,omitempty"`
	URLHash     string     `gorm:"column:urlhash;type:text;not null" json:"urlhash"`
	Importance  int        `gorm:"column:importance;not null;default:0" json:"importance"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SocialTagDetection) TableName() string { return "social_tag_detection" }

type TopicDetection struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;column:document_id;not null;uniqueIndex:idx_topic_detection_doc_topic,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`
	TopicID    uuid.UUID `gorm:"type:uuid;column:topic_id;not null;uniqueIndex:idx_topic_detection_doc_topic,priority:2;index" json:"topic_id"`
	Topic      *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	URLHash    string    `gorm:"column:urlhash;type:text;not null" json:"urlhash"`
	Score      float64   `gorm:"column:score;not null;default:0" json:"score"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicDetection) TableName() string { return "topic_detection" }
