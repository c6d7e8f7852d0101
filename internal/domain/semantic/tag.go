package semantic

import (
	"time"

	"github.com/google/uuid"
)

type SocialTag struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash string    `gorm:"column:urlhash;type:text;not null;uniqueIndex:idx_social_tag_urlhash" json:"urlhash"`
	Name    string    `gorm:"column:name;type:text;not null;default:'';index" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (SocialTag) TableName() string { return "social_tag" }

// Topic is a document category; URLHash is the category URI.
type Topic struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash string    `gorm:"column:urlhash;type:text;not null;uniqueIndex:idx_topic_urlhash" json:"urlhash"`
	Name    string    `gorm:"column:name;type:text;not null;default:''" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
