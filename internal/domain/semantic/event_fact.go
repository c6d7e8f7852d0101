package semantic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EventFactType struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash string    `gorm:"column:urlhash;type:text;not null;default:''" json:"urlhash"`
	Name    string    `gorm:"column:name;type:text;not null;uniqueIndex:idx_event_fact_type_name" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EventFactType) TableName() string { return "event_fact_type" }

// EventFact is a relation between entities (an acquisition, a trip, a quote).
type EventFact struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash    string         `gorm:"column:urlhash;type:text;not null;uniqueIndex:idx_event_fact_urlhash" json:"urlhash"`
	TypeID     uuid.UUID      `gorm:"type:uuid;column:type_id;not null;index" json:"type_id"`
	Type       *EventFactType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Attributes datatypes.JSON `gorm:"column:attributes" json:"attributes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EventFact) TableName() string { return "event_fact" }
