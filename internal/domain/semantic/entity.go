package semantic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EntityType is an entity category such as Person or City. URLHash holds the
// type reference URI the category was first seen with.
type EntityType struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash string    `gorm:"column:urlhash;type:text;not null;default:''" json:"urlhash"`
	Name    string    `gorm:"column:name;type:text;not null;uniqueIndex:idx_entity_type_name" json:"name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EntityType) TableName() string { return "entity_type" }

// Entity is a named thing detected in a document, deduplicated by URI.
type Entity struct {
	ID      uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	URLHash string      `gorm:"column:urlhash;type:text;not null;uniqueIndex:idx_entity_urlhash" json:"urlhash"`
	TypeID  uuid.UUID   `gorm:"type:uuid;column:type_id;not null;index" json:"type_id"`
	Type    *EntityType `gorm:"constraint:OnDelete:CASCADE;foreignKey:TypeID;references:ID" json:"type,omitempty"`
	Name    string      `gorm:"column:name;type:text;not null;default:'';index" json:"name"`
	// Attribute snapshot from the first analysis that saw this entity.
	Attributes datatypes.JSON `gorm:"column:attributes" json:"attributes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entity) TableName() string { return "entity" }
