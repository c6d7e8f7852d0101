package semantic

import (
	"time"

	"github.com/google/uuid"
)

// Document ties one analyzed object (owner type + owner id) to its
// detections. There is at most one Document per owner.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerType    string    `gorm:"column:owner_type;type:text;not null;uniqueIndex:idx_document_owner,priority:1" json:"owner_type"`
	OwnerID      string    `gorm:"column:owner_id;type:text;not null;uniqueIndex:idx_document_owner,priority:2" json:"owner_id"`
	AnalysisDate time.Time `gorm:"column:analysis_date;not null;index" json:"analysis_date"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
