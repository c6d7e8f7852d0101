package semantic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID fills in a primary key on insert. Defaults are set here instead
// of in SQL so the same models migrate on Postgres and SQLite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (t *EntityType) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (e *Entity) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (t *EventFactType) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (e *EventFact) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (s *SocialTag) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (t *Topic) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (d *Document) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (d *EntityDetection) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (d *EventDetection) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (d *SocialTagDetection) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (d *TopicDetection) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
