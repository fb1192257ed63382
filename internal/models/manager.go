package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile is the external profile entity backing a manager. Managers are
// resolved against profiles by lower-cased email, exact match only.
type UserProfile struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email    string    `json:"email" gorm:"not null;uniqueIndex"`
	FullName string    `json:"fullName" gorm:"column:full_name"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Manager represents a sales manager, 1:1 with a user profile. The profile ID
// is the natural key for upserts.
type Manager struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `json:"profileId" gorm:"type:uuid;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"not null"`

	Profile *UserProfile `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Manager) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
