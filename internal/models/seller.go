package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seniority classifies sellers by tenure
type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SenioritySenior Seniority = "senior"
)

// Seller represents a seller who owns a book of accounts. Name is the natural
// key; ManagerID may be nil during the window between a manager rebuild and the
// next manager-team import.
type Seller struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string     `json:"name" gorm:"not null;uniqueIndex"`
	Division      Division   `json:"division" gorm:"not null"`
	Size          SizeClass  `json:"size" gorm:"not null"`
	City          *string    `json:"city,omitempty"`
	State         *string    `json:"state,omitempty"`
	Country       *string    `json:"country,omitempty"`
	HireDate      *time.Time `json:"hireDate,omitempty"`
	TenureMonths  *int       `json:"tenureMonths,omitempty"`
	Seniority     Seniority  `json:"seniority" gorm:"not null;default:junior"`
	ManagerID     *uuid.UUID `json:"managerId,omitempty" gorm:"type:uuid"`
	BookFinalized bool       `json:"bookFinalized" gorm:"not null;default:false"`

	Manager *Manager `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Seller) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TenureMonthsFrom derives tenure in whole months from a hire date
func TenureMonthsFrom(hireDate time.Time, now time.Time) int {
	if hireDate.After(now) {
		return 0
	}
	months := (now.Year()-hireDate.Year())*12 + int(now.Month()) - int(hireDate.Month())
	if now.Day() < hireDate.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months
}

// SellerChatBackup is a best-effort copy of a seller's chat-history side table,
// keyed by seller name so it survives a destructive seller rebuild.
type SellerChatBackup struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SellerName string    `json:"sellerName" gorm:"not null;index"`
	Payload    JSON      `json:"payload" gorm:"type:jsonb"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (b *SellerChatBackup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
