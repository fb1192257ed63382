package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SizeClass buckets accounts and sellers by revenue band
type SizeClass string

const (
	SizeEnterprise SizeClass = "enterprise"
	SizeMidmarket  SizeClass = "midmarket"
	SizeNoData     SizeClass = "no_data"
)

// Division represents a sales division
type Division string

const (
	DivisionESG   Division = "ESG"
	DivisionGDT   Division = "GDT"
	DivisionGVC   Division = "GVC"
	DivisionMSGUS Division = "MSG_US"
	DivisionMixed Division = "MIXED"
)

// ValidDivisions is the closed set accepted by the import pipeline
var ValidDivisions = []Division{DivisionESG, DivisionGDT, DivisionGVC, DivisionMSGUS, DivisionMixed}

// IsValidDivision reports whether d is a known division
func IsValidDivision(d Division) bool {
	for _, v := range ValidDivisions {
		if d == v {
			return true
		}
	}
	return false
}

// IsValidSizeClass reports whether s is a known size class
func IsValidSizeClass(s SizeClass) bool {
	switch s {
	case SizeEnterprise, SizeMidmarket, SizeNoData:
		return true
	}
	return false
}

// Account represents a sales account. Name is the natural key used by the
// import/export pipeline; the UUID is a surrogate for joins.
type Account struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string    `json:"name" gorm:"not null;uniqueIndex"`
	Industry        *string   `json:"industry,omitempty"`
	Size            SizeClass `json:"size" gorm:"not null"`
	Tier            *string   `json:"tier,omitempty"`
	AccountType     *string   `json:"accountType,omitempty" gorm:"column:account_type"`
	State           *string   `json:"state,omitempty"`
	City            *string   `json:"city,omitempty"`
	Country         *string   `json:"country,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty"`
	Longitude       *float64  `json:"longitude,omitempty"`
	CurrentDivision Division  `json:"currentDivision" gorm:"column:current_division;not null"`

	Revenue *AccountRevenue `json:"revenue,omitempty" gorm:"foreignKey:AccountID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AccountRevenue holds the four division revenue figures for an account, 1:1
type AccountRevenue struct {
	AccountID    uuid.UUID `json:"accountId" gorm:"type:uuid;primaryKey"`
	RevenueESG   float64   `json:"revenueEsg" gorm:"column:revenue_esg"`
	RevenueGDT   float64   `json:"revenueGdt" gorm:"column:revenue_gdt"`
	RevenueGVC   float64   `json:"revenueGvc" gorm:"column:revenue_gvc"`
	RevenueMSGUS float64   `json:"revenueMsgUs" gorm:"column:revenue_msg_us"`
}

func (AccountRevenue) TableName() string {
	return "account_revenues"
}
