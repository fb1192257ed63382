package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportAuditLog summarizes one coordinator run for the dashboard's audit view.
type ImportAuditLog struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Mode          ImportMode `json:"mode" gorm:"not null"`
	FileName      string     `json:"fileName"`
	FileSize      int64      `json:"fileSize"`
	Holder        string     `json:"holder"`
	TotalImported int        `json:"totalImported"`
	TotalErrors   int        `json:"totalErrors"`
	EntityCounts  JSON       `json:"entityCounts" gorm:"type:jsonb"`
	DurationMS    int64      `json:"durationMs" gorm:"column:duration_ms"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (a *ImportAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
