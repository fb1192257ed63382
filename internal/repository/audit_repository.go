package repository

import (
	"context"

	"gorm.io/gorm"

	"reassignment-service/internal/models"
)

// AuditRepository persists per-run import summaries.
type AuditRepository interface {
	Create(ctx context.Context, log *models.ImportAuditLog) error
	List(ctx context.Context, offset, limit int) ([]models.ImportAuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, log *models.ImportAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditRepository) List(ctx context.Context, offset, limit int) ([]models.ImportAuditLog, error) {
	var logs []models.ImportAuditLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&logs).Error
	return logs, err
}
