package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reassignment-service/internal/models"
)

// ManagerRepository is the store surface for managers and the external user
// profiles they are backed by. Profiles are read-only here: the dashboard's
// auth layer owns their lifecycle.
type ManagerRepository interface {
	FetchPage(ctx context.Context, offset, limit int) ([]models.Manager, error)
	FetchProfilesPage(ctx context.Context, offset, limit int) ([]models.UserProfile, error)
	UpsertBatch(ctx context.Context, managers []models.Manager) error
	InsertBatch(ctx context.Context, managers []models.Manager) error
	DeleteAll(ctx context.Context) error
}

type managerRepository struct {
	db *gorm.DB
}

func NewManagerRepository(db *gorm.DB) ManagerRepository {
	return &managerRepository{db: db}
}

func (r *managerRepository) FetchPage(ctx context.Context, offset, limit int) ([]models.Manager, error) {
	var managers []models.Manager
	err := r.db.WithContext(ctx).
		Order("name").
		Offset(offset).Limit(limit).
		Find(&managers).Error
	return managers, err
}

func (r *managerRepository) FetchProfilesPage(ctx context.Context, offset, limit int) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	err := r.db.WithContext(ctx).
		Order("email").
		Offset(offset).Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *managerRepository) UpsertBatch(ctx context.Context, managers []models.Manager) error {
	if len(managers) == 0 {
		return nil
	}
	now := time.Now()
	for i := range managers {
		managers[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&managers).Error
}

func (r *managerRepository) InsertBatch(ctx context.Context, managers []models.Manager) error {
	if len(managers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoNothing: true,
	}).Create(&managers).Error
}

func (r *managerRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&models.Manager{}).Error
}
